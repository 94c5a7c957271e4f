package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/app"
	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(app.NewLogger(cfg.Log))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close(context.Background())

	if err := application.Serve(ctx); err != nil {
		baseLogger.Error("http server crashed", zap.Error(err))
	}
}
