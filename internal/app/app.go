package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/internal/repository/mongodb"
	"github.com/mamadbah2/dpr/internal/repository/redislock"
	"github.com/mamadbah2/dpr/internal/repository/sheets"
	"github.com/mamadbah2/dpr/internal/scheduler"
	"github.com/mamadbah2/dpr/internal/server/handlers"
	"github.com/mamadbah2/dpr/internal/server/router"
	"github.com/mamadbah2/dpr/internal/service/distribution"
	"github.com/mamadbah2/dpr/internal/service/entry"
	"github.com/mamadbah2/dpr/internal/service/export"
	"github.com/mamadbah2/dpr/internal/service/reporting"
	"github.com/mamadbah2/dpr/pkg/clients/mailer"
	whatsappclient "github.com/mamadbah2/dpr/pkg/clients/whatsapp"
	"github.com/mamadbah2/dpr/pkg/logger"
)

// App holds the wired services shared by the server and the CLI.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Mongo        *mongodb.MongoDBRepository
	Reporting    *reporting.Service
	Entry        *entry.Service
	Export       *export.Service
	Distribution *distribution.Service

	closers []func(context.Context) error
}

// New connects the stores and wires every service.
func New(ctx context.Context, cfg *config.Config, base *zap.Logger) (*App, error) {
	if base == nil {
		base = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: base}

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named(base, "repo.mongo"))
	if err != nil {
		return nil, err
	}
	a.Mongo = mongoRepo
	a.closers = append(a.closers, mongoRepo.Close)

	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	var locker redislock.Locker = redislock.NoopLocker{}
	if cfg.Redis.Address != "" {
		rl, err := redislock.NewRedisLocker(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, logger.Named(base, "repo.redis"))
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		locker = rl
		a.closers = append(a.closers, func(context.Context) error { return rl.Close() })
	} else {
		base.Warn("REDIS_ADDRESS not set, distribution runs are not locked")
	}

	var mirror export.Mirror
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(base, "repo.sheets"))
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		mirror = export.NewSheetsMirror(sheetsRepo, cfg.Distribution.ProjectName)
	}

	loc := cfg.Distribution.Location()
	reports := mongoRepo.Reports()

	a.Reporting = reporting.NewService(reports, loc, logger.Named(base, "svc.reporting"))
	a.Entry = entry.NewService(reports, loc, logger.Named(base, "svc.entry"))
	a.Export = export.NewService(reports, cfg.Distribution.ProjectName, mirror, logger.Named(base, "svc.export"))

	hour, minute, err := cfg.Distribution.SendClock()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	channel, err := NewChannel(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Distribution = distribution.NewService(distribution.Dependencies{
		Exporter:   a.Export,
		Recipients: mongoRepo.Recipients(),
		Log:        mongoRepo.DeliveryLog(),
		State:      mongoRepo.Runs(),
		Channel:    channel,
		Locker:     locker,
	}, distribution.Settings{
		ProjectName: cfg.Distribution.ProjectName,
		Sites:       cfg.Distribution.Sites,
		Gate: distribution.TimeGate{
			Location: loc,
			Hour:     hour,
			Minute:   minute,
			Window:   minutes(cfg.Distribution.WindowMinutes),
		},
		Parallelism: cfg.Distribution.Parallelism,
		LockTTL:     cfg.Distribution.LockTTL,
	}, logger.Named(base, "svc.distribution"))

	return a, nil
}

// NewChannel builds the delivery channel named by DELIVERY_CHANNEL.
func NewChannel(cfg *config.Config) (distribution.Channel, error) {
	switch cfg.Distribution.Channel {
	case config.ChannelSMTP:
		return mailer.NewSMTPSender(cfg.SMTP), nil
	case config.ChannelWhatsApp:
		return whatsappclient.NewDocumentChannel(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp), nil
	default:
		return nil, fmt.Errorf("unsupported delivery channel %q", cfg.Distribution.Channel)
	}
}

// Router builds the HTTP engine.
func (a *App) Router() *gin.Engine {
	sites := a.Config.Distribution.Sites
	return router.New(router.Handlers{
		Dashboard:    handlers.NewDashboardHandler(a.Reporting, sites, logger.Named(a.Logger, "handlers.dashboard")),
		Reports:      handlers.NewReportHandler(a.Entry, logger.Named(a.Logger, "handlers.reports")),
		Export:       handlers.NewExportHandler(a.Export, a.Reporting.Today, sites, logger.Named(a.Logger, "handlers.export")),
		Distribution: handlers.NewDistributionHandler(a.Distribution, a.Mongo.DeliveryLog(), a.Mongo.Recipients(), logger.Named(a.Logger, "handlers.distribution")),
	}, logger.Named(a.Logger, "router"))
}

// Scheduler builds the cron trigger for the daily distribution.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.Distribution, a.Config.Distribution.CronSchedule, a.Config.Distribution.Location(), logger.Named(a.Logger, "scheduler"))
}

// Close releases connections in reverse order of creation.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Error("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
