package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/dpr/internal/app"
	"github.com/mamadbah2/dpr/internal/config"
	"github.com/mamadbah2/dpr/internal/domain/models"
	"github.com/mamadbah2/dpr/internal/service/distribution"
	"github.com/mamadbah2/dpr/pkg/logger"
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

var envFile string

var rootCmd = &cobra.Command{
	Use:           "dprctl",
	Short:         "Daily progress report tooling",
	Long:          `dprctl compiles daily progress reports and distributes them to subscribed recipients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var sendDailyCmd = &cobra.Command{
	Use:   "send-daily",
	Short: "Send yesterday's report to every daily recipient",
	Long: `Run the scheduled distribution once.

Meant to be called every few minutes by an external scheduler: outside the
send window, or once the report date has been delivered, it does nothing.

Exit codes:
  0  sent, skipped, or no recipients
  2  some recipients failed
  1  every recipient failed, or the run could not start`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dateFlag, _ := cmd.Flags().GetString("date")

		opts := distribution.Options{Force: force}
		if dateFlag != "" {
			date, err := models.ParseDate(dateFlag)
			if err != nil {
				return err
			}
			opts.ReportDate = date
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			res, err := a.Distribution.RunDaily(ctx, opts)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			fmt.Printf("%s (run %s, report date %s)\n", res.Message(), res.RunID, res.ReportDate.Format(models.DisplayDateLayout))
			if code := res.ExitCode(); code != 0 {
				return &exitError{code: code}
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the DPR workbook for a period to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromFlag, _ := cmd.Flags().GetString("from")
		toFlag, _ := cmd.Flags().GetString("to")
		sitesFlag, _ := cmd.Flags().GetString("sites")
		outDir, _ := cmd.Flags().GetString("out")

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			start := a.Distribution.DefaultReportDate()
			if fromFlag != "" {
				d, err := models.ParseDate(fromFlag)
				if err != nil {
					return err
				}
				start = d
			}
			end := start
			if toFlag != "" {
				d, err := models.ParseDate(toFlag)
				if err != nil {
					return err
				}
				end = d
			}

			sites := a.Config.Distribution.Sites
			if cmd.Flags().Changed("sites") {
				parsed, err := models.ParseSiteList(sitesFlag)
				if err != nil {
					return err
				}
				sites = parsed
			}

			artifact, err := a.Export.Export(ctx, sites, start, end)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, artifact.Filename)
			if err := os.WriteFile(path, artifact.Bytes, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Printf("Wrote %s (%d reports)\n", path, artifact.ReportCount)
			return nil
		})
	},
}

var testEmailCmd = &cobra.Command{
	Use:   "test-email <address>",
	Short: "Send a test message through the configured delivery channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if err := a.Distribution.SendTest(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Test message sent to %s\n", args[0])
			return nil
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the distribution scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")

	sendDailyCmd.Flags().BoolP("force", "f", false, "Ignore the send window and the already-sent check")
	sendDailyCmd.Flags().String("date", "", "Report date YYYY-MM-DD (default: yesterday)")

	exportCmd.Flags().String("from", "", "First report date YYYY-MM-DD (default: yesterday)")
	exportCmd.Flags().String("to", "", "Last report date YYYY-MM-DD (default: --from)")
	exportCmd.Flags().String("sites", "", "Comma separated site codes (default: DPR_SITES)")
	exportCmd.Flags().StringP("out", "o", ".", "Output directory")

	rootCmd.AddCommand(sendDailyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(testEmailCmd)
	rootCmd.AddCommand(serveCmd)
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	base, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()

	a, err := app.New(ctx, cfg, logger.Named(base, "dprctl"))
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	return fn(ctx, a)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
		}
		os.Exit(exitErr.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
