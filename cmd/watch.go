// File: cmd/watch.go
package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/internal/browser"
	"github.com/xkilldash9x/stockwatch-cli/internal/dashboard"
	"github.com/xkilldash9x/stockwatch-cli/internal/monitor"
	"github.com/xkilldash9x/stockwatch-cli/internal/notify"
	"github.com/xkilldash9x/stockwatch-cli/internal/observability"
	"github.com/xkilldash9x/stockwatch-cli/internal/proxy"
	"github.com/xkilldash9x/stockwatch-cli/internal/resolver"
	"github.com/xkilldash9x/stockwatch-cli/internal/scheduler"
	"github.com/xkilldash9x/stockwatch-cli/internal/vision"
)

var schedule bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check all monitored products, once or on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&schedule, "schedule", false, "keep running on the configured cron schedule")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(parent context.Context) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	if len(cfg.Items) == 0 {
		return fmt.Errorf("no items configured, nothing to watch")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	pool := proxy.NewPool(rng, logger)
	if err := pool.Load(cfg.Proxy.File); err != nil {
		return err
	}

	shots, err := browser.NewStore(cfg.Browser.ScreenshotDir, logger)
	if err != nil {
		return err
	}
	dash, err := dashboard.NewWriter(cfg.Dashboard.Dir, logger)
	if err != nil {
		return err
	}

	manager := browser.NewManager(cfg, pool, rng, logger)
	defer manager.Shutdown(context.Background())

	checker := resolver.NewChecker(cfg, vision.New(cfg.Inference, logger), shots, browser.DismissConsent, browser.Authenticate, rng, logger)
	emailer := notify.NewEmailer(cfg.Email, logger)
	loop := monitor.NewLoop(cfg, manager, checker, emailer, dash, rng, logger)

	runCycle := func(ctx context.Context) {
		if err := loop.RunCycle(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Monitoring cycle failed", zap.Error(err))
		}
		if err := dash.CopyScreenshots(shots.Newest(cfg.Dashboard.ScreenshotCount)); err != nil {
			logger.Warn("Could not refresh dashboard screenshots", zap.Error(err))
		}
	}

	if !schedule {
		runCycle(ctx)
		return ctx.Err()
	}

	sched := scheduler.New(logger)
	if err := sched.Schedule(ctx, cfg.Monitor.Schedule, runCycle); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Monitor.Schedule, err)
	}

	// First cycle runs immediately; the cron cadence takes over after.
	runCycle(ctx)

	sched.Start()
	<-ctx.Done()
	sched.Stop()
	logger.Info("Watch stopped")
	return nil
}
