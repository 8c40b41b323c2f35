package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/WhisperingChaos/sudokeep/internal/audit"
	"github.com/WhisperingChaos/sudokeep/internal/cron"
	"github.com/WhisperingChaos/sudokeep/internal/elevate"
	"github.com/WhisperingChaos/sudokeep/internal/keepalive"
	"github.com/WhisperingChaos/sudokeep/internal/policy"
	"github.com/WhisperingChaos/sudokeep/internal/status"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the grace period refreshed until the watched process exits",
		Long: `Performs an interactive elevation, then refreshes the sudo timestamp in
the background until the watched process (by default, the invoking shell)
terminates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pid, _ := cmd.Flags().GetInt("pid")
			if pid == 0 {
				pid = os.Getppid()
			}
			override, _ := cmd.Flags().GetString("timeout")

			logger := newLogger(cmd)
			gw := elevate.NewSudo(elevate.SudoConfig{Bin: cfg.SudoBin})

			resolver, err := policy.NewResolver(policy.Config{
				SudoersPath: cfg.SudoersPath,
				Default:     cfg.DefaultGraceSeconds,
				Logger:      logger,
			}, gw)
			if err != nil {
				return err
			}

			metrics := status.NewMetrics()
			recorders := keepalive.MultiRecorder{metrics}

			var store *audit.Store
			if cfg.Audit.Path != "" {
				store, err = audit.Open(cfg.Audit.Path, logger)
				if err != nil {
					return err
				}
				defer store.Close()
				recorders = append(recorders, store)
			}

			supervisor, err := keepalive.NewSupervisor(keepalive.Config{
				Margin:       time.Duration(cfg.Heartbeat.MarginSeconds) * time.Second,
				PollInterval: time.Duration(cfg.Heartbeat.PollSeconds) * time.Second,
				Recorder:     recorders,
				Logger:       logger,
			}, gw, resolver)
			if err != nil {
				return err
			}

			sess, err := supervisor.Start(cmd.Context(), pid, override)
			if err != nil {
				return err
			}
			if sess == nil {
				fmt.Println("no periodic refresh needed for the resolved grace period")
				return nil
			}

			if cfg.Status.Listen != "" {
				statusSrv := status.NewServer(cfg.Status.Listen, pid, metrics, logger)
				if err := statusSrv.Start(); err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = statusSrv.Stop(ctx)
				}()
			}

			if store != nil {
				scheduler := cron.NewScheduler(logger)
				if err := scheduler.RegisterJob(&cron.AuditPruneJob{
					Store:        store,
					Retention:    time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour,
					Logger:       logger,
					ScheduleExpr: cfg.Audit.PruneSchedule,
				}); err != nil {
					return err
				}
				if err := scheduler.Start(); err != nil {
					return err
				}
				defer func() { _ = scheduler.Stop(context.Background()) }()
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-sess.Done():
				logger.Info("watch: watched process exited", "pid", pid)
			case sig := <-sigCh:
				logger.Info("watch: shutting down on signal", "signal", sig.String())
			}
			return nil
		},
	}
	cmd.Flags().Int("pid", 0, "Process to watch (default: the invoking shell)")
	cmd.Flags().String("timeout", "", "Grace period override in decimal minutes (e.g. \"2.5\")")
	return cmd
}
