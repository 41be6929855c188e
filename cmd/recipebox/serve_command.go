package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"recipebox/internal/api"
	"recipebox/internal/config"
	"recipebox/internal/inbox"
	"recipebox/internal/logging"
	"recipebox/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var noInbox bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and inbox watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Paths.APIBind = bind
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another recipebox server holds %s", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			hub := logging.NewStreamHub(4096)
			rt, err := openRuntime(signalCtx, cfg, runtimeOptions{logStream: hub})
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, check := range preflight.Failed(preflight.RunAll(signalCtx, cfg, rt.preflightTargets())) {
				logging.WarnWithContext(rt.logger, "preflight check failed", "preflight_failed",
					logging.String("check", check.Name),
					logging.String("detail", check.Detail),
					logging.String(logging.FieldImpact, "related features may fail until fixed"),
				)
			}

			var community api.Community
			if remote := rt.community(); remote != nil {
				community = remote
			}
			server, err := api.New(api.Options{
				Bind:             cfg.Paths.APIBind,
				Token:            cfg.Paths.APIToken,
				Orchestrator:     rt.orch,
				Notices:          rt.notices,
				Community:        community,
				Logs:             hub,
				Logger:           rt.logger,
				SlowWriteTimeout: analysisBudget(cfg),
			})
			if err != nil {
				return err
			}
			if err := server.Start(signalCtx); err != nil {
				return err
			}
			defer server.Stop()

			var wg sync.WaitGroup
			if !noInbox && cfg.Paths.InboxDir != "" {
				watcher, err := inbox.New(cfg.Paths.InboxDir, rt.orch, inbox.WithLogger(rt.logger))
				if err != nil {
					return err
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := watcher.Run(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
						logging.ErrorWithContext(rt.logger, "inbox watcher stopped", "inbox_stopped",
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "check paths.inbox_dir permissions"),
						)
					}
				}()
			}

			rt.logger.Info("recipebox server started",
				logging.String("address", server.Addr()),
				logging.String("lock", cfg.LockPath()),
			)
			<-signalCtx.Done()
			rt.logger.Info("recipebox server shutting down")
			wg.Wait()
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	cmd.Flags().BoolVar(&noInbox, "no-inbox", false, "Do not watch the inbox directory")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var servings int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze photos dropped into the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Paths.InboxDir
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := openRuntime(signalCtx, cfg, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			watcher, err := inbox.New(dir, rt.orch, inbox.WithLogger(rt.logger), inbox.WithServings(servings))
			if err != nil {
				return userError(err)
			}
			return watcher.Run(signalCtx)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch (default: paths.inbox_dir)")
	cmd.Flags().IntVarP(&servings, "servings", "s", 0, "Servings for every analysis (default: last used)")
	return cmd
}

// slowWriteMargin covers backoff and response encoding per analysis attempt.
const slowWriteMargin = 30 * time.Second

// analysisBudget is how long an analyze or servings response may take to
// write. Zero leaves those responses without a deadline.
func analysisBudget(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.Analysis.TimeoutSeconds <= 0 {
		return 0
	}
	attempts := max(cfg.Analysis.RetryAttempts, 1)
	perAttempt := time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second + slowWriteMargin
	return time.Duration(attempts) * perAttempt
}
