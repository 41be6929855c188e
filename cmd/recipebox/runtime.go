package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recipebox/internal/config"
	"recipebox/internal/i18n"
	"recipebox/internal/localstore"
	"recipebox/internal/logging"
	"recipebox/internal/notifications"
	"recipebox/internal/orchestrator"
	"recipebox/internal/preflight"
	"recipebox/internal/services/analysis"
	"recipebox/internal/services/backend"
	"recipebox/internal/services/imagestore"
)

type runtimeOptions struct {
	logToFileOnly bool
	logStream     *logging.StreamHub
}

// runtime is the wired application: store, services and orchestrator.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	logs    *logging.StreamHub
	store   *localstore.Store
	printer *i18n.Printer
	notices *notifications.Center
	// remote is nil when no backend URL is configured; recipes then live in
	// the local store only.
	remote   *backend.Client
	analyzer *analysis.Client
	images   *imagestore.Store
	orch     *orchestrator.Orchestrator
}

func openRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*runtime, error) {
	logger, err := newLogger(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := localstore.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	printer := i18n.New(cfg.Analysis.Language)
	center := notifications.NewService(cfg, printer, logger)

	analysisCfg := cfg.GetAnalysis()
	analyzer := analysis.NewClient(analysis.Config{
		APIKey:         analysisCfg.APIKey,
		BaseURL:        analysisCfg.BaseURL,
		Model:          analysisCfg.Model,
		Referer:        analysisCfg.Referer,
		Title:          analysisCfg.Title,
		TimeoutSeconds: analysisCfg.TimeoutSeconds,
		RetryAttempts:  analysisCfg.RetryAttempts,
		Language:       cfg.Analysis.Language,
	}, analysis.WithLogger(logger))

	deps := orchestrator.Dependencies{
		Analyzer: analyzer,
		Store:    store,
		Notifier: center,
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		logs:     opts.logStream,
		store:    store,
		printer:  printer,
		notices:  center,
		analyzer: analyzer,
	}

	if cfg.Backend.BaseURL != "" {
		rt.remote = backend.NewClient(backend.Config{
			BaseURL:        cfg.Backend.BaseURL,
			Token:          cfg.Backend.Token,
			TimeoutSeconds: cfg.Backend.TimeoutSeconds,
		},
			backend.WithTokenSource(func(ctx context.Context) string {
				session, err := store.Session(ctx)
				if err != nil {
					return ""
				}
				return session.Token
			}),
			backend.WithMirror(store),
			backend.WithLogger(logger),
		)
		deps.Persistence = rt.remote
		deps.Approver = rt.remote
	} else {
		deps.Persistence = backend.NewLocal(store)
	}

	images, err := imagestore.New(ctx, cfg.Images, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if images != nil {
		rt.images = images
		deps.Images = images
	}

	rt.orch = orchestrator.New(deps,
		orchestrator.WithLogger(logger),
		orchestrator.WithPrinter(printer),
	)
	return rt, nil
}

func newLogger(cfg *config.Config, opts runtimeOptions) (*slog.Logger, error) {
	if !opts.logToFileOnly {
		return logging.NewFromConfig(cfg, opts.logStream)
	}
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           "json",
		OutputPaths:      []string{cfg.LogFilePath()},
		ErrorOutputPaths: []string{cfg.LogFilePath()},
		Stream:           opts.logStream,
	})
}

// community returns the multi-user backend, or nil when running offline.
func (r *runtime) community() *backend.Client {
	if r.remote == nil || !r.remote.Configured() {
		return nil
	}
	return r.remote
}

// waitIdle blocks until background persistence has drained or ctx ends.
func (r *runtime) waitIdle(ctx context.Context) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for r.orch.Snapshot().Persisting > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close stops the orchestrator and releases the store.
func (r *runtime) Close() {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	r.waitIdle(ctx)
	r.orch.Close()
	if err := r.store.Close(); err != nil {
		r.logger.Warn("close local store", logging.Error(err))
	}
}

// preflightTargets returns the live clients to check, leaving absent ones nil.
func (r *runtime) preflightTargets() preflight.Targets {
	targets := preflight.Targets{Analysis: r.analyzer}
	if remote := r.community(); remote != nil {
		targets.Backend = remote
	}
	if r.images != nil {
		targets.Images = r.images
	}
	return targets
}
