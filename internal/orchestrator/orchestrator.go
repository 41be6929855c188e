package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"recipebox/internal/i18n"
	"recipebox/internal/logging"
	"recipebox/internal/notifications"
	"recipebox/internal/services"
)

// Dependencies are the collaborators injected into an Orchestrator.
// Approver and Images are optional.
type Dependencies struct {
	Analyzer    Analyzer
	Persistence Persistence
	Store       LocalStore
	Notifier    notifications.Service
	Approver    Approver
	Images      ImageStore
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger; the orchestrator logs under the "orchestrator" component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "orchestrator")
	}
}

// WithPrinter sets the localized message printer.
func WithPrinter(printer *i18n.Printer) Option {
	return func(o *Orchestrator) {
		if printer != nil {
			o.printer = printer
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator owns the active recipe slot and the view state machine.
type Orchestrator struct {
	analyzer    Analyzer
	persistence Persistence
	store       LocalStore
	notifier    notifications.Service
	approver    Approver
	images      ImageStore
	printer     *i18n.Printer
	logger      *slog.Logger
	now         func() time.Time

	mu    sync.Mutex
	state state

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
}

// New constructs an Orchestrator.
func New(deps Dependencies, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		analyzer:    deps.Analyzer,
		persistence: deps.Persistence,
		store:       deps.Store,
		notifier:    deps.Notifier,
		approver:    deps.Approver,
		images:      deps.Images,
		printer:     i18n.New("en"),
		logger:      logging.NewComponentLogger(nil, "orchestrator"),
		now:         time.Now,
		state:       newState(),
		bgCtx:       ctx,
		bgCancel:    cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.snapshot()
}

// Close cancels background persistence, waits for it to finish and silences
// any outstanding progress reporters.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.state.invalidate()
	o.state.loading = false
	o.mu.Unlock()

	o.bgCancel()
	o.wg.Wait()
}

// goBackground runs fn on a tracked goroutine bound to the orchestrator's
// lifetime. It reports false when the orchestrator is closed.
func (o *Orchestrator) goBackground(fn func(ctx context.Context)) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.state.persisting++
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			o.state.persisting--
			o.mu.Unlock()
		}()
		fn(o.bgCtx)
	}()
	return true
}

// detach carries request scoped values into a background context.
func detach(ctx, background context.Context) context.Context {
	if id, ok := services.RequestIDFromContext(ctx); ok {
		background = services.WithRequestID(background, id)
	}
	if id, ok := services.RecipeIDFromContext(ctx); ok {
		background = services.WithRecipeID(background, id)
	}
	return background
}

func (o *Orchestrator) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		o.logger.Debug("notification delivery failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func (o *Orchestrator) requireStore(op string) error {
	if o.store == nil {
		return services.Wrap(services.ErrConfiguration, "orchestrator", op, "local store unavailable", nil)
	}
	return nil
}

func (o *Orchestrator) requirePersistence(op string) error {
	if o.persistence == nil {
		return services.Wrap(services.ErrConfiguration, "orchestrator", op, "recipe persistence unavailable", nil)
	}
	return nil
}
