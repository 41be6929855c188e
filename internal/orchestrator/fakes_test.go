package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recipebox/internal/localstore"
	"recipebox/internal/notifications"
	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/analysis"
	"recipebox/internal/services/backend"
	"recipebox/internal/testsupport"
)

type rescaleCall struct {
	text     string
	from, to int
}

type fakeAnalyzer struct {
	mu            sync.Mutex
	analyzeResult analysis.Result
	rescaleResult analysis.Result
	progress      []float64
	analyzeCalls  int
	rescaleCalls  []rescaleCall
	// block, when set, holds AnalyzeImage until it is closed.
	block   chan struct{}
	entered chan struct{}
	// rescaleBlock, when set, holds Rescale until it is closed.
	rescaleBlock   chan struct{}
	rescaleEntered chan struct{}
}

func (f *fakeAnalyzer) AnalyzeImage(ctx context.Context, image string, servings int, progress analysis.ProgressReporter) analysis.Result {
	f.mu.Lock()
	f.analyzeCalls++
	block := f.block
	entered := f.entered
	steps := append([]float64(nil), f.progress...)
	result := f.analyzeResult
	f.mu.Unlock()

	for _, step := range steps {
		if progress != nil {
			progress(step)
		}
	}
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return result
}

func (f *fakeAnalyzer) Rescale(ctx context.Context, text string, from, to int) analysis.Result {
	f.mu.Lock()
	f.rescaleCalls = append(f.rescaleCalls, rescaleCall{text: text, from: from, to: to})
	block := f.rescaleBlock
	entered := f.rescaleEntered
	result := f.rescaleResult
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return result
}

func (f *fakeAnalyzer) rescales() []rescaleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rescaleCall(nil), f.rescaleCalls...)
}

// flakyPersistence wraps the local backend and can be told to fail.
type flakyPersistence struct {
	*backend.Local
	mu      sync.Mutex
	fail    error
	creates []recipe.Record
	updates map[string]backend.RecipePatch
	deleted []string
	release chan struct{}
}

func newFlakyPersistence(store *localstore.Store) *flakyPersistence {
	return &flakyPersistence{Local: backend.NewLocal(store), updates: map[string]backend.RecipePatch{}}
}

func (p *flakyPersistence) setFail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = err
}

func (p *flakyPersistence) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fail
}

func (p *flakyPersistence) CreateRecipe(ctx context.Context, r recipe.Record) (recipe.Record, error) {
	p.mu.Lock()
	release := p.release
	p.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return recipe.Record{}, ctx.Err()
		}
	}
	if err := p.failure(); err != nil {
		return recipe.Record{}, err
	}
	p.mu.Lock()
	p.creates = append(p.creates, r)
	p.mu.Unlock()
	return p.Local.CreateRecipe(ctx, r)
}

func (p *flakyPersistence) ListRecipes(ctx context.Context) ([]recipe.Record, error) {
	if err := p.failure(); err != nil {
		return nil, err
	}
	return p.Local.ListRecipes(ctx)
}

func (p *flakyPersistence) GetRecipe(ctx context.Context, id string) (recipe.Record, error) {
	if err := p.failure(); err != nil {
		return recipe.Record{}, err
	}
	return p.Local.GetRecipe(ctx, id)
}

func (p *flakyPersistence) UpdateRecipe(ctx context.Context, id string, patch backend.RecipePatch) (recipe.Record, error) {
	if err := p.failure(); err != nil {
		return recipe.Record{}, err
	}
	p.mu.Lock()
	p.updates[id] = patch
	p.mu.Unlock()
	return p.Local.UpdateRecipe(ctx, id, patch)
}

func (p *flakyPersistence) DeleteRecipe(ctx context.Context, id string) error {
	if err := p.failure(); err != nil {
		return err
	}
	p.mu.Lock()
	p.deleted = append(p.deleted, id)
	p.mu.Unlock()
	return p.Local.DeleteRecipe(ctx, id)
}

func (p *flakyPersistence) createdCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creates)
}

func (p *flakyPersistence) patchFor(id string) (backend.RecipePatch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	patch, ok := p.updates[id]
	return patch, ok
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	loads  []notifications.Payload
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.loads = append(n.loads, payload)
	return nil
}

func (n *recordingNotifier) has(event notifications.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fakeApprover struct {
	calls map[string]recipe.Status
}

func (a *fakeApprover) SetApproval(_ context.Context, id string, status recipe.Status) error {
	if a.calls == nil {
		a.calls = map[string]recipe.Status{}
	}
	a.calls[id] = status
	return nil
}

type harness struct {
	orc         *orchestrator.Orchestrator
	analyzer    *fakeAnalyzer
	persistence *flakyPersistence
	store       *localstore.Store
	notifier    *recordingNotifier
	approver    *fakeApprover
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	h := &harness{
		analyzer:    &fakeAnalyzer{},
		persistence: newFlakyPersistence(store),
		store:       store,
		notifier:    &recordingNotifier{},
		approver:    &fakeApprover{},
	}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h.orc = orchestrator.New(orchestrator.Dependencies{
		Analyzer:    h.analyzer,
		Persistence: h.persistence,
		Store:       store,
		Notifier:    h.notifier,
		Approver:    h.approver,
	}, orchestrator.WithClock(func() time.Time { return fixed }))
	t.Cleanup(h.orc.Close)
	return h
}

func successResult(text string) analysis.Result {
	return analysis.Result{Success: true, Analysis: text}
}

func failureResult(message string) analysis.Result {
	return analysis.Result{Success: false, Error: message}
}

var errBackendDown = services.Wrap(services.ErrExternal, "backend", "request", "http 502", errors.New("bad gateway"))

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
