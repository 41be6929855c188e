package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"recipebox/internal/logging"
	"recipebox/internal/orchestrator"
	"recipebox/internal/services"
	"recipebox/internal/services/imagestore"
)

const (
	processedDir = "processed"
	failedDir    = "failed"

	defaultSettle = 750 * time.Millisecond
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif"}

// Submitter starts an analysis for an image data URI.
type Submitter interface {
	StartAnalysis(ctx context.Context, imageDataURI string, servings int) (orchestrator.Snapshot, error)
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logging.NewComponentLogger(logger, "inbox")
		}
	}
}

// WithSettle overrides how long a file must stay unchanged before it is read.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithServings sets the servings requested for every analysis. Zero uses the
// remembered preference.
func WithServings(n int) Option {
	return func(w *Watcher) { w.servings = n }
}

// Watcher feeds files dropped into a directory to a Submitter.
type Watcher struct {
	dir      string
	submit   Submitter
	logger   *slog.Logger
	settle   time.Duration
	servings int

	mu      sync.Mutex
	pending map[string]*time.Timer
	queued  map[string]bool
	jobs    chan string
	done    <-chan struct{}
}

// New constructs a watcher for dir.
func New(dir string, submit Submitter, opts ...Option) (*Watcher, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "inbox", "new watcher", "inbox directory not configured", nil)
	}
	if submit == nil {
		return nil, errors.New("inbox: submitter required")
	}
	w := &Watcher{
		dir:     dir,
		submit:  submit,
		logger:  logging.NewComponentLogger(nil, "inbox"),
		settle:  defaultSettle,
		pending: make(map[string]*time.Timer),
		queued:  make(map[string]bool),
		jobs:    make(chan string, 64),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the directory until ctx ends. Files already present when Run
// starts are processed first.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{"", processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create inbox directory: %w", err)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.mu.Lock()
	w.done = ctx.Done()
	w.mu.Unlock()
	w.logger.Info("watching inbox", logging.String("dir", w.dir))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()

	if err := w.scanExisting(); err != nil {
		w.logger.Warn("inbox scan failed", logging.Error(err))
	}

	defer func() {
		w.stopTimers()
		wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "inbox watcher error", "inbox_watch_error", logging.Error(err))
		}
	}
}

func (w *Watcher) scanExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.schedule(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	if !isImage(path) || filepath.Dir(path) != filepath.Clean(w.dir) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.queued[path] {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() { w.enqueue(path) })
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	if _, ok := w.pending[path]; !ok {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.queued[path] = true
	done := w.done
	w.mu.Unlock()
	select {
	case w.jobs <- path:
	case <-done:
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.jobs:
			w.process(ctx, path)
			w.mu.Lock()
			delete(w.queued, path)
			w.mu.Unlock()
		}
	}
}

// process analyzes one file and files it under processed/ or failed/.
func (w *Watcher) process(ctx context.Context, path string) {
	logger := w.logger.With(logging.String("file", filepath.Base(path)))
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("inbox read failed", logging.Error(err))
		}
		return
	}
	uri, err := imagestore.EncodeDataURI(data)
	if err == nil {
		_, err = w.submit.StartAnalysis(ctx, uri, w.servings)
	}
	target := processedDir
	if err != nil {
		target = failedDir
		logging.WarnWithContext(logger, "inbox analysis failed", "inbox_analysis_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "file moved to "+failedDir),
		)
	} else {
		logger.Info("inbox file analyzed")
	}
	if moveErr := os.Rename(path, filepath.Join(w.dir, target, filepath.Base(path))); moveErr != nil {
		logger.Warn("inbox move failed", logging.Error(moveErr))
	}
}

func isImage(path string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path)))
}
