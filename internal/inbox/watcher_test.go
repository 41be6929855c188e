package inbox_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"recipebox/internal/inbox"
	"recipebox/internal/orchestrator"
	"recipebox/internal/services"
	"recipebox/internal/testsupport"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	uris  []string
	serve []int
	fail  bool
}

func (s *recordingSubmitter) StartAnalysis(_ context.Context, uri string, servings int) (orchestrator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uris = append(s.uris, uri)
	s.serve = append(s.serve, servings)
	if s.fail {
		return orchestrator.Snapshot{}, services.Wrap(services.ErrExternal, "analysis", "analyze", "upstream down", errors.New("502"))
	}
	return orchestrator.Snapshot{}, nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uris)
}

func startWatcher(t *testing.T, dir string, submit inbox.Submitter, opts ...inbox.Option) {
	t.Helper()
	opts = append([]inbox.Option{inbox.WithSettle(20 * time.Millisecond)}, opts...)
	w, err := inbox.New(dir, submit, opts...)
	if err != nil {
		t.Fatalf("inbox.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
}

func TestWatcherAnalyzesNewImages(t *testing.T) {
	dir := t.TempDir()
	submit := &recordingSubmitter{}
	startWatcher(t, dir, submit, inbox.WithServings(6))

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(50 * time.Millisecond)
	testsupport.WritePNG(t, filepath.Join(dir, "card.png"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("write txt: %v", err)
	}

	waitForFile(t, filepath.Join(dir, "processed", "card.png"))
	if submit.count() != 1 {
		t.Fatalf("submissions = %d, want 1", submit.count())
	}
	submit.mu.Lock()
	defer submit.mu.Unlock()
	if !strings.HasPrefix(submit.uris[0], "data:image/png;base64,") {
		t.Fatalf("uri = %.40q", submit.uris[0])
	}
	if submit.serve[0] != 6 {
		t.Fatalf("servings = %d, want 6", submit.serve[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("non-image file should stay in place: %v", err)
	}
}

func TestWatcherProcessesExistingFilesAndFilesFailures(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePNG(t, filepath.Join(dir, "waiting.png"))
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	submit := &recordingSubmitter{fail: true}
	startWatcher(t, dir, submit)

	waitForFile(t, filepath.Join(dir, "failed", "waiting.png"))
	waitForFile(t, filepath.Join(dir, "failed", "broken.jpg"))
	if submit.count() != 1 {
		t.Fatalf("only the decodable image should be submitted, got %d", submit.count())
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := inbox.New("  ", &recordingSubmitter{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
