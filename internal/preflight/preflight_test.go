package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"recipebox/internal/config"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type fakeUsers struct {
	user recipe.User
	err  error
}

func (f fakeUsers) CurrentUser(context.Context) (recipe.User, error) { return f.user, f.err }

type fakeBucket struct{ err error }

func (f fakeBucket) CheckBucket(context.Context) error { return f.err }
func (f fakeBucket) Bucket() string                    { return "recipes" }

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		passed bool
	}{
		{"ok", dir, true},
		{"missing", filepath.Join(dir, "nope"), false},
		{"file", file, false},
		{"blank", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tt.path)
			if result.Passed != tt.passed {
				t.Fatalf("expected passed=%v, got %+v", tt.passed, result)
			}
			if result.Detail == "" {
				t.Fatal("expected non-empty detail")
			}
		})
	}
}

func TestCheckAnalysis(t *testing.T) {
	ok := CheckAnalysis(context.Background(), fakeHealth{}, true)
	if !ok.Passed || ok.Detail != "reachable" {
		t.Fatalf("unexpected result %+v", ok)
	}
	anonymous := CheckAnalysis(context.Background(), fakeHealth{}, false)
	if !anonymous.Passed || !strings.Contains(anonymous.Detail, "without api key") {
		t.Fatalf("unexpected result %+v", anonymous)
	}
	failed := CheckAnalysis(context.Background(), fakeHealth{
		err: services.Wrap(services.ErrExternal, "analysis", "health check", "invalid key", nil),
	}, false)
	if failed.Passed || failed.Detail != "invalid key (no api key set)" {
		t.Fatalf("unexpected result %+v", failed)
	}
	timeout := CheckAnalysis(context.Background(), fakeHealth{err: context.DeadlineExceeded}, true)
	if timeout.Passed || timeout.Detail != "timed out" {
		t.Fatalf("unexpected result %+v", timeout)
	}
}

func TestCheckBackend(t *testing.T) {
	signedIn := CheckBackend(context.Background(), fakeUsers{user: recipe.User{ID: "u-1", Name: "Ada", Role: recipe.RoleAdmin}})
	if !signedIn.Passed || !strings.Contains(signedIn.Detail, "Ada") {
		t.Fatalf("unexpected result %+v", signedIn)
	}
	anonymous := CheckBackend(context.Background(), fakeUsers{
		err: services.Wrap(services.ErrValidation, "backend", "current user", "http 401", nil),
	})
	if !anonymous.Passed || anonymous.Detail != "reachable, not signed in" {
		t.Fatalf("unexpected result %+v", anonymous)
	}
	down := CheckBackend(context.Background(), fakeUsers{
		err: services.Wrap(services.ErrTransient, "backend", "current user", "request failed", errors.New("refused")),
	})
	if down.Passed {
		t.Fatalf("expected failure, got %+v", down)
	}
}

func TestCheckServerReflectsLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "recipebox.lock")
	idle := CheckServer(lockPath, "127.0.0.1:7488")
	if !idle.Passed || idle.Detail != "not running" {
		t.Fatalf("unexpected result %+v", idle)
	}

	held := flock.New(lockPath)
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	running := CheckServer(lockPath, "127.0.0.1:7488")
	if !strings.Contains(running.Detail, "running on 127.0.0.1:7488") {
		t.Fatalf("unexpected result %+v", running)
	}
}

func TestRunAllSkipsUnconfiguredFeatures(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.InboxDir = ""

	results := RunAll(context.Background(), &cfg, Targets{
		Analysis: fakeHealth{},
		Backend:  fakeUsers{},
		Images:   fakeBucket{err: errors.New("boom")},
	})
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "Data directory,Log directory,Analysis API" {
		t.Fatalf("unexpected checks: %v", names)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	cfg.Images.S3Enabled = true
	results = RunAll(context.Background(), &cfg, Targets{Images: fakeBucket{err: errors.New("boom")}})
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Image storage" {
		t.Fatalf("expected image failure, got %+v", failed)
	}
}
