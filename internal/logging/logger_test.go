package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recipebox/internal/config"
	"recipebox/internal/logging"
	"recipebox/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndSizes(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRecipeID(context.Background(), "r-7")
	ctx = services.WithOperation(ctx, "rescale")
	component := logging.NewComponentLogger(logger, "orchestrator")
	logging.WithContext(ctx, component).Info("servings updated",
		logging.Int("image_bytes", 2048),
		logging.Progress(0.5),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, fragment := range []string{"orchestrator:", "[Recipe r-7 (rescale)]", "servings updated", "image_bytes=2.0 KiB", "progress=50%"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	logging.WithContext(ctx, logger).Warn("slow backend", logging.Error(errors.New("timeout")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["correlation_id"] != "req-1" {
		t.Fatalf("expected correlation id, got %v", payload["correlation_id"])
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	hub := logging.NewStreamHub(8)
	logger, err := logging.New(logging.Options{
		Format:      "json",
		OutputPaths: []string{filepath.Join(t.TempDir(), "warn.log")},
		Stream:      hub,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "cache trimmed", "cache_trim")

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	fields := events[0].Fields
	if fields[logging.FieldEventType] != "cache_trim" {
		t.Fatalf("expected event type, got %v", fields)
	}
	if fields[logging.FieldErrorHint] == "" || fields[logging.FieldImpact] == "" {
		t.Fatalf("expected default hint and impact, got %v", fields)
	}
}

func TestStreamHubFetchAndEviction(t *testing.T) {
	hub := logging.NewStreamHub(2)
	hub.Publish(logging.LogEvent{Message: "one"})
	hub.Publish(logging.LogEvent{Message: "two"})
	hub.Publish(logging.LogEvent{Message: "three"})

	events, next, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 2 || events[0].Message != "two" || events[1].Message != "three" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if next != 3 {
		t.Fatalf("expected next sequence 3, got %d", next)
	}

	events, _, err = hub.Fetch(context.Background(), next, 0, false)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no newer events, got %+v (%v)", events, err)
	}
}

func TestStreamHubFetchWaitHonoursContext(t *testing.T) {
	hub := logging.NewStreamHub(4)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 0, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestStreamHubFetchWaitWakesOnPublish(t *testing.T) {
	hub := logging.NewStreamHub(4)
	go func() {
		time.Sleep(10 * time.Millisecond)
		hub.Publish(logging.LogEvent{Message: "late"})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, _, err := hub.Fetch(ctx, 0, 0, true)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 1 || events[0].Message != "late" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestStreamHubCapturesOperation(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	hub := logging.NewStreamHub(8)

	logger, err := logging.NewFromConfig(&cfg, hub)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("analysis request completed", logging.Operation("rescale"), logging.Progress(0.4))

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Operation != "rescale" {
		t.Fatalf("expected operation rescale, got %+v", events[0])
	}
}
