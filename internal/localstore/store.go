package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"recipebox/internal/config"
	"recipebox/internal/logging"
)

// Store is the on-device string-keyed JSON store backed by SQLite.
type Store struct {
	db            *sql.DB
	path          string
	maxValueBytes int
	maxEntries    int
	logger        *slog.Logger
	now           func() time.Time
}

// Options bounds the store.
type Options struct {
	// MaxValueBytes is the largest single value accepted; larger writes fail with ErrQuota.
	MaxValueBytes int
	// MaxCacheEntries bounds the mirrored recipe metadata list.
	MaxCacheEntries int
	Logger          *slog.Logger
}

const (
	sqliteBusyCode          = 5
	sqliteFullCode          = 13
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the store at cfg.StorePath().
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.StorePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := NewWithDB(db, Options{
		MaxValueBytes:   cfg.Storage.MaxValueBytes,
		MaxCacheEntries: cfg.Storage.MaxCacheEntries,
		Logger:          logger,
	})
	store.path = dbPath
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already-initialized database handle. The schema is
// assumed to exist.
func NewWithDB(db *sql.DB, opts Options) *Store {
	if opts.MaxValueBytes <= 0 {
		opts.MaxValueBytes = 512 * 1024
	}
	if opts.MaxCacheEntries <= 0 {
		opts.MaxCacheEntries = 200
	}
	return &Store{
		db:            db,
		maxValueBytes: opts.MaxValueBytes,
		maxEntries:    opts.MaxCacheEntries,
		logger:        logging.NewComponentLogger(opts.Logger, "localstore"),
		now:           time.Now,
	}
}

// Path returns the database file path (empty for injected handles).
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func sqliteCode(err error) int {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code() & 0xff
	}
	return 0
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if sqliteCode(err) == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isSQLiteFull(err error) bool {
	if err == nil {
		return false
	}
	if sqliteCode(err) == sqliteFullCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_FULL") || strings.Contains(msg, "database or disk is full")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
