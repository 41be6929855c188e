package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"recipebox/internal/logging"
	"recipebox/internal/services"
)

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, services.Wrap(services.ErrTransient, "localstore", "get", key, err)
	}
	return value, true, nil
}

// Put stores value under key. Values above the configured bound, and writes
// rejected because the disk is full, fail with services.ErrQuota.
func (s *Store) Put(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return services.Wrap(services.ErrValidation, "localstore", "put", "key required", nil)
	}
	if len(value) > s.maxValueBytes {
		return services.Wrap(services.ErrQuota, "localstore", "put",
			fmt.Sprintf("%s is %s, limit %s", key, humanize.IBytes(uint64(len(value))), humanize.IBytes(uint64(s.maxValueBytes))), nil)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO kv (key, value, size_bytes, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, size_bytes = excluded.size_bytes, updated_at = excluded.updated_at`,
		key, value, len(value), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isSQLiteFull(err) {
			return services.Wrap(services.ErrQuota, "localstore", "put", key, err)
		}
		return services.Wrap(services.ErrTransient, "localstore", "put", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return services.Wrap(services.ErrTransient, "localstore", "delete", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix and reports how many were removed.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM kv WHERE substr(key, 1, ?) = ?", len(prefix), prefix)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "localstore", "delete prefix", prefix, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Keys lists keys with the given prefix in lexical order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "localstore", "keys", prefix, err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, services.Wrap(services.ErrTransient, "localstore", "keys", prefix, err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Usage summarizes what the store holds.
type Usage struct {
	Entries int64 `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// Usage reports entry count and total value bytes.
func (s *Store) Usage(ctx context.Context) (Usage, error) {
	ctx = ensureContext(ctx)
	var usage Usage
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1), COALESCE(SUM(size_bytes), 0) FROM kv").Scan(&usage.Entries, &usage.Bytes)
	if err != nil {
		return Usage{}, services.Wrap(services.ErrTransient, "localstore", "usage", "", err)
	}
	return usage, nil
}

// GetJSON decodes the value under key into target. It reports false when the
// key is absent; undecodable values are treated as absent and removed.
func (s *Store) GetJSON(ctx context.Context, key string, target any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		logging.WarnWithContext(s.logger, "discarding undecodable cache entry", "cache_corrupt",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "cached value dropped"),
		)
		_ = s.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// PutJSON encodes value and stores it under key.
func (s *Store) PutJSON(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return services.Wrap(services.ErrValidation, "localstore", "encode", key, err)
	}
	return s.Put(ctx, key, string(encoded))
}

// putJSONWithRecovery writes value; on failure it clears key, asks shrink for
// a smaller replacement and retries exactly once.
func (s *Store) putJSONWithRecovery(ctx context.Context, key string, value any, shrink func() any) error {
	err := s.PutJSON(ctx, key, value)
	if err == nil {
		return nil
	}
	s.logger.Debug("cache write failed; clearing and retrying once", logging.String("key", key), logging.Error(err))
	if delErr := s.Delete(ctx, key); delErr != nil {
		return errors.Join(err, delErr)
	}
	if shrink != nil {
		value = shrink()
	}
	if retryErr := s.PutJSON(ctx, key, value); retryErr != nil {
		return retryErr
	}
	return nil
}
