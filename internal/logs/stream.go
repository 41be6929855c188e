package logs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipebox/internal/api"
)

// ErrFiltersRequireAPI is returned when filters are requested but only the
// raw log file is reachable.
var ErrFiltersRequireAPI = errors.New("log filters require a running server")

// Filters narrows API streaming.
type Filters struct {
	Component     string
	RecipeID      string
	Level         string
	CorrelationID string
}

func (f Filters) empty() bool {
	return strings.TrimSpace(f.Component) == "" &&
		strings.TrimSpace(f.RecipeID) == "" &&
		strings.TrimSpace(f.Level) == "" &&
		strings.TrimSpace(f.CorrelationID) == ""
}

// StreamOptions controls Stream.
type StreamOptions struct {
	Lines   int
	Follow  bool
	Filters Filters
	// FilePath is tailed when the API is unreachable.
	FilePath string
}

// Stream emits events from the API when a server is running and falls back
// to raw lines from the log file otherwise. It reports whether anything was
// emitted.
func Stream(
	ctx context.Context,
	client *StreamClient,
	opts StreamOptions,
	onEvent func(api.LogEvent),
	onLine func(string),
) (bool, error) {
	printed, err := streamAPI(ctx, client, opts, onEvent)
	if err == nil || ctx.Err() != nil {
		return printed, nil
	}
	if !IsAPIUnavailable(err) {
		return printed, err
	}
	if !opts.Filters.empty() {
		return false, fmt.Errorf("%w: %w", ErrFiltersRequireAPI, ErrAPIUnavailable)
	}
	if strings.TrimSpace(opts.FilePath) == "" {
		return false, ErrAPIUnavailable
	}
	return streamFile(ctx, opts, onLine)
}

func streamAPI(ctx context.Context, client *StreamClient, opts StreamOptions, onEvent func(api.LogEvent)) (bool, error) {
	query := StreamQuery{
		Limit:         opts.Lines,
		Tail:          true,
		Component:     opts.Filters.Component,
		RecipeID:      opts.Filters.RecipeID,
		Level:         opts.Filters.Level,
		CorrelationID: opts.Filters.CorrelationID,
	}
	if query.Limit <= 0 {
		query.Limit = 200
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		if resp.Next > query.Since {
			query.Since = resp.Next
		}
		query.Limit = 200
		query.Tail = false
		query.Follow = true
	}
}

func streamFile(ctx context.Context, opts StreamOptions, onLine func(string)) (bool, error) {
	offset := int64(-1)
	limit := max(opts.Lines, 0)
	if limit == 0 {
		offset = 0
	}

	printed := false
	for {
		result, err := Tail(ctx, opts.FilePath, TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: opts.Follow,
			Wait:   time.Second,
		})
		if err != nil {
			if ctx.Err() != nil {
				return printed, nil
			}
			return printed, fmt.Errorf("tail logs: %w", err)
		}
		for _, line := range result.Lines {
			if onLine != nil {
				onLine(line)
			}
			printed = true
		}
		offset = result.Offset
		limit = 0
		if !opts.Follow || ctx.Err() != nil {
			return printed, nil
		}
	}
}
