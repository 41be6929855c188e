package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipebox/internal/logging"
)

// followWait caps a single follow long poll; clients resume from Next.
const followWait = 25 * time.Second

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		s.writeJSON(w, http.StatusOK, LogStreamResponse{})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := queryFlag(query.Get("follow"))
	tail := queryFlag(query.Get("tail"))
	component := strings.TrimSpace(query.Get("component"))
	recipeID := strings.TrimSpace(query.Get("recipe"))
	level := strings.TrimSpace(query.Get("level"))
	correlationID := strings.TrimSpace(query.Get("correlation_id"))

	var (
		raw  []logging.LogEvent
		next uint64
	)
	if tail && since == 0 && !follow {
		raw, next = s.logs.Tail(limit)
	} else {
		ctx := r.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, followWait)
			defer cancel()
		}
		var err error
		raw, next, err = s.logs.Fetch(ctx, since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	events := make([]LogEvent, 0, len(raw))
	for _, evt := range raw {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		if recipeID != "" && evt.RecipeID != recipeID {
			continue
		}
		if level != "" && !strings.EqualFold(level, evt.Level) {
			continue
		}
		if correlationID != "" && evt.CorrelationID != correlationID {
			continue
		}
		events = append(events, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     evt.Timestamp,
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			RecipeID:      evt.RecipeID,
			Operation:     evt.Operation,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	s.writeJSON(w, http.StatusOK, LogStreamResponse{Events: events, Next: next})
}
