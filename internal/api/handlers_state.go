package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"recipebox/internal/notifications"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/imagestore"
)

const (
	maxJSONBody      = 16 << 20
	maxMultipartBody = imagestore.MaxImageBytes + 1<<20
)

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, StateResponse{State: s.orch.Snapshot()})
}

func (s *Server) handleChangeView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	view, err := recipe.ParseView(req.View)
	if err == nil {
		err = s.orch.ChangeView(view)
	}
	if err != nil {
		s.writeServiceError(w, r, services.Wrap(services.ErrValidation, "api", "change view", err.Error(), nil))
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: s.orch.Snapshot()})
}

func (s *Server) handleBack(w http.ResponseWriter, _ *http.Request) {
	s.orch.GoBack()
	s.writeJSON(w, http.StatusOK, StateResponse{State: s.orch.Snapshot()})
}

// handleAnalyze accepts either JSON {"image": dataURI, "servings": n} or a
// multipart form with an "image" file and optional "servings" field.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	image, servings, err := s.readAnalyzeRequest(w, r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	snap, err := s.orch.StartAnalysis(r.Context(), image, servings)
	if err != nil {
		status := services.HTTPStatus(err)
		s.writeJSON(w, status, StateResponse{State: snap, Error: services.UserMessage(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: snap})
}

func (s *Server) readAnalyzeRequest(w http.ResponseWriter, r *http.Request) (string, int, error) {
	const op = "read analyze request"
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		var req analyzeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return "", 0, err
		}
		return req.Image, req.Servings, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		return "", 0, services.Wrap(services.ErrValidation, "api", op, "invalid multipart form", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return "", 0, services.Wrap(services.ErrValidation, "api", op, "image file required", err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, imagestore.MaxImageBytes+1))
	if err != nil {
		return "", 0, services.Wrap(services.ErrValidation, "api", op, "read image", err)
	}
	uri, err := imagestore.EncodeDataURI(data)
	if err != nil {
		return "", 0, err
	}
	servings := 0
	if raw := strings.TrimSpace(r.FormValue("servings")); raw != "" {
		servings, err = strconv.Atoi(raw)
		if err != nil {
			return "", 0, services.Wrap(services.ErrValidation, "api", op, "servings must be a number", err)
		}
	}
	return uri, servings, nil
}

func (s *Server) handleServings(w http.ResponseWriter, r *http.Request) {
	var req servingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	snap, err := s.orch.RequestServingsRescale(r.Context(), req.Servings)
	if err != nil {
		s.writeJSON(w, services.HTTPStatus(err), StateResponse{State: snap, Error: services.UserMessage(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: snap})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, StateResponse{State: s.orch.ResetForNewRecipe()})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notices == nil {
		s.writeJSON(w, http.StatusOK, NotificationsResponse{})
		return
	}
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	var toasts []notifications.Toast
	if since == 0 {
		toasts = s.notices.Recent(limit)
	} else {
		toasts = s.notices.Since(since)
		if limit > 0 && len(toasts) > limit {
			toasts = toasts[len(toasts)-limit:]
		}
	}
	next := since
	for _, toast := range toasts {
		next = max(next, toast.ID)
	}
	s.writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: toasts, Next: next})
}
