package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"recipebox/internal/logging"
	"recipebox/internal/notifications"
	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

// Notices exposes the toast history.
type Notices interface {
	Recent(limit int) []notifications.Toast
	Since(id uint64) []notifications.Toast
}

// Community covers the multi-user endpoints that only a remote backend offers.
type Community interface {
	ListComments(ctx context.Context, recipeID string) ([]recipe.Comment, error)
	AddComment(ctx context.Context, recipeID, body string) (recipe.Comment, error)
	ListUsers(ctx context.Context) ([]recipe.User, error)
}

// Options configures a Server.
type Options struct {
	Bind         string
	Token        string
	Orchestrator *orchestrator.Orchestrator
	Notices      Notices
	Community    Community
	Logs         *logging.StreamHub
	Logger       *slog.Logger
	// WriteTimeout bounds ordinary responses; zero means 30s.
	WriteTimeout time.Duration
	// SlowWriteTimeout bounds analyze, servings and log long polls, which
	// wait on the analysis service. Zero disables the deadline for them.
	SlowWriteTimeout time.Duration
}

const defaultWriteTimeout = 30 * time.Second

// Server is the HTTP front of the orchestrator.
type Server struct {
	bind      string
	token     string
	orch      *orchestrator.Orchestrator
	notices   Notices
	community Community
	logs      *logging.StreamHub
	logger    *slog.Logger
	slowWrite time.Duration

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds the router. It returns an error when no orchestrator is given.
func New(opts Options) (*Server, error) {
	if opts.Orchestrator == nil {
		return nil, errors.New("api: orchestrator required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:      strings.TrimSpace(opts.Bind),
		token:     strings.TrimSpace(opts.Token),
		orch:      opts.Orchestrator,
		notices:   opts.Notices,
		community: opts.Community,
		logs:      opts.Logs,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		slowWrite: opts.SlowWriteTimeout,
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID)
	r.Use(s.requestLog)
	r.Use(bearerAuth(s.token))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/view", s.handleChangeView)
		r.Post("/back", s.handleBack)
		r.With(s.slowWrites).Post("/analyze", s.handleAnalyze)
		r.With(s.slowWrites).Post("/servings", s.handleServings)
		r.Post("/reset", s.handleReset)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handleListRecipes)
			r.Post("/", s.handleCreateRecipe)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecipe)
				r.Patch("/", s.handleUpdateRecipe)
				r.Delete("/", s.handleDeleteRecipe)
				r.Post("/open", s.handleOpenRecipe)
				r.Post("/favorite", s.handleToggleFavorite)
				r.Post("/folder", s.handleMoveRecipe)
				r.Post("/approval", s.handleApproval)
				r.Get("/images", s.handleListImages)
				r.Post("/images", s.handleAddImage)
				r.Get("/comments", s.handleListComments)
				r.Post("/comments", s.handleAddComment)
				r.Get("/similar", s.handleSimilarRecipes)
			})
		})

		r.Get("/folders", s.handleListFolders)
		r.Post("/folders", s.handleCreateFolder)
		r.Delete("/folders/{id}", s.handleDeleteFolder)

		r.Get("/users", s.handleListUsers)
		r.Get("/notifications", s.handleNotifications)
		r.With(s.slowWrites).Get("/logs", s.handleLogs)
	})
	return r
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr reports the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.bind == "" {
		return errors.New("api: bind address required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error to its status and user-facing text.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeError(w, status, services.UserMessage(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(target); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode", "invalid request body", err)
	}
	return nil
}
