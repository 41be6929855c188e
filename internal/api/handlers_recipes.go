package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

func filterFromQuery(r *http.Request) orchestrator.Filter {
	query := r.URL.Query()
	filter := orchestrator.Filter{
		FolderID:      strings.TrimSpace(query.Get("folder")),
		Uncategorized: queryFlag(query.Get("uncategorized")),
		FavoritesOnly: queryFlag(query.Get("favorites")),
		Query:         strings.TrimSpace(query.Get("q")),
	}
	if status := strings.TrimSpace(query.Get("status")); status != "" {
		filter.Status = recipe.ParseStatus(status)
	}
	return filter
}

func queryFlag(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	listing, err := s.orch.Recipes(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	recipes := listing.Recipes
	if recipes == nil {
		recipes = []recipe.Record{}
	}
	s.writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: recipes, Cached: listing.Cached})
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var entry recipe.ManualEntry
	if err := decodeJSON(w, r, &entry); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	created, err := s.orch.SaveManualRecipe(r.Context(), entry)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, RecipeResponse{Recipe: created})
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	found, err := s.orch.Recipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecipeResponse{Recipe: found})
}

func (s *Server) handleSimilarRecipes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	similar, err := s.orch.SimilarRecipes(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SimilarListResponse{Similar: similar})
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	updated, err := s.orch.UpdateRecipe(r.Context(), recipe.Edit{
		ID:    chi.URLParam(r, "id"),
		Title: req.Title,
		Text:  req.Text,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecipeResponse{Recipe: updated})
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenRecipe(w http.ResponseWriter, r *http.Request) {
	snap, err := s.orch.OpenRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: snap})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	updated, err := s.orch.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecipeResponse{Recipe: updated})
}

func (s *Server) handleMoveRecipe(w http.ResponseWriter, r *http.Request) {
	var req folderMoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	updated, err := s.orch.MoveToFolder(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecipeResponse{Recipe: updated})
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := recipe.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != recipe.StatusApproved && status != recipe.StatusRejected {
		s.writeServiceError(w, r, services.Wrap(services.ErrValidation, "api", "approval", "status must be approved or rejected", nil))
		return
	}
	snap, err := s.orch.ApproveRecipe(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{State: snap})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.orch.AuxImages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if images == nil {
		images = []string{}
	}
	s.writeJSON(w, http.StatusOK, ImageListResponse{Images: images})
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	images, err := s.orch.AddAuxImage(r.Context(), chi.URLParam(r, "id"), req.Image)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ImageListResponse{Images: images})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	if s.community == nil {
		s.writeServiceError(w, r, errCommunityUnavailable("list comments"))
		return
	}
	comments, err := s.community.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if comments == nil {
		comments = []recipe.Comment{}
	}
	s.writeJSON(w, http.StatusOK, CommentListResponse{Comments: comments})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if s.community == nil {
		s.writeServiceError(w, r, errCommunityUnavailable("add comment"))
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	comment, err := s.community.AddComment(r.Context(), chi.URLParam(r, "id"), req.Body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.community == nil {
		s.writeServiceError(w, r, errCommunityUnavailable("list users"))
		return
	}
	users, err := s.community.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []recipe.User{}
	}
	s.writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

func errCommunityUnavailable(op string) error {
	return services.Wrap(services.ErrConfiguration, "api", op, "no recipe backend configured", nil)
}
