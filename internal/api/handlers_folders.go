package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"recipebox/internal/recipe"
)

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.orch.Folders(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if folders == nil {
		folders = []recipe.Folder{}
	}
	s.writeJSON(w, http.StatusOK, FolderListResponse{Folders: folders})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var input recipe.FolderInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	folder, err := s.orch.CreateFolder(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, folder)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
