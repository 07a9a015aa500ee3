package httpserver

import (
	"net/http"

	projectusecase "taskaty/backend/internal/usecase/project"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	result, err := s.projects.List(r.Context(), user.ID, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]any, 0, len(result.Projects))
	for _, p := range result.Projects {
		items = append(items, projectusecase.Select(p, result.Fields))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  statusSuccess,
		"results": len(items),
		"page":    result.Page,
		"limit":   result.Limit,
		"data":    map[string]any{"projects": items},
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	var payload projectusecase.CreateInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	project, err := s.projects.Create(r.Context(), user.ID, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"project": project})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	project, err := s.projects.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"project": project})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	var payload projectusecase.UpdateInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	project, err := s.projects.Update(r.Context(), user.ID, r.PathValue("id"), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"project": project})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	if err := s.projects.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
