package httpserver

import (
	"net/http"

	userusecase "taskaty/backend/internal/usecase/user"
)

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())
	me, err := s.users.Get(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": me})
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	var payload userusecase.ProfileInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": updated})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context(), userusecase.Filter{Role: r.URL.Query().Get("role")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  statusSuccess,
		"results": len(users),
		"data":    map[string]any{"users": users},
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.CreateInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Create(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.UpdateInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Update(r.Context(), r.PathValue("id"), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role string `json:"role"`
	}
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.SetRole(r.Context(), r.PathValue("id"), payload.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}
