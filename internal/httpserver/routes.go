package httpserver

import (
	"net/http"

	"taskaty/backend/internal/apperror"
	authdomain "taskaty/backend/internal/domain/auth"
)

func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	s.router.HandleFunc("POST /auth/signup", s.handleSignup)
	s.router.HandleFunc("POST /auth/login", s.handleLogin)
	s.router.Handle("POST /auth/logout", s.authenticated(s.handleLogout))
	s.router.HandleFunc("POST /auth/forgot-password", s.handleForgotPassword)
	s.router.HandleFunc("POST /auth/reset-password/{resetToken}", s.handleResetPassword)
	s.router.Handle("POST /auth/update-password", s.authenticated(s.handleUpdatePassword))

	s.router.Handle("GET /users/me", s.authenticated(s.handleGetMe))
	s.router.Handle("PATCH /users/me", s.authenticated(s.handleUpdateMe))

	admin := func(h http.HandlerFunc) http.Handler {
		return s.authenticated(s.restrictTo(h, authdomain.RoleAdmin))
	}
	s.router.Handle("GET /admin/users", admin(s.handleListUsers))
	s.router.Handle("POST /admin/users", admin(s.handleCreateUser))
	s.router.Handle("GET /admin/users/{id}", admin(s.handleGetUser))
	s.router.Handle("PATCH /admin/users/{id}", admin(s.handleUpdateUser))
	s.router.Handle("DELETE /admin/users/{id}", admin(s.handleDeleteUser))
	s.router.Handle("PUT /admin/users/{id}/role", admin(s.handleSetUserRole))

	s.router.Handle("GET /projects", s.authenticated(s.handleListProjects))
	s.router.Handle("POST /projects", s.authenticated(s.handleCreateProject))
	s.router.Handle("GET /projects/{id}", s.authenticated(s.handleGetProject))
	s.router.Handle("PATCH /projects/{id}", s.authenticated(s.handleUpdateProject))
	s.router.Handle("DELETE /projects/{id}", s.authenticated(s.handleDeleteProject))

	// Unknown paths and unsupported methods on known paths both land here.
	s.router.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, apperror.New(apperror.KindRouteNotFound,
		apperror.Detail{Field: "method", Value: r.Method},
		apperror.Detail{Field: "url", Value: r.URL.RequestURI()},
	).WithMessage("Can't find %s %s on this server", r.Method, r.URL.Path))
}
