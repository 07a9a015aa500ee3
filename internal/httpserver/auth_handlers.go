package httpserver

import (
	"net/http"

	authusecase "taskaty/backend/internal/usecase/auth"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload authusecase.SignupInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Signup(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendSession(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload authusecase.LoginInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Login(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendSession(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": statusSuccess})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload authusecase.ForgotPasswordInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	message, err := s.auth.ForgotPassword(r.Context(), payload, s.resetURL(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": statusSuccess, "message": message})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload authusecase.ResetPasswordInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.ResetPassword(r.Context(), r.PathValue("resetToken"), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendSession(w, http.StatusOK, session)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUserFromContext(r.Context())

	var payload authusecase.UpdatePasswordInput
	if err := s.decodeJSON(w, r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.UpdatePassword(r.Context(), user.ID, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendSession(w, http.StatusOK, session)
}

// resetURL builds the link mailed to the user, preferring the configured
// public base URL over the request's own host.
func (s *Server) resetURL(r *http.Request) func(token string) string {
	base := s.appBaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return func(token string) string {
		return base + "/auth/reset-password/" + token
	}
}
