package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"taskaty/backend/internal/config"
	authdomain "taskaty/backend/internal/domain/auth"
	authusecase "taskaty/backend/internal/usecase/auth"
)

type ctxKeyUser struct{}

// sendSession writes the session token through the configured transport and
// replies with the signed-in user.
func (s *Server) sendSession(w http.ResponseWriter, status int, session *authusecase.Session) {
	body := map[string]any{
		"status": statusSuccess,
		"data":   map[string]any{"user": session.User},
	}
	if s.session.Transport == config.TransportBearer {
		body["token"] = session.Token
	} else {
		http.SetCookie(w, s.sessionCookie(session.Token, s.session.CookieTTL))
	}
	writeJSON(w, status, body)
}

func (s *Server) clearSession(w http.ResponseWriter) {
	if s.session.Transport == config.TransportCookie {
		http.SetCookie(w, s.sessionCookie("", -1))
	}
}

func (s *Server) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     s.session.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	} else {
		cookie.MaxAge = int(ttl / time.Second)
		cookie.Expires = s.nowFunc().Add(ttl)
	}
	return cookie
}

// sessionToken reads the token from the single transport this deployment uses.
func (s *Server) sessionToken(r *http.Request) string {
	if s.session.Transport == config.TransportBearer {
		return extractBearerToken(r.Header.Get("Authorization"))
	}
	cookie, err := r.Cookie(s.session.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.Authenticate(r.Context(), s.sessionToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// restrictTo must run inside authenticated.
func (s *Server) restrictTo(next http.HandlerFunc, roles ...authdomain.UserRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := currentUserFromContext(r.Context())
		if err := authusecase.RestrictTo(user, roles...); err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r)
	}
}

func currentUserFromContext(ctx context.Context) (*authdomain.User, bool) {
	user, ok := ctx.Value(ctxKeyUser{}).(*authdomain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
