package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"taskaty/backend/internal/apperror"

	"go.uber.org/zap"
)

const statusSuccess = "success"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data map[string]any) {
	writeJSON(w, status, map[string]any{"status": statusSuccess, "data": data})
}

// writeError is the single exit for failures: err is normalized, logged when
// unexpected and rendered in the uniform error shape.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.Normalize(err)
	if appErr.Operational() {
		s.logger.Debug("Request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code()),
		)
	} else {
		s.logger.Error("Unhandled error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(appErr.Cause()),
		)
	}
	writeJSON(w, appErr.Status(), appErr.Response(s.nowFunc(), s.development))
}

// decodeJSON reads a bounded JSON body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.Wrap(err, apperror.KindInvalidInput).WithMessage("Request body is required")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return apperror.Wrap(err, apperror.KindInvalidInput).WithMessage("Invalid JSON payload")
		}
		return err
	}
	return nil
}
