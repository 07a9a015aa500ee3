package apperror

import (
	"fmt"
	"time"
)

const (
	StatusFail  = "fail"
	StatusError = "error"
)

// Body is the uniform wire shape of every error response.
type Body struct {
	Status string  `json:"status"`
	Error  Payload `json:"error"`
}

// Payload carries the error fields client code depends on.
type Payload struct {
	Message   string   `json:"message"`
	Type      string   `json:"type"`
	Code      string   `json:"code"`
	Details   []Detail `json:"details"`
	Timestamp string   `json:"timestamp"`
	Stack     string   `json:"stack,omitempty"`
}

// Response renders the error for a client. Non-operational errors are masked
// unless development is set, in which case the cause and its stack are shown.
func (e *Error) Response(now time.Time, development bool) Body {
	status := StatusError
	if e.Status() >= 400 && e.Status() < 500 {
		status = StatusFail
	}

	payload := Payload{
		Message:   e.message,
		Type:      e.Type(),
		Code:      e.Code(),
		Details:   e.Details(),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
	if payload.Details == nil {
		payload.Details = []Detail{}
	}

	if !e.Operational() && !development {
		payload.Message = definitions[KindInternal].message
		payload.Details = []Detail{}
	}
	if development && e.cause != nil {
		if !e.Operational() {
			payload.Message = e.cause.Error()
		}
		payload.Stack = fmt.Sprintf("%+v", e.cause)
	}

	return Body{Status: status, Error: payload}
}
