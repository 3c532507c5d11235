// Package respond writes the uniform {status, data|message} JSON envelope.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/apperr"
)

// MsgInternal is the generic message for unexpected failures.
const MsgInternal = "internal server error"

// Envelope is the body of every response.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Success writes a success envelope around data.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Status: apperr.StatusSuccess, Data: data})
}

// Fail writes a fail envelope with a message.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Status: apperr.StatusFail, Message: msg})
}

// Error renders err according to its taxonomy code. Internal errors are logged with
// their context and answered with fallback instead of their detail.
func Error(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Fields(apperr.Context(err)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg(fallback)
	}
	JSON(w, status, Envelope{
		Status:  apperr.EnvelopeStatus(err),
		Message: apperr.PublicMessage(err, fallback),
	})
}

// GateError adapts Error to the auth gate's rejection hook.
func GateError(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, err, MsgInternal)
}
