package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/apperr"
)

// Gate rejection messages.
const (
	MsgTokenMissing = "access denied: no token provided"
	MsgTokenInvalid = "invalid token"
)

type contextKey string

// subjectKey is the context key for the authenticated subject id.
const subjectKey = contextKey("subject")

// WithSubject returns a copy of ctx carrying the subject id.
func WithSubject(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, subjectKey, id)
}

// SubjectFromContext returns the subject id stored by Gate.
func SubjectFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(subjectKey).(int64)
	return id, ok
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Gate creates a middleware for protecting routes. A missing token is answered with
// 401, an invalid or expired one with 403. The subject is trusted as asserted by the
// token and is not looked up in the store.
func Gate(verifier TokenVerifier, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := BearerToken(r)
			if tokenStr == "" {
				onError(w, r, apperr.Unauthenticated(MsgTokenMissing))
				return
			}

			subject, err := verifier.Verify(tokenStr)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected auth token")
				onError(w, r, apperr.Forbidden(MsgTokenInvalid))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}
