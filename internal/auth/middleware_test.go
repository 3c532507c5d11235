package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/userdir/internal/apperr"
)

func recordGate(t *testing.T, verifier TokenVerifier, header string) (*httptest.ResponseRecorder, int64, bool) {
	t.Helper()

	var (
		gotID  int64
		gotOK  bool
		called bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotID, gotOK = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		w.WriteHeader(apperr.HTTPStatus(err))
	}

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Gate(verifier, onError)(next).ServeHTTP(rec, req)
	if !called {
		return rec, 0, false
	}
	return rec, gotID, gotOK
}

func TestGate(t *testing.T) {
	issuer := NewTokenIssuer([]byte("gate-secret"), time.Hour)
	valid, err := issuer.Issue(11)
	require.NoError(t, err)

	expiredIssuer := NewTokenIssuer([]byte("gate-secret"), time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expired, err := expiredIssuer.Issue(11)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     int64
	}{
		{"missing header", "", http.StatusUnauthorized, 0},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, 0},
		{"other scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"garbage token", "Bearer garbage", http.StatusForbidden, 0},
		{"expired token", "Bearer " + expired, http.StatusForbidden, 0},
		{"valid token", "Bearer " + valid, http.StatusNoContent, 11},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, id, ok := recordGate(t, issuer, tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantID != 0 {
				assert.True(t, ok)
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

type verifierFunc func(string) (int64, error)

func (f verifierFunc) Verify(tok string) (int64, error) { return f(tok) }

func TestGate_DoesNotConsultStore(t *testing.T) {
	// The gate trusts whatever subject the verifier reports.
	v := verifierFunc(func(string) (int64, error) { return 999, nil })
	rec, id, ok := recordGate(t, v, "Bearer anything")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, ok)
	assert.Equal(t, int64(999), id)
}

func TestGate_VerifierErrorIsForbidden(t *testing.T) {
	v := verifierFunc(func(string) (int64, error) { return 0, errors.New("boom") })
	rec, _, _ := recordGate(t, v, "Bearer x")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubjectFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := SubjectFromContext(req.Context())
	assert.False(t, ok)
}
