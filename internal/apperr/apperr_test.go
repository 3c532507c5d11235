package apperr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/isdelr/userdir/internal/apperr"
)

func TestTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		status   int
		envelope string
		message  string
	}{
		{"validation", apperr.Validation("all fields are required"), apperr.CodeValidation, http.StatusBadRequest, apperr.StatusFail, "all fields are required"},
		{"conflict", apperr.Conflict("email is already in use"), apperr.CodeConflict, http.StatusConflict, apperr.StatusFail, "email is already in use"},
		{"unauthenticated", apperr.Unauthenticated("invalid credentials"), apperr.CodeUnauthenticated, http.StatusUnauthorized, apperr.StatusFail, "invalid credentials"},
		{"forbidden", apperr.Forbidden("invalid token"), apperr.CodeForbidden, http.StatusForbidden, apperr.StatusFail, "invalid token"},
		{"not found", apperr.NotFound("user not found"), apperr.CodeNotFound, http.StatusNotFound, apperr.StatusFail, "user not found"},
		{"internal", apperr.Internal("find all users", errors.New("connection refused")), apperr.CodeInternal, http.StatusInternalServerError, apperr.StatusError, "fallback"},
		{"plain error", errors.New("boom"), apperr.CodeInternal, http.StatusInternalServerError, apperr.StatusError, "fallback"},
		{"unknown oops code", oops.Code("SOMETHING_ELSE").Errorf("hidden"), apperr.CodeInternal, http.StatusInternalServerError, apperr.StatusError, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, apperr.Code(tt.err))
			assert.True(t, apperr.Is(tt.err, tt.code))
			assert.Equal(t, tt.status, apperr.HTTPStatus(tt.err))
			assert.Equal(t, tt.envelope, apperr.EnvelopeStatus(tt.err))
			assert.Equal(t, tt.message, apperr.PublicMessage(tt.err, "fallback"))
		})
	}
}

func TestIs_Nil(t *testing.T) {
	assert.False(t, apperr.Is(nil, apperr.CodeInternal))
}

func TestInternal_KeepsCauseAndContext(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Internal("insert user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert user", apperr.Context(err)["operation"])
	assert.Nil(t, apperr.Context(cause))
}
