// Package validation holds the field checks applied before any user mutation.
//
// Everything here is side-effect free except EnsureEmailAvailable, which only reads.
package validation

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/userdir/internal/apperr"
	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/store"
)

// MinPasswordLength applies to password changes made through Update.
const MinPasswordLength = 8

// Messages returned to clients.
const (
	MsgRequiredFields  = "all fields are required"
	MsgInvalidEmail    = "email address is not valid"
	MsgEmailInUse      = "email is already in use"
	MsgInvalidID       = "invalid user id"
	MsgEmptyUpdate     = "no data provided for update"
	MsgPasswordTooWeak = "password must be at least 8 characters long"
	MsgEmailRequired   = "email is required and cannot be blank"
	MsgPasswordMissing = "password is required and cannot be blank"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has a local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NewUser checks the input of registration and creation: every field present, a
// name that is not blank and a well-formed email. Password length is not checked here.
func NewUser(in models.NewUser) error {
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Password == "" {
		return apperr.Validation(MsgRequiredFields)
	}
	if !ValidEmail(in.Email) {
		return apperr.Validation(MsgInvalidEmail)
	}
	return nil
}

// Credentials checks a login attempt before any lookup happens.
func Credentials(in models.Credentials) error {
	if strings.TrimSpace(in.Email) == "" {
		return apperr.Validation(MsgEmailRequired)
	}
	if strings.TrimSpace(in.Password) == "" {
		return apperr.Validation(MsgPasswordMissing)
	}
	if !ValidEmail(in.Email) {
		return apperr.Validation(MsgInvalidEmail)
	}
	return nil
}

// ParseID accepts positive decimal integers only.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(MsgInvalidID)
	}
	return id, nil
}

// Patch normalises a partial update in place. Supplied name, surname and email are
// trimmed and must not end up blank; a supplied password must be long enough.
// Callers reject an empty patch before looking the user up.
func Patch(p *models.UserPatch) error {
	fields := []struct {
		key string
		val *string
	}{
		{"nombre", p.Name},
		{"apellido", p.Surname},
		{"email", p.Email},
	}
	for _, f := range fields {
		if f.val == nil {
			continue
		}
		*f.val = strings.TrimSpace(*f.val)
		if *f.val == "" {
			return apperr.Validation("field '" + f.key + "' cannot be blank")
		}
	}
	if p.Password != nil && utf8.RuneCountInString(*p.Password) < MinPasswordLength {
		return apperr.Validation(MsgPasswordTooWeak)
	}
	return nil
}

// EmailChange validates a new email for an existing record. Returns false when the
// email is unchanged, in which case no uniqueness check is needed.
func EmailChange(current string, next *string) (bool, error) {
	if next == nil || *next == current {
		return false, nil
	}
	if !ValidEmail(*next) {
		return false, apperr.Validation(MsgInvalidEmail)
	}
	return true, nil
}

// EmailFinder is the read side of the repository needed for uniqueness checks.
type EmailFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// EnsureEmailAvailable fails with a conflict when email already belongs to a record.
// It is an optimistic check; the store's unique constraint is the final guard.
func EnsureEmailAvailable(ctx context.Context, finder EmailFinder, email string) error {
	_, err := finder.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return apperr.Conflict(MsgEmailInUse)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return apperr.Internal("find user by email", err)
	}
}
