package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/userdir/internal/apperr"
	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/store"
	"github.com/isdelr/userdir/internal/validation"
)

func ptr(s string) *string { return &s }

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"gamerjofred@gmail.com", true},
		{"a@b.co", true},
		{"first.last@sub.domain.org", true},
		{"", false},
		{"plain", false},
		{"no-at.example.com", false},
		{"no@tld", false},
		{"two@@example.com", false},
		{"white space@example.com", false},
		{"user@exa mple.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validation.ValidEmail(tt.email), "email %q", tt.email)
	}
}

func TestNewUser(t *testing.T) {
	t.Run("all fields present", func(t *testing.T) {
		err := validation.NewUser(models.NewUser{Name: "Jofred", Email: "j@x.com", Password: "short"})
		assert.NoError(t, err, "password length is not enforced on creation")
	})

	for _, in := range []models.NewUser{
		{Email: "j@x.com", Password: "Password"},
		{Name: "   ", Email: "j@x.com", Password: "Password"},
		{Name: "\t\n", Email: "j@x.com", Password: "Password"},
		{Name: "Jofred", Password: "Password"},
		{Name: "Jofred", Email: "j@x.com"},
	} {
		err := validation.NewUser(in)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
		assert.Equal(t, validation.MsgRequiredFields, err.Error())
	}

	err := validation.NewUser(models.NewUser{Name: "Jofred", Email: "nope", Password: "Password"})
	assert.Equal(t, validation.MsgInvalidEmail, err.Error())
}

func TestCredentials(t *testing.T) {
	assert.NoError(t, validation.Credentials(models.Credentials{Email: "a@b.co", Password: "x"}))

	err := validation.Credentials(models.Credentials{Email: "   ", Password: "x"})
	assert.Equal(t, validation.MsgEmailRequired, err.Error())

	err = validation.Credentials(models.Credentials{Email: "a@b.co", Password: "  "})
	assert.Equal(t, validation.MsgPasswordMissing, err.Error())

	err = validation.Credentials(models.Credentials{Email: "bad", Password: "x"})
	assert.Equal(t, validation.MsgInvalidEmail, err.Error())
}

func TestParseID(t *testing.T) {
	id, err := validation.ParseID("15")
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	for _, raw := range []string{"", "abc", "0", "-3", "1.5", "99999999999999999999"} {
		_, err := validation.ParseID(raw)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "raw %q", raw)
	}
}

func TestPatch(t *testing.T) {
	t.Run("trims supplied fields", func(t *testing.T) {
		p := models.UserPatch{Name: ptr("  Ana "), Surname: ptr(" Díaz"), Email: ptr(" ana@x.com ")}
		require.NoError(t, validation.Patch(&p))
		assert.Equal(t, "Ana", *p.Name)
		assert.Equal(t, "Díaz", *p.Surname)
		assert.Equal(t, "ana@x.com", *p.Email)
	})

	t.Run("blank field names the field", func(t *testing.T) {
		p := models.UserPatch{Surname: ptr("   ")}
		err := validation.Patch(&p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'apellido'")
	})

	t.Run("short password", func(t *testing.T) {
		p := models.UserPatch{Password: ptr("1234567")}
		err := validation.Patch(&p)
		assert.Equal(t, validation.MsgPasswordTooWeak, err.Error())
	})

	t.Run("empty password is too short", func(t *testing.T) {
		p := models.UserPatch{Password: ptr("")}
		assert.Error(t, validation.Patch(&p))
	})

	t.Run("eight characters is enough", func(t *testing.T) {
		p := models.UserPatch{Password: ptr("12345678")}
		assert.NoError(t, validation.Patch(&p))
	})

	t.Run("length counts characters, not bytes", func(t *testing.T) {
		p := models.UserPatch{Password: ptr("ñññññ")}
		err := validation.Patch(&p)
		require.Error(t, err)
		assert.Equal(t, validation.MsgPasswordTooWeak, err.Error())

		p = models.UserPatch{Password: ptr("contraseña")}
		assert.NoError(t, validation.Patch(&p))
	})
}

func TestEmailChange(t *testing.T) {
	changed, err := validation.EmailChange("a@b.co", nil)
	assert.NoError(t, err)
	assert.False(t, changed)

	changed, err = validation.EmailChange("a@b.co", ptr("a@b.co"))
	assert.NoError(t, err)
	assert.False(t, changed)

	changed, err = validation.EmailChange("a@b.co", ptr("c@d.io"))
	assert.NoError(t, err)
	assert.True(t, changed)

	_, err = validation.EmailChange("a@b.co", ptr("broken"))
	assert.Equal(t, validation.MsgInvalidEmail, err.Error())
}

type finderFunc func(ctx context.Context, email string) (models.User, error)

func (f finderFunc) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return f(ctx, email)
}

func TestEnsureEmailAvailable(t *testing.T) {
	ctx := context.Background()

	free := finderFunc(func(context.Context, string) (models.User, error) { return models.User{}, store.ErrNotFound })
	assert.NoError(t, validation.EnsureEmailAvailable(ctx, free, "a@b.co"))

	taken := finderFunc(func(context.Context, string) (models.User, error) { return models.User{ID: 1}, nil })
	err := validation.EnsureEmailAvailable(ctx, taken, "a@b.co")
	assert.Equal(t, apperr.CodeConflict, apperr.Code(err))

	broken := finderFunc(func(context.Context, string) (models.User, error) { return models.User{}, errors.New("db down") })
	err = validation.EnsureEmailAvailable(ctx, broken, "a@b.co")
	assert.Equal(t, apperr.CodeInternal, apperr.Code(err))
}
