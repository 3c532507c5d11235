package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/apperr"
	"github.com/isdelr/userdir/internal/auth"
	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/store"
	"github.com/isdelr/userdir/internal/validation"
)

// Messages returned to clients.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgUserNotFound       = "user not found"
	MsgPasswordTooLong    = "password must be at most 72 bytes"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in models.NewUser) (models.User, error)
	Login(ctx context.Context, in models.Credentials) (string, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, rawID string) (models.User, error)
	Create(ctx context.Context, in models.NewUser) (models.User, error)
	Update(ctx context.Context, rawID string, patch models.UserPatch) (models.User, error)
	Delete(ctx context.Context, rawID string) error
}

// TokenIssuer mints a session token for a subject.
type TokenIssuer interface {
	Issue(subjectID int64) (string, error)
}

// UserService provides business logic for user management.
type UserService struct {
	repo   store.UserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	events EventServiceProvider

	dummyOnce sync.Once
	dummy     string
}

// NewUserService creates a new UserService. events may be nil, in which case no
// activity is recorded.
func NewUserService(repo store.UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer, events EventServiceProvider) *UserService {
	return &UserService{repo: repo, hasher: hasher, tokens: tokens, events: events}
}

// Register creates an account from the public endpoint.
func (s *UserService) Register(ctx context.Context, in models.NewUser) (models.User, error) {
	user, err := s.create(ctx, in)
	if err != nil {
		return models.User{}, err
	}
	s.record(ctx, models.EventUserRegistered, models.LevelInfo, fmt.Sprintf("User '%s' registered.", user.Email), &user.ID)
	return user, nil
}

// Create creates an account on behalf of an authenticated caller. It runs the same
// pipeline as Register.
func (s *UserService) Create(ctx context.Context, in models.NewUser) (models.User, error) {
	user, err := s.create(ctx, in)
	if err != nil {
		return models.User{}, err
	}
	s.record(ctx, models.EventUserCreated, models.LevelInfo, fmt.Sprintf("User '%s' was created.", user.Email), &user.ID)
	return user, nil
}

func (s *UserService) create(ctx context.Context, in models.NewUser) (models.User, error) {
	if err := validation.NewUser(in); err != nil {
		return models.User{}, err
	}
	if err := validation.EnsureEmailAvailable(ctx, s.repo, in.Email); err != nil {
		return models.User{}, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hashed,
	}
	if err := s.repo.Insert(ctx, &user); err != nil {
		return models.User{}, s.writeError("insert user", err)
	}
	return user, nil
}

// Login verifies credentials and returns a session token. An unknown email and a
// wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, in models.Credentials) (string, error) {
	if err := validation.Credentials(in); err != nil {
		return "", err
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", apperr.Internal("find user by email", err)
		}
		// Compare against a throwaway hash so both paths cost the same.
		_, _ = s.hasher.Verify(in.Password, s.dummyHash())
		s.record(ctx, models.EventLoginFailed, models.LevelWarn, "Login attempt for an unknown account.", nil)
		return "", apperr.Unauthenticated(MsgInvalidCredentials)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return "", apperr.Internal("verify password", err)
	}
	if !ok {
		s.record(ctx, models.EventLoginFailed, models.LevelWarn, "Login attempt with a wrong password.", &user.ID)
		return "", apperr.Unauthenticated(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Internal("issue token", err)
	}
	return token, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal("find all users", err)
	}
	return users, nil
}

// Get returns the user identified by rawID.
func (s *UserService) Get(ctx context.Context, rawID string) (models.User, error) {
	id, err := validation.ParseID(rawID)
	if err != nil {
		return models.User{}, err
	}
	return s.find(ctx, id)
}

// Update merges the supplied fields onto an existing user. Fields left out of the
// patch keep their stored value.
func (s *UserService) Update(ctx context.Context, rawID string, patch models.UserPatch) (models.User, error) {
	id, err := validation.ParseID(rawID)
	if err != nil {
		return models.User{}, err
	}
	if patch.IsEmpty() {
		return models.User{}, apperr.Validation(validation.MsgEmptyUpdate)
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if err := validation.Patch(&patch); err != nil {
		return models.User{}, err
	}

	changed, err := validation.EmailChange(user.Email, patch.Email)
	if err != nil {
		return models.User{}, err
	}
	if changed {
		if err := validation.EnsureEmailAvailable(ctx, s.repo, *patch.Email); err != nil {
			return models.User{}, err
		}
	}

	if patch.Password != nil {
		hashed, err := s.hash(*patch.Password)
		if err != nil {
			return models.User{}, err
		}
		patch.Password = &hashed
	}

	patch.Apply(&user)
	if err := s.repo.Save(ctx, &user); err != nil {
		return models.User{}, s.writeError("save user", err)
	}
	s.record(ctx, models.EventUserUpdated, models.LevelInfo, fmt.Sprintf("User '%s' was updated.", user.Email), &user.ID)
	return user, nil
}

// Delete removes the user identified by rawID.
func (s *UserService) Delete(ctx context.Context, rawID string) error {
	id, err := validation.ParseID(rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return apperr.Internal("remove user", err)
	}
	s.record(ctx, models.EventUserDeleted, models.LevelWarn, fmt.Sprintf("User %d was permanently deleted.", id), &id)
	return nil
}

func (s *UserService) find(ctx context.Context, id int64) (models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, apperr.NotFound(MsgUserNotFound)
		}
		return models.User{}, apperr.Internal("find user by id", err)
	}
	return user, nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperr.Validation(MsgPasswordTooLong)
		}
		return "", apperr.Internal("hash password", err)
	}
	return hashed, nil
}

// writeError maps store write failures. A unique violation here means a concurrent
// writer won the race after the optimistic email check.
func (s *UserService) writeError(operation string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return apperr.Conflict(validation.MsgEmailInUse)
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(MsgUserNotFound)
	default:
		return apperr.Internal(operation, err)
	}
}

// record logs an activity event. Failures are logged and otherwise ignored.
func (s *UserService) record(ctx context.Context, eventType, level, message string, userID *int64) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummy
}
