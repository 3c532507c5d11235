package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/api/respond"
	"github.com/isdelr/userdir/internal/apperr"
	"github.com/isdelr/userdir/internal/auth"
	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/services"
)

// Fallback messages for internal failures, per operation.
const (
	msgRegisterFailed = "error registering user"
	msgLoginFailed    = "error logging in"
	msgListFailed     = "error retrieving users"
	msgCreateFailed   = "error creating user"
	msgInvalidBody    = "invalid request body"
	msgUserDeleted    = "user deleted successfully"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation(msgInvalidBody)
	}
	return nil
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload models.NewUser
	if err := decode(w, r, &payload); err != nil {
		respond.Error(w, r, err, msgRegisterFailed)
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		respond.Error(w, r, err, msgRegisterFailed)
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("User registered")
	respond.Success(w, http.StatusCreated, user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload models.Credentials
	if err := decode(w, r, &payload); err != nil {
		respond.Error(w, r, err, msgLoginFailed)
		return
	}

	token, err := h.service.Login(r.Context(), payload)
	if err != nil {
		if apperr.Is(err, apperr.CodeUnauthenticated) {
			log.Warn().Str("path", r.URL.Path).Msg("Failed authentication attempt")
		}
		respond.Error(w, r, err, msgLoginFailed)
		return
	}

	respond.JSON(w, http.StatusOK, respond.Envelope{Status: apperr.StatusSuccess, Token: token})
}

// GetAll handles the request to get all users.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		respond.Error(w, r, err, msgListFailed)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"usuarios": users})
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err, respond.MsgInternal)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"user": user})
}

// Create handles creating a user on behalf of an authenticated caller.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.NewUser
	if err := decode(w, r, &payload); err != nil {
		respond.Error(w, r, err, msgCreateFailed)
		return
	}

	user, err := h.service.Create(r.Context(), payload)
	if err != nil {
		respond.Error(w, r, err, msgCreateFailed)
		return
	}

	actor, _ := auth.SubjectFromContext(r.Context())
	log.Info().Int64("user_id", user.ID).Int64("actor_id", actor).Msg("User created")
	respond.Success(w, http.StatusCreated, map[string]any{"usuario": user})
}

// Update handles a partial update of a user's profile.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := decode(w, r, &patch); err != nil {
		respond.Error(w, r, err, respond.MsgInternal)
		return
	}

	user, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respond.Error(w, r, err, respond.MsgInternal)
		return
	}
	respond.Success(w, http.StatusOK, user)
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err, respond.MsgInternal)
		return
	}

	actor, _ := auth.SubjectFromContext(r.Context())
	log.Info().Str("user_id", id).Int64("actor_id", actor).Msg("User deleted")
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":  apperr.StatusSuccess,
		"message": msgUserDeleted,
		"data":    nil,
	})
}
