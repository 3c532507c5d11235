package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/isdelr/userdir/internal/models"
)

// MemoryUserRepository keeps users in process memory. It enforces the same unique
// email constraint as the SQL schema.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]models.User
	now    func() time.Time
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		nextID: 1,
		users:  make(map[int64]models.User),
		now:    time.Now,
	}
}

// FindAll returns every user ordered by id.
func (r *MemoryUserRepository) FindAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, clone(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// FindByID returns the user with the given id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return clone(u), nil
}

// FindByEmail returns the user owning email.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return models.User{}, ErrNotFound
}

// Insert stores u under a fresh id.
func (r *MemoryUserRepository) Insert(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, 0) {
		return ErrDuplicateEmail
	}
	now := r.now().UTC()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.nextID++
	r.users[u.ID] = clone(*u)
	return nil
}

// Save replaces an existing user.
func (r *MemoryUserRepository) Save(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return ErrDuplicateEmail
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = r.now().UTC()
	r.users[u.ID] = clone(*u)
	return nil
}

// Remove deletes the user with the given id.
func (r *MemoryUserRepository) Remove(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// Close is a no-op.
func (r *MemoryUserRepository) Close() error {
	return nil
}

func (r *MemoryUserRepository) emailTaken(email string, except int64) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u models.User) models.User {
	if u.Surname != nil {
		s := *u.Surname
		u.Surname = &s
	}
	return u
}

var _ UserRepository = (*MemoryUserRepository)(nil)
