package models

import "time"

// User represents a user account in the directory.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Surname      *string   `json:"apellido,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch carries the fields of a partial update. Nil means "not supplied".
type UserPatch struct {
	Name     *string `json:"nombre"`
	Surname  *string `json:"apellido"`
	Email    *string `json:"email"`
	Password *string `json:"contrasena"`
}

// IsEmpty reports whether no field was supplied at all.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.Email == nil && p.Password == nil
}

// Apply merges the supplied fields onto u. The password must already be hashed.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Surname != nil {
		s := *p.Surname
		u.Surname = &s
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.PasswordHash = *p.Password
	}
}

// NewUser holds the input of registration and authenticated creation.
type NewUser struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"contrasena"`
}

// Credentials holds the input of a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"contrasena"`
}
