package model

import "time"

// Roles assignable to a user. Registration always starts at RoleCustomer;
// only an admin can promote an account.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

// ValidRole reports whether r is one of the known role names.
func ValidRole(r string) bool {
	return r == RoleCustomer || r == RoleOwner || r == RoleAdmin
}

// User mirrors the `users` table. PasswordHash never leaves the server;
// handlers respond with PublicUser instead.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized projection of a User returned by the API.
type PublicUser struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public returns the sanitized view of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Session models a row of the `sessions` table: one outstanding refresh
// token for one device. Only the bcrypt hash of the token is stored.
// Rows are never updated in place; rotation deletes the matched row and
// inserts a new one.
type Session struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}
