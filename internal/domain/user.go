package domain

import "time"

// User is an identity: a staff account that can authenticate. Accounts are
// soft-deleted (Active=false) and never physically removed while referenced
// by appointments or audit trails.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    int64      `json:"created_by,omitempty"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
	ModifiedBy   int64      `json:"modified_by,omitempty"`
}

// Identity is the verified caller attached to a request context by the
// authenticator. Token keeps the exact presented string for downstream
// consumers (e.g. the /me handler echoes it back).
type Identity struct {
	ID    int64
	Name  string
	Email string
	Token string
}
