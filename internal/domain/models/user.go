package models

import "time"

// Role distinguishes cashiers from administrators. Admin-initiated
// operations are not bound to a billing session window.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a cashier or administrator account. Credential handling lives in
// the auth collaborator; the core only reads identity and session fields.
type User struct {
	ID            string    `bson:"_id" json:"id"`
	Username      string    `bson:"username" json:"username"`
	Email         string    `bson:"email" json:"email"`
	FirstName     string    `bson:"first_name" json:"firstName"`
	LastName      string    `bson:"last_name" json:"lastName"`
	Role          Role      `bson:"role" json:"role"`
	IsActive      bool      `bson:"is_active" json:"isActive"`
	SessionID     string    `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	SessionExpiry time.Time `bson:"session_expiry,omitempty" json:"sessionExpiry,omitempty"`
	LastLogin     time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

// Identity is the authenticated request context supplied by the auth
// collaborator. The core trusts these fields as-is.
type Identity struct {
	UserID        string
	Role          Role
	SessionID     string
	SessionExpiry time.Time
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
