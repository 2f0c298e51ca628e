// Package identity implements bearer-token authentication for the gateway:
// token verification against the identity provider, profile resolution
// against the user directory, caching of verified identities, and the
// role hierarchy used for authorization decisions.
package identity

import "time"

// Role is a user's position in the organization hierarchy
type Role string

// Roles in ascending order of authority
const (
	RoleBDE     Role = "BDE"
	RoleAE      Role = "AE"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Status is a user's account lifecycle state
type Status string

// Account statuses
const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusOnLeave  Status = "ON_LEAVE"
)

// Valid reports whether the role is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleBDE, RoleAE, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Valid reports whether the status is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOnLeave:
		return true
	}
	return false
}

// Identity is the authenticated caller attached to a request after the
// admission pipeline accepts it. It is also the value cached per token.
type Identity struct {
	Subject    string    `json:"subject"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Status     Status    `json:"status"`
	Territory  string    `json:"territory,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`
}

// UserRecord is a user profile as held by the directory
type UserRecord struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Status     Status     `json:"status"`
	Territory  string     `json:"territory,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// UserUpdate is a partial profile update; nil fields are left unchanged
type UserUpdate struct {
	Name      *string `json:"name,omitempty"`
	Territory *string `json:"territory,omitempty"`
	Role      *Role   `json:"role,omitempty"`
	Status    *Status `json:"status,omitempty"`
}

// NewUser is the payload for directory user creation
type NewUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Territory string `json:"territory,omitempty"`
}

// identityFromRecord builds the cacheable identity view of a directory record
func identityFromRecord(rec *UserRecord, verifiedAt time.Time) *Identity {
	return &Identity{
		Subject:    rec.ID,
		Email:      rec.Email,
		Name:       rec.Name,
		Role:       rec.Role,
		Status:     rec.Status,
		Territory:  rec.Territory,
		VerifiedAt: verifiedAt,
	}
}
