package models

type Role string

const (
	RoleFan      Role = "fan"
	RoleMusician Role = "musician"
	RoleAdmin    Role = "admin"
)

// UserMetadata carries the profile flags the identity provider stores next
// to the account.
type UserMetadata struct {
	Name       string `json:"name,omitempty"`
	IsMusician bool   `json:"is_musician,omitempty"`
	IsAdmin    bool   `json:"is_admin,omitempty"`
	// MusicianID links a musician account to its catalog entry.
	MusicianID string `json:"musician_id,omitempty"`
}

// User is the identity of whoever is signed in to a session.
type User struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Role     Role         `json:"role,omitempty"`
	Metadata UserMetadata `json:"user_metadata"`
}

// RoleFromFlags derives the single role attribute from the legacy metadata
// flags, for accounts the provider never assigned a role to.
func RoleFromFlags(m UserMetadata) Role {
	switch {
	case m.IsAdmin:
		return RoleAdmin
	case m.IsMusician:
		return RoleMusician
	default:
		return RoleFan
	}
}
