package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of portal roles.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// ParseRole normalizes s and rejects anything outside the two roles.
// An empty string is a patient.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (u *User) IsDoctor() bool {
	return u != nil && u.Role == RoleDoctor
}

func (u *User) IsPatient() bool {
	return u != nil && u.Role == RolePatient
}

// Contact is the public view of a user shown in pickers and chat lists.
type Contact struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u *User) Contact() Contact {
	return Contact{ID: u.ID, Username: u.Username, Role: u.Role}
}
