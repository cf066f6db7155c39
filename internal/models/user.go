package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleStaff      Role = "staff"
	RoleManagement Role = "management"
)

// DefaultRole is given to auto-created and self-registered profiles.
const DefaultRole = RoleStudent

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleManagement:
		return true
	}
	return false
}

// User is an authentication identity; Profile carries the role.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	Hostel    string    `json:"hostel,omitempty"`
	Block     string    `json:"block,omitempty"`
	Room      string    `json:"room,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultProfile builds the lowest-privilege profile for a user that has none.
func DefaultProfile(userID, email string) Profile {
	name := "Student"
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}
	return Profile{ID: userID, Name: name, Email: email, Role: DefaultRole}
}
