package models

import (
	"strings"
	"time"
)

// Role decides which circulation actions a user may take and which book fields they see.
type Role string

const (
	RoleStudent   Role = "student"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

var ValidRoles = []Role{RoleStudent, RoleLibrarian, RoleAdmin}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	for _, v := range ValidRoles {
		if v == r {
			return r, true
		}
	}
	return "", false
}

// Staff reports whether the role works the circulation desk.
func (r Role) Staff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

type User struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	Password  string    `bson:"password" json:"-"` // bcrypt hash
	Role      Role      `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
