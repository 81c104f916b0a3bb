package domain

import "strings"

// Role names form a fixed catalog seeded by migration.
const (
	RoleAdmin              = "admin"
	RoleCollection         = "collection"
	RoleLoad               = "load"
	RoleCheck              = "check"
	RoleCreateLoadInstance = "create_ls"
	RoleCreateDataSource   = "create_ds"
)

// Role is one entry of the fixed role catalog.
type Role struct {
	RoleID      int64  `json:"role_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// User is a domain user with its assigned roles. The password hash never
// leaves the service.
type User struct {
	UID          int64  `json:"uid"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Roles        []Role `json:"roles"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	for _, role := range u.Roles {
		if role.Name == RoleAdmin {
			return true
		}
	}
	return false
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// ValidateNewUser checks the fields required to create a user.
func ValidateNewUser(name, username, password string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationFailed{Field: "name", Reason: "must not be blank"}
	}
	if strings.TrimSpace(username) == "" {
		return ValidationFailed{Field: "username", Reason: "must not be blank"}
	}
	if password == "" {
		return ValidationFailed{Field: "password", Reason: "must not be empty"}
	}
	return nil
}
