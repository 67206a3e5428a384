package domain

import "time"

type User struct {
	ID           string
	Email        string
	Name         string // display/user name
	PasswordHash string // argon2 encoded
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}
