package domain

import (
	"net/mail"
	"strings"
	"time"
)

type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// NormalizeEmail trims and lowercases an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks email syntax and display name presence.
func (u *User) Validate() error {
	if u.Email == "" {
		return Violation("email is required")
	}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return Violation("invalid email %q", u.Email)
	}
	if strings.TrimSpace(u.DisplayName) == "" {
		return Violation("display name is required")
	}
	return nil
}
