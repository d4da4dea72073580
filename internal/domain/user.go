package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxUserIDLen = 128
	// MaxDisplayNameLen counts runes. It is never below MaxUserIDLen so the
	// user id fallback always fits.
	MaxDisplayNameLen = 256
)

// UserID is supplied by the upstream auth layer and trusted as given.
type UserID string

func ValidateUserID(id UserID, field string) error {
	if strings.TrimSpace(string(id)) == "" {
		return InvalidInputError(field, "is required")
	}
	if len(id) > MaxUserIDLen {
		return InvalidInputError(field, "is too long")
	}
	return nil
}

// NormalizeDisplayName trims the name and falls back to the user id. Only a
// name the caller actually sent is length checked.
func NormalizeDisplayName(name string, id UserID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return string(id), nil
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return "", InvalidInputError("display_name", "is too long")
	}
	return name, nil
}
