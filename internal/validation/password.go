package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
	"relive", "journal", "diary",
}

// ValidatePassword validates password strength for the given account email
// Minimum 12 characters, 72 bytes maximum (bcrypt limit), no common patterns
// and no reuse of the email's local part.
func ValidatePassword(password, email string) error {
	if utf8.RuneCountInString(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 bytes")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if len(local) >= 4 && strings.Contains(lower, local) {
		return errors.New("password must not contain your email address")
	}

	return nil
}
