package validation

import (
	"errors"
	"unicode"
)

var (
	errPasswordShort = errors.New("password must be at least 8 characters long")
	errPasswordLong  = errors.New("password must not exceed 128 characters")
	errPasswordMixed = errors.New("password must contain at least one letter and one digit")
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// ValidatePassword enforces the account password policy: 8 to 128 bytes
// with at least one letter and one digit. Any script counts as a letter.
func ValidatePassword(password string) error {
	switch {
	case len(password) < minPasswordLen:
		return errPasswordShort
	case len(password) > maxPasswordLen:
		return errPasswordLong
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errPasswordMixed
	}
	return nil
}
