package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/julianstephens/hydratemate/internal/errors"
)

const (
	MinPasswordLength = 8
	MinNameLength     = 2
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks that email looks like an address
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.NewValidation("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return errors.NewValidation("email", "please enter a valid email address")
	}
	return nil
}

// ValidatePassword requires MinPasswordLength characters with at least one
// uppercase letter, one lowercase letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.NewValidation("password", "must be at least %d characters long", MinPasswordLength)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return errors.NewValidation("password", "must contain at least one uppercase letter")
	case !lower:
		return errors.NewValidation("password", "must contain at least one lowercase letter")
	case !digit:
		return errors.NewValidation("password", "must contain at least one number")
	}
	return nil
}

// ValidateName checks the display name given at sign-up
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidation("full name", "full name is required")
	}
	if len([]rune(name)) < MinNameLength {
		return errors.NewValidation("full name", "must be at least %d characters long", MinNameLength)
	}
	return nil
}

// PasswordStrength grades a password for display while it is typed
func PasswordStrength(password string) string {
	switch {
	case password == "":
		return ""
	case ValidatePassword(password) == nil:
		return "Strong"
	default:
		return "Weak"
	}
}

// Validate checks every sign-up field, email first
func (d SignUpData) Validate() error {
	if err := ValidateEmail(d.Email); err != nil {
		return err
	}
	if err := ValidatePassword(d.Password); err != nil {
		return err
	}
	return ValidateName(d.FullName)
}

// Validate checks the sign-in fields
func (d SignInData) Validate() error {
	if err := ValidateEmail(d.Email); err != nil {
		return err
	}
	if strings.TrimSpace(d.Password) == "" {
		return errors.NewValidation("password", "password is required")
	}
	return nil
}
