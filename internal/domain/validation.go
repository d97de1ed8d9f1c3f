package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidCurrency = fmt.Errorf("%w: invalid currency code", ErrValidation)
	ErrInvalidEmail    = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrInvalidUsername = fmt.Errorf("%w: invalid username", ErrValidation)
	ErrInvalidPhone    = fmt.Errorf("%w: invalid phone number", ErrValidation)
	ErrPasswordTooWeak = fmt.Errorf("%w: password does not meet requirements", ErrValidation)
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 255
	MinUsernameLength    = 3
	MaxUsernameLength    = 50
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	MaxIdentifierLength  = 255
)

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex     = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	phoneRegex        = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	upperRegex        = regexp.MustCompile(`[A-Z]`)
	lowerRegex        = regexp.MustCompile(`[a-z]`)
	digitRegex        = regexp.MustCompile(`[0-9]`)
)

// ValidateCurrencyCode validates a three letter upper case currency code.
func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q must be three upper case letters", ErrInvalidCurrency, code)
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if len(email) > MaxNameLength || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateUsername validates a login name.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: only letters, digits, '.', '_' and '-' are allowed", ErrInvalidUsername)
	}
	return nil
}

// ValidatePhone validates an optional phone number.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	if !upperRegex.MatchString(password) || !lowerRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidateDescription trims and bounds a free-text transfer description.
func ValidateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", fmt.Errorf("%w: description exceeds %d characters", ErrValidation, MaxDescriptionLength)
	}
	return description, nil
}

// ValidateIdentifier validates a receiver identifier (username or email).
func ValidateIdentifier(identifier string) error {
	if identifier == "" || len(identifier) > MaxIdentifierLength {
		return fmt.Errorf("%w: identifier must be 1-%d characters", ErrValidation, MaxIdentifierLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
