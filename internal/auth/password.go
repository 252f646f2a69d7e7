package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

// ErrWeakPassword is returned when a password fails the strength rule.
var ErrWeakPassword = errors.New("password must have at least 8 characters, with upper and lower case letters, a digit and a symbol")

// ValidatePassword checks the password strength rule.
func ValidatePassword(password string) error {
	var length int
	var lower, upper, digit, symbol bool

	for _, r := range password {
		length++
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '_':
			symbol = true
		}
	}

	if length < MinPasswordLength || !lower || !upper || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
