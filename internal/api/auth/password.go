package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when the configured cost is zero or out of range.
const DefaultBcryptCost = 10

// passwordSpecialChars is the fixed special-character set the strength policy
// accepts. Shared with the frontend's form validation.
const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// HashPassword hashes a plaintext password with bcrypt at the given cost.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext verifies against the stored hash.
// Any mismatch or malformed hash yields false, never an error.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// MeetsPasswordPolicy is the authoritative strength check applied to every new
// password: at least 8 characters with one uppercase letter, one lowercase
// letter, one digit and one special character.
func MeetsPasswordPolicy(plaintext string) bool {
	if len(plaintext) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range plaintext {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, c):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}
