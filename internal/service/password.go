package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword returns a bcrypt hash of the plaintext password. The plaintext
// is never stored.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// verifyPassword checks a plaintext password against a stored bcrypt hash.
// bcrypt's comparison is constant-time.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
