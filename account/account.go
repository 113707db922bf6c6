// Package account holds the owner model and the placeholder credentials
// assigned to owners that are created implicitly during an import.
package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleUser is the role granted to every implicitly created owner.
const RoleUser = "USER"

const importedPasswordPrefix = "imported-"

type Owner struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// PlaceholderPassword returns a random secret nobody knows. Owners created
// with it cannot log in until their credential is reset.
func PlaceholderPassword() string {
	return importedPasswordPrefix + uuid.NewString()
}

// HashPassword returns the bcrypt hash stored for an owner.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// PlaceholderHash combines PlaceholderPassword and HashPassword.
func PlaceholderHash() (string, error) {
	return HashPassword(PlaceholderPassword())
}
