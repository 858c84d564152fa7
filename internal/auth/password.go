package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the account data was originally
// hashed with. Raising it only affects newly written hashes.
const bcryptCost = 10

// ErrHashing is returned when a password cannot be hashed or a stored
// hash is malformed. It signals an infrastructure fault, not a mismatch.
var ErrHashing = errors.New("password hashing failed")

// HashPassword derives a salted bcrypt hash from the raw password.
func HashPassword(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty password", ErrHashing)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether raw matches the stored bcrypt hash.
// A mismatch is not an error; a malformed stored hash is ErrHashing.
func VerifyPassword(raw, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(raw))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrHashing, err)
}
