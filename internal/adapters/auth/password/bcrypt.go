package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"zoo-management/internal/platform/sentinel"
)

// Hasher implementa users.PasswordHasher con bcrypt.
type Hasher struct {
	cost int
}

// New con cost 0 usa bcrypt.DefaultCost.
func New(cost int) Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", sentinel.Invalid("password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare devuelve false sin error si la contraseña no coincide.
func (h Hasher) Compare(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	}
	return false, fmt.Errorf("compare password: %w", err)
}
