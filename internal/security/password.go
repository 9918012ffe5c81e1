package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"go-auth-service/internal/model"
)

const DefaultBcryptCost = 10

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &PasswordHasher{cost: cost}, nil
}

// Hash returns a salted bcrypt digest. Identical inputs yield different digests.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", model.ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A wrong password is (false, nil);
// only a digest that cannot be parsed returns an error.
func (h *PasswordHasher) Verify(plaintext string, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", model.ErrMalformedDigest, err)
	}
}
