package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrWrongPassword is returned when a password does not match its stored hash.
var ErrWrongPassword = errors.New("wrong password")

// Hasher wraps bcrypt with a configurable cost.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. A cost of 0 falls back to the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a bcrypt hash of the password.
func (h *Hasher) Hash(password string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Compare checks a password against a stored hash.
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return err
	}
	return nil
}
