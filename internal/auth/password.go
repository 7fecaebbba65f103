package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// prehashKey separates the bcrypt input from any plain SHA-256 digest of a password.
var prehashKey = []byte("event-service/bcrypt-prehash/v1")

// ErrHashing reports an internal hashing failure or a corrupt stored hash.
var ErrHashing = errors.New("password hashing failed")

// Hasher hashes and verifies passwords with bcrypt. It is immutable and safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, falling back to DefaultBcryptCost when cost <= 0.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password. Every call yields a different value.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prepare(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hashed. A mismatch is (false, nil); only a
// structurally corrupt hash yields an error.
func (h *Hasher) Verify(password, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), prepare(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrHashing, err)
	}
}

// prepare maps every password to a fixed-size bcrypt input. All inputs take the same path,
// so no password can collide with the pre-hash of another, and bytes past bcrypt's 72-byte
// window still count.
func prepare(password string) []byte {
	mac := hmac.New(sha256.New, prehashKey)
	mac.Write([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
