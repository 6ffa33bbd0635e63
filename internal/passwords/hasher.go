// Package passwords hashes and verifies user passwords with bcrypt.
package passwords

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the bcrypt cost used in production.
const DefaultCost = bcrypt.DefaultCost

// Hasher produces salted bcrypt hashes.
type Hasher struct {
	cost int
}

// New creates a Hasher with the given bcrypt cost.
// Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a new salted hash of plaintext. Two calls with the same input yield different hashes.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *Hasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
