package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// BcryptHasher hashes passwords with bcrypt. The digest embeds its own salt
// and cost, so raising the cost later keeps existing digests verifiable.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher for cost, clamped to bcrypt's valid range.
// A zero cost selects DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost reports the work factor applied to new hashes.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a freshly salted digest of password. bcrypt rejects inputs
// longer than 72 bytes.
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches digest. The comparison is constant
// time; a malformed digest simply does not match.
func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// NeedsRehash reports whether digest was produced with a lower cost than the
// current one, or cannot be parsed at all.
func (h *BcryptHasher) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	return err != nil || cost < h.cost
}
