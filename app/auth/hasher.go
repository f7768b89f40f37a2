package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once and compared against when a login names an
// unknown email, so both branches pay for one bcrypt comparison.
const dummyPassword = "journal-dummy-password"

type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify never errors; a malformed hash simply does not match.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *BcryptHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(dummyPassword), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
