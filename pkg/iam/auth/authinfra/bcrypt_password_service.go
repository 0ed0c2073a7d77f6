package authinfra

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswordService hashes secrets with bcrypt. It backs both account
// passwords and project client secrets.
type BcryptPasswordService struct {
	cost int
}

// NewBcryptPasswordService creates a new bcrypt hasher. A non-positive cost
// falls back to the library default.
func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plain.
func (s *BcryptPasswordService) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plain matches the stored hash.
func (s *BcryptPasswordService) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
