package random

import (
	"crypto/rand"
	"math"
	"math/big"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Int63 returns a random non-negative int64, suitable for seeding a
	// deterministic engine
	Int63() int64
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Int63 returns a cryptographically random non-negative int64
func (r *CryptoRandom) Int63() int64 {
	max := new(big.Int).SetUint64(math.MaxInt64)
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0
	}
	return result.Int64()
}
