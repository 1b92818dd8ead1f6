package reward

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Rand is the injectable random source for prize selection.
// Int63n must return a uniform value in [0, n).
type Rand interface {
	Int63n(n int64) int64
}

// cryptoSource draws from crypto/rand.
type cryptoSource struct{}

func (cryptoSource) Int63n(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		panic(fmt.Sprintf("crypto rand: %v", err))
	}
	return v.Int64()
}

// CryptoRand returns a CSPRNG-backed random source.
func CryptoRand() Rand {
	return cryptoSource{}
}

// Selector performs cumulative-weight roulette selection over a Table.
type Selector struct {
	rng Rand
}

// NewSelector creates a selector with the given random source.
// Pass CryptoRand() for production use, or a fixed sequence in tests.
func NewSelector(rng Rand) *Selector {
	if rng == nil {
		rng = CryptoRand()
	}
	return &Selector{rng: rng}
}

// Select draws r uniformly in [0, totalWeight) and walks the table in order,
// subtracting each entry's weight until r goes negative; that entry wins.
// Draws landing exactly on a cumulative threshold belong to the next
// selectable entry, so zero-weight entries are never chosen.
func (s *Selector) Select(t *Table) (int, error) {
	if t == nil || t.TotalWeight() <= 0 {
		return 0, fmt.Errorf("prize selection over zero-weight table")
	}

	r := s.rng.Int63n(t.TotalWeight())
	for i, e := range t.entries {
		r -= e.Weight
		if r < 0 {
			return i, nil
		}
	}
	// unreachable for a valid draw; guard against a misbehaving Rand
	return 0, fmt.Errorf("prize selection draw out of range")
}
