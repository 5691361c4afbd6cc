package id

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Identifier widths.
const (
	AccountNumberDigits = 8
	TransactionIDDigits = 12
)

// maxAttempts bounds the collision-retry loop in Unique.
const maxAttempts = 1000

// ErrExhausted is returned when Unique cannot find a free identifier.
var ErrExhausted = errors.New("no free identifier found")

// Generator produces zero-padded random numeric identifiers.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded from the runtime's random source.
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededGenerator returns a deterministic Generator, for tests.
func NewSeededGenerator(seed1, seed2 uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

// Numeric returns a random number in [0, 10^digits) padded to digits.
func (g *Generator) Numeric(digits int) string {
	return Format(g.rnd.Int64N(pow10(digits)), digits)
}

// Unique draws Numeric(digits) until taken reports the value as free.
func (g *Generator) Unique(digits int, taken func(string) bool) (string, error) {
	for range maxAttempts {
		candidate := g.Numeric(digits)
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%d-digit identifier after %d attempts: %w", digits, maxAttempts, ErrExhausted)
}

// AccountNumber returns an unused 8-digit account number.
func (g *Generator) AccountNumber(taken func(string) bool) (string, error) {
	return g.Unique(AccountNumberDigits, taken)
}

// TransactionID returns an unused 12-digit transaction ID.
func (g *Generator) TransactionID(taken func(string) bool) (string, error) {
	return g.Unique(TransactionIDDigits, taken)
}

// Format zero-pads n to digits, e.g. Format(42, 8) -> "00000042".
func Format(n int64, digits int) string {
	return fmt.Sprintf("%0*d", digits, n)
}

// Valid reports whether s is exactly digits ASCII decimal digits.
func Valid(s string, digits int) bool {
	if len(s) != digits {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

// ValidAccountNumber reports whether s is a well-formed account number.
func ValidAccountNumber(s string) bool {
	return Valid(s, AccountNumberDigits)
}

// ValidTransactionID reports whether s is a well-formed transaction ID.
func ValidTransactionID(s string) bool {
	return Valid(s, TransactionIDDigits)
}

func pow10(digits int) int64 {
	n := int64(1)
	for range digits {
		n *= 10
	}
	return n
}
