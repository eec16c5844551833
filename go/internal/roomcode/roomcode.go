// Package roomcode generates shareable room join codes.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet is the 32-symbol code alphabet: uppercase letters and digits
// with the visually ambiguous 0, O, 1 and I removed.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the number of symbols in a room code.
const Length = 6

// New returns a fresh room code. Codes are not secrets, only join handles;
// crypto/rand is used for unbiased symbol selection, not for security.
func New() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Valid reports whether s is a well-formed room code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Normalize upper-cases and trims a user-typed code. Symbols outside the
// alphabet are left for Valid to reject.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
