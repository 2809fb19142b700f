// Package proof generates the short confirmation codes an operator retypes
// to show they are physically present when a clock event is recorded.
package proof

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CodeLength is the number of characters in a confirmation code.
const CodeLength = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns a fresh random code of CodeLength characters from [A-Z0-9].
func Generate() string {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic("proof: reading random source: " + err.Error())
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code)
}

// Valid reports whether s has the shape of a confirmation code.
func Valid(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Challenge is one confirmation attempt.
type Challenge struct {
	Code string
}

// NewChallenge creates a challenge with a freshly generated code.
func NewChallenge() Challenge {
	return Challenge{Code: Generate()}
}

// Confirm reports whether the operator's input matches the code exactly.
// Only trailing line terminators are ignored; case and spaces matter.
func (c Challenge) Confirm(input string) bool {
	return c.Code != "" && strings.TrimRight(input, "\r\n") == c.Code
}
