package premium

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	codePrefix   = "PREM-"
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a fresh premium code such as PREM-7KQ2ZX9A.
func GenerateCode() (string, error) {
	var b strings.Builder
	b.Grow(len(codePrefix) + codeLength)
	b.WriteString(codePrefix)

	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// normalizeCode upper-cases a supplied code; ok is false when it holds
// characters outside the code alphabet.
func normalizeCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 4 || len(code) > 64 {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c != '-' && !strings.ContainsRune(codeAlphabet, rune(c)) {
			return "", false
		}
	}
	return code, true
}
