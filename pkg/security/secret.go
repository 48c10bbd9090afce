package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"
	"strings"
	"unicode"
)

const (
	// DefaultTokenBytes produces 64 hex characters once encoded
	DefaultTokenBytes = 32
	// DefaultCodeLength is the number of digits in an OTP code
	DefaultCodeLength = 6
)

var tokenFormat = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// HashSecret returns the lowercase hex SHA-256 digest of s. Used for both
// link tokens and OTP codes, only the digest is ever persisted.
func HashSecret(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SecretMatches re-hashes plain and compares it with digest in constant time
func SecretMatches(plain, digest string) bool {
	if plain == "" || digest == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(HashSecret(plain)), []byte(strings.ToLower(digest))) == 1
}

// GenerateToken returns n random bytes hex encoded
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}

	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// GenerateNumericCode returns a uniformly random decimal string of exactly
// length digits. Leading zeros are kept.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	if length > 18 {
		return "", errors.New("code length too large")
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	s := n.String()
	if len(s) < length {
		s = strings.Repeat("0", length-len(s)) + s
	}

	return s, nil
}

// NormalizeToken strips whitespace and zero-width characters that mail
// clients like to inject into copied links
func NormalizeToken(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}

		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, raw)
}

// ValidTokenFormat reports whether s looks like a token made by GenerateToken
// with the default size
func ValidTokenFormat(s string) bool {
	return tokenFormat.MatchString(s)
}
