package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret_Deterministic(t *testing.T) {
	h1 := HashSecret("123456")
	h2 := HashSecret("123456")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.Equal(t, strings.ToLower(h1), h1)
	assert.NotEqual(t, h1, HashSecret("654321"))
}

func TestSecretMatches(t *testing.T) {
	digest := HashSecret("042917")

	assert.True(t, SecretMatches("042917", digest))
	assert.True(t, SecretMatches("042917", strings.ToUpper(digest)))
	assert.False(t, SecretMatches("042918", digest))
	assert.False(t, SecretMatches("", digest))
	assert.False(t, SecretMatches("042917", ""))
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(DefaultTokenBytes)
	require.NoError(t, err)

	assert.Len(t, tok, 64)
	assert.True(t, ValidTokenFormat(tok))

	other, err := GenerateToken(0)
	require.NoError(t, err)
	assert.Len(t, other, 64)
	assert.NotEqual(t, tok, other)
}

func TestGenerateNumericCode(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := GenerateNumericCode(length)
		require.NoError(t, err)
		require.Len(t, code, length)

		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non digit %q in %q", c, code)
		}
	}

	_, err := GenerateNumericCode(19)
	assert.Error(t, err)
}

func TestGenerateNumericCode_KeepsLeadingZeros(t *testing.T) {
	sawLeadingZero := false

	for range 2000 {
		code, err := GenerateNumericCode(2)
		require.NoError(t, err)
		require.Len(t, code, 2)

		if code[0] == '0' {
			sawLeadingZero = true
		}
	}

	assert.True(t, sawLeadingZero)
}

func TestNormalizeToken(t *testing.T) {
	tok, err := GenerateToken(DefaultTokenBytes)
	require.NoError(t, err)

	dirty := "  " + tok[:10] + "\u200b" + tok[10:30] + "\n" + tok[30:] + "\ufeff "

	assert.Equal(t, tok, NormalizeToken(dirty))
}

func TestValidTokenFormat(t *testing.T) {
	assert.False(t, ValidTokenFormat(""))
	assert.False(t, ValidTokenFormat(strings.Repeat("a", 63)))
	assert.False(t, ValidTokenFormat(strings.Repeat("g", 64)))
	assert.True(t, ValidTokenFormat(strings.Repeat("A", 64)))
}
