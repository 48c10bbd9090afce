package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastArgon() *ArgonHash {
	a := New()
	a.Memory = 1024
	a.Iterations = 1
	return a
}

func TestArgon_RoundTrip(t *testing.T) {
	a := fastArgon()

	hash, err := a.GenerateFromPassword("Secret123")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := a.VerifyPasswd("Secret123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("Secret124", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, a.NeedsRehash(hash))
}

func TestArgon_LegacyBcrypt(t *testing.T) {
	a := fastArgon()

	legacy, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := a.VerifyPasswd("Secret123", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("wrong", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, a.NeedsRehash(string(legacy)))
}

func TestArgon_InvalidHash(t *testing.T) {
	_, err := fastArgon().VerifyPasswd("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
