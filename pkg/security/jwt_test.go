package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeAndParseToken(t *testing.T) {
	secret := []byte("super-secret-value-for-tests")

	tok, err := MakeToken("665f1c2e9b1e8a0012345678", "admin", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "665f1c2e9b1e8a0012345678", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("secret")

	tok, err := MakeToken("u1", "user", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := MakeToken("u1", "user", []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong"))
	assert.Error(t, err)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		UserID: "u1",
		Type:   "auth",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(s, []byte("secret"))
	assert.Error(t, err)
}
