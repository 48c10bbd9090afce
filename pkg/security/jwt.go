package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("authorization token invalid")

// Claims carried by auth tokens
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// MakeToken signs an HS256 auth token for userID valid for ttl
func MakeToken(userID, role string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		Role:   role,
		Type:   "auth",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return t.SignedString(secret)
}

// ParseToken validates tokenStr and returns its claims. Expired tokens yield
// an error wrapping jwt.ErrTokenExpired.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.UserID == "" || claims.Type != "auth" {
		return nil, ErrTokenInvalid
	}

	return &claims, nil
}
