// Package auth holds registration, login and the email verification and
// password reset flows
package auth

import (
	"net/http"
	"strconv"
	"time"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

var (
	ErrInvalidCredentials = apperr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	ErrAlreadyVerified    = apperr.New(http.StatusBadRequest, "ALREADY_VERIFIED", "Email is already verified")
	ErrChallengeDisabled  = apperr.New(http.StatusServiceUnavailable, "CHALLENGE_DISABLED", "This feature is currently disabled")
	ErrMailFailed         = apperr.New(http.StatusBadGateway, "MAIL_FAILED", "Failed to send email, please try again")
)

type session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// startSession signs a token for u and sets it as an http only cookie
func startSession(c *gin.Context, d *internal.Deps, u *model.User) (*session, error) {
	token, err := security.MakeToken(u.ID.Hex(), string(u.Role), d.JWTSecret, d.JWTTTL)
	if err != nil {
		return nil, err
	}

	sslEnabled := viper.GetBool("host.ssl_enabled")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, token, int(d.JWTTTL.Seconds()), "/", "", sslEnabled, true)

	return &session{
		Token:     token,
		ExpiresAt: time.Now().Add(d.JWTTTL).UTC(),
		User:      u,
	}, nil
}

type issuedResponse struct {
	Mode           string     `json:"mode"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
	CodeExpiresAt  *time.Time `json:"codeExpiresAt,omitempty"`
}

func newIssuedResponse(mode model.Mode, tokenExp, codeExp time.Time) issuedResponse {
	res := issuedResponse{Mode: mode.String()}

	if mode.HasToken() {
		res.TokenExpiresAt = &tokenExp
	}
	if mode.HasCode() {
		res.CodeExpiresAt = &codeExp
	}

	return res
}

func cooldownError(c *gin.Context, left time.Duration) error {
	secs := int(left.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}

	c.Header("Retry-After", strconv.Itoa(secs))
	return apperr.ErrResendCooldown.WithDetails(gin.H{"retryAfter": secs})
}
