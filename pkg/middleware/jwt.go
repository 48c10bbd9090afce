package middleware

import (
	"errors"
	"net/http"
	"strings"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const AuthCookie = "auth_token"

var (
	ErrNoToken      = apperr.New(http.StatusUnauthorized, "NO_TOKEN", "Authorization token missing")
	ErrTokenInvalid = apperr.New(http.StatusUnauthorized, "TOKEN_INVALID", "Authorization token invalid")
	ErrUserGone     = apperr.New(http.StatusUnauthorized, "USER_NOT_FOUND", "User no longer exists")
	ErrBlocked      = apperr.New(http.StatusForbidden, "ACCOUNT_BLOCKED", "Your account has been blocked")
)

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}

	t, err := c.Cookie(AuthCookie)
	if err != nil {
		return ""
	}

	return t
}

// NewJWTMiddleware authenticates the request with a bearer token or the
// auth_token cookie. The user is reloaded on every request so deleted and
// blocked accounts lose access right away.
func NewJWTMiddleware(users store.UserStore, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			c.Error(ErrNoToken)
			c.Abort()
			return
		}

		claims, err := security.ParseToken(tokenStr, secret)
		if err != nil {
			c.Error(ErrTokenInvalid.Wrap(err))
			c.Abort()
			return
		}

		id, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.Error(ErrTokenInvalid.Wrap(err))
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.Error(ErrUserGone)
			} else {
				zap.L().Error("Failed to load token owner", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
				c.Error(err)
			}

			c.Abort()
			return
		}

		if user.Blocked() {
			c.Error(ErrBlocked)
			c.Abort()
			return
		}

		c.Set("userID", user.ID.Hex())
		c.Set("user", user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by the JWT middleware
func CurrentUser(c *gin.Context) *model.User {
	u, _ := c.Get("user")
	user, _ := u.(*model.User)
	return user
}
