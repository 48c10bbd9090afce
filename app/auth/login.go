package auth

import (
	"errors"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	// Identifier is either the email or the username
	Identifier string `json:"identifier" binding:"required,max=254"`
	Password   string `json:"password" binding:"required,max=128"`
}

func Login(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()

	user, err := d.Users.FindByIdentifier(ctx, data.Identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.Error(ErrInvalidCredentials)
			return
		}

		c.Error(err)
		return
	}

	ok, err := d.Argon.VerifyPasswd(data.Password, user.Password)
	if err != nil {
		c.Error(err)
		return
	}

	if !ok {
		c.Error(ErrInvalidCredentials)
		return
	}

	if user.Blocked() {
		c.Error(middleware.ErrBlocked)
		return
	}

	// Upgrade legacy or outdated hashes while the plaintext is at hand
	if d.Argon.NeedsRehash(user.Password) {
		if hash, err := d.Argon.GenerateFromPassword(data.Password); err == nil {
			if _, err := d.Users.Update(ctx, user.ID, store.UserUpdate{Password: &hash}); err != nil {
				zap.L().Warn("Failed to rehash password", zap.Error(err), zap.String("userID", user.ID.Hex()))
			}
		}
	}

	sess, err := startSession(c, d, user)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, sess, "Logged in")
}

func Logout(c *gin.Context) {
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", false, true)
	response.Success(c, nil, "Logged out")
}
