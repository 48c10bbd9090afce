package auth

import (
	"errors"

	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const forgotMessage = "If an account with that email exists, you will receive reset instructions shortly"

type forgotBody struct {
	Email string `json:"email" binding:"required,max=254"`
}

// Forgot answers the same way whether or not the account exists. Unknown,
// unverified and blocked accounts get no email, neither does anyone still in
// their resend cooldown.
func Forgot(c *gin.Context, d *internal.Deps) {
	var data forgotBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	requestID := c.GetString("requestID")

	user, err := d.Users.FindByEmail(ctx, validators.NormalizeEmail(data.Email))
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		zap.L().Error("Failed to look up user for reset", zap.Error(err), zap.String("requestID", requestID))
	case !user.EmailVerified || user.Blocked():
	case d.Reset.CooldownLeft(user) > 0:
	default:
		issued, err := d.Reset.Issue(ctx, user.ID)
		if err != nil {
			zap.L().Error("Failed to issue password reset", zap.Error(err), zap.String("requestID", requestID))
			break
		}

		if issued.Mode == model.ModeNone {
			break
		}

		if err := d.Notifier.SendPasswordReset(ctx, user, issued); err != nil {
			zap.L().Error("Failed to send password reset email", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	response.Success(c, nil, forgotMessage)
}

type resetTokenBody struct {
	Token           string `json:"token" binding:"required,max=256"`
	Password        string `json:"password" binding:"required,max=128,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

func ResetWithToken(c *gin.Context, d *internal.Deps) {
	var data resetTokenBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	user, err := d.Reset.ConfirmByToken(c.Request.Context(), data.Token)
	if err != nil {
		c.Error(err)
		return
	}

	setPassword(c, d, user, data.Password)
}

type resetCodeBody struct {
	Email           string `json:"email" binding:"required,max=254"`
	Code            string `json:"code" binding:"required,numeric,min=4,max=10"`
	Password        string `json:"password" binding:"required,max=128,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

func ResetWithCode(c *gin.Context, d *internal.Deps) {
	var data resetCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	subject := challenge.ByEmail(validators.NormalizeEmail(data.Email))

	user, err := d.Reset.ConfirmByCode(c.Request.Context(), subject, data.Code)
	if err != nil {
		c.Error(err)
		return
	}

	setPassword(c, d, user, data.Password)
}

func setPassword(c *gin.Context, d *internal.Deps, user *model.User, password string) {
	hash, err := d.Argon.GenerateFromPassword(password)
	if err != nil {
		c.Error(err)
		return
	}

	if _, err := d.Users.Update(c.Request.Context(), user.ID, store.UserUpdate{Password: &hash}); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, nil, "Password has been reset, you can now log in")
}
