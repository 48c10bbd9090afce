package auth

import (
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/sanitize"
	"bitwise74/recipe-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type registerBody struct {
	Username        string `json:"username" binding:"required,username"`
	Fullname        string `json:"fullname" binding:"max=80"`
	Email           string `json:"email" binding:"required,max=254"`
	Password        string `json:"password" binding:"required,max=128,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

func Register(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	email := validators.NormalizeEmail(data.Email)
	if err := validators.EmailValidator(email); err != nil {
		c.Error(apperr.ErrValidation.WithMessage(err.Error()))
		return
	}

	hash, err := d.Argon.GenerateFromPassword(data.Password)
	if err != nil {
		c.Error(err)
		return
	}

	user := model.NewUser(
		data.Username,
		sanitize.Text(data.Fullname),
		email,
		hash,
		viper.GetString("defaults.avatar_url"),
	)

	// Duplicate emails and usernames come back as a 409 from the error handler
	if err := d.Users.Create(c.Request.Context(), user); err != nil {
		c.Error(err)
		return
	}

	verificationSent := sendVerification(c, d, user) == nil

	sess, err := startSession(c, d, user)
	if err != nil {
		c.Error(err)
		return
	}

	response.Created(c, gin.H{
		"token":            sess.Token,
		"expiresAt":        sess.ExpiresAt,
		"user":             sess.User,
		"verificationSent": verificationSent,
	}, "Registration successful, check your inbox to verify your email")
}

// sendVerification issues and mails a fresh verification challenge. Failures
// are logged, the account already exists and the user can ask again.
func sendVerification(c *gin.Context, d *internal.Deps, u *model.User) error {
	ctx := c.Request.Context()

	issued, err := d.Verify.Issue(ctx, u.ID)
	if err != nil {
		zap.L().Error("Failed to issue verification", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		return err
	}

	if issued.Mode == model.ModeNone {
		return ErrChallengeDisabled
	}

	if err := d.Notifier.SendVerification(ctx, u, issued); err != nil {
		zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		return err
	}

	return nil
}
