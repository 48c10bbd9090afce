package auth

import (
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// VerifyRequest sends a new verification challenge to the logged in user
func VerifyRequest(c *gin.Context, d *internal.Deps) {
	user := middleware.CurrentUser(c)

	if user.EmailVerified {
		c.Error(ErrAlreadyVerified)
		return
	}

	if left := d.Verify.CooldownLeft(user); left > 0 {
		c.Error(cooldownError(c, left))
		return
	}

	ctx := c.Request.Context()

	issued, err := d.Verify.Issue(ctx, user.ID)
	if err != nil {
		c.Error(err)
		return
	}

	if issued.Mode == model.ModeNone {
		c.Error(ErrChallengeDisabled)
		return
	}

	if err := d.Notifier.SendVerification(ctx, user, issued); err != nil {
		c.Error(ErrMailFailed.Wrap(err))
		return
	}

	response.Success(c, newIssuedResponse(issued.Mode, issued.TokenExpiresAt, issued.CodeExpiresAt), "Verification email sent")
}

type tokenBody struct {
	Token string `json:"token" form:"token" binding:"required,max=256"`
}

// VerifyConfirm accepts the link token either from the query string or a
// JSON body
func VerifyConfirm(c *gin.Context, d *internal.Deps) {
	var data tokenBody

	var err error
	if c.Request.Method == "GET" {
		err = c.ShouldBindQuery(&data)
	} else {
		err = c.ShouldBindJSON(&data)
	}
	if err != nil {
		c.Error(err)
		return
	}

	user, err := d.Verify.ConfirmByToken(c.Request.Context(), data.Token)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, gin.H{"user": user}, "Email verified")
}

type codeBody struct {
	Code string `json:"code" binding:"required,numeric,min=4,max=10"`
}

// VerifyConfirmCode checks an OTP code for the logged in user
func VerifyConfirmCode(c *gin.Context, d *internal.Deps) {
	var data codeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)
	if user.EmailVerified {
		c.Error(ErrAlreadyVerified)
		return
	}

	user, err := d.Verify.ConfirmByCode(c.Request.Context(), challenge.ByID(user.ID), data.Code)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, gin.H{"user": user}, "Email verified")
}
