package user

import (
	"net/http"
	"time"

	"bitwise74/recipe-api/app/form"
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/response"
	"bitwise74/recipe-api/pkg/sanitize"
	"bitwise74/recipe-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	ErrNothingToUpdate = apperr.New(http.StatusBadRequest, "NOTHING_TO_UPDATE", "No changes provided")
	ErrWrongPassword   = apperr.New(http.StatusBadRequest, "WRONG_PASSWORD", "Current password is incorrect")
	ErrSamePassword    = apperr.New(http.StatusBadRequest, "SAME_PASSWORD", "New password must differ from the current one")
)

func Profile(c *gin.Context) {
	response.Success(c, middleware.CurrentUser(c), "")
}

type updateInfoBody struct {
	Fullname *string `json:"fullname" binding:"omitempty,max=80"`
	Email    *string `json:"email" binding:"omitempty,max=254"`
}

// UpdateInfo changes the display name and email. A new email has to be
// verified again and the old address is told about the change.
func UpdateInfo(c *gin.Context, d *internal.Deps) {
	var data updateInfoBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)
	upd := store.UserUpdate{}
	emailChanged := false

	if data.Fullname != nil {
		name := sanitize.Text(*data.Fullname)
		if name == "" {
			name = "Anonymous"
		}

		if name != user.Fullname {
			upd.Fullname = &name
		}
	}

	if data.Email != nil {
		email := validators.NormalizeEmail(*data.Email)
		if err := validators.EmailValidator(email); err != nil {
			c.Error(apperr.ErrValidation.WithMessage(err.Error()))
			return
		}

		if email != user.Email {
			now := time.Now().UTC()
			verified := false

			upd.Email = &email
			upd.EmailVerified = &verified
			upd.LastEmailChangedAt = &now
			upd.ClearVerification = true
			emailChanged = true
		}
	}

	if upd.Fullname == nil && upd.Email == nil {
		c.Error(ErrNothingToUpdate)
		return
	}

	ctx := c.Request.Context()

	updated, err := d.Users.Update(ctx, user.ID, upd)
	if err != nil {
		c.Error(err)
		return
	}

	if emailChanged {
		requestID := c.GetString("requestID")

		if err := d.Notifier.SendEmailChanged(ctx, user.Email, updated); err != nil {
			zap.L().Error("Failed to notify old email address", zap.Error(err), zap.String("requestID", requestID))
		}

		if err := sendVerification(c, d, updated); err != nil {
			zap.L().Error("Failed to send verification to new address", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	response.Success(c, updated, "Profile updated")
}

func sendVerification(c *gin.Context, d *internal.Deps, u *model.User) error {
	ctx := c.Request.Context()

	issued, err := d.Verify.Issue(ctx, u.ID)
	if err != nil {
		return err
	}

	if issued.Mode == model.ModeNone {
		return nil
	}

	return d.Notifier.SendVerification(ctx, u, issued)
}

type changePasswordBody struct {
	CurrentPassword string `json:"currentPassword" binding:"required,max=128"`
	NewPassword     string `json:"newPassword" binding:"required,max=128,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

func ChangePassword(c *gin.Context, d *internal.Deps) {
	var data changePasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)

	ok, err := d.Argon.VerifyPasswd(data.CurrentPassword, user.Password)
	if err != nil {
		c.Error(err)
		return
	}

	if !ok {
		c.Error(ErrWrongPassword)
		return
	}

	if data.NewPassword == data.CurrentPassword {
		c.Error(ErrSamePassword)
		return
	}

	hash, err := d.Argon.GenerateFromPassword(data.NewPassword)
	if err != nil {
		c.Error(err)
		return
	}

	if _, err := d.Users.Update(c.Request.Context(), user.ID, store.UserUpdate{Password: &hash}); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, nil, "Password changed")
}

// Avatar replaces the profile picture with the multipart file "avatar"
func Avatar(c *gin.Context, d *internal.Deps) {
	user := middleware.CurrentUser(c)

	url, err := form.UploadImage(c, d.Uploader, "avatar", service.FolderAvatars)
	if err != nil {
		c.Error(err)
		return
	}

	if url == "" {
		c.Error(form.ErrInvalidImage.WithMessage("No avatar provided"))
		return
	}

	ctx := c.Request.Context()

	updated, err := d.Users.Update(ctx, user.ID, store.UserUpdate{Avatar: &url})
	if err != nil {
		d.Uploader.Replace(ctx, url)
		c.Error(err)
		return
	}

	d.Uploader.Replace(ctx, user.Avatar)
	response.Success(c, updated, "Avatar updated")
}
