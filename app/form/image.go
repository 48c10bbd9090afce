package form

import (
	"errors"
	"net/http"

	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

var (
	ErrInvalidImage    = apperr.New(http.StatusBadRequest, "INVALID_IMAGE", "Invalid image")
	ErrUploadsDisabled = apperr.New(http.StatusServiceUnavailable, "UPLOADS_DISABLED", "Image uploads are not available")
)

// Image validates the file in field. It returns nil, nil when the request
// carries no such file.
func Image(c *gin.Context, field string) (*validators.Image, error) {
	if !IsMultipart(c) {
		return nil, nil
	}

	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}

		return nil, err
	}

	code, img, err := validators.ImageValidator(fh, viper.GetInt64("upload.max_size"), viper.GetStringSlice("upload.allowed_types"))
	if err != nil {
		if code == http.StatusInternalServerError {
			return nil, err
		}

		return nil, apperr.New(code, ErrInvalidImage.Code, err.Error())
	}

	return img, nil
}

// UploadImage validates and stores the file in field under folder. An empty
// URL means no file was sent.
func UploadImage(c *gin.Context, u *service.Uploader, field, folder string) (string, error) {
	img, err := Image(c, field)
	if err != nil || img == nil {
		return "", err
	}

	if !u.Enabled() {
		img.File.Close()
		return "", ErrUploadsDisabled
	}

	return u.Upload(c.Request.Context(), folder, img)
}
