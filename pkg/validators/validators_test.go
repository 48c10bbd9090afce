package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("chef@example.com"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("not-an-email"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("Bob <bob@example.com>"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("bob@localhost"), ErrEmailInvalid)

	assert.Equal(t, "chef@example.com", NormalizeEmail("  Chef@Example.COM "))
}

func TestPasswordValidator(t *testing.T) {
	assert.NoError(t, PasswordValidator("Secret123"))
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("Ab1"), ErrPasswordTooShort)
	assert.ErrorIs(t, PasswordValidator("alllowercase1"), ErrPasswordWeak)
	assert.ErrorIs(t, PasswordValidator("NoDigitsHere"), ErrPasswordWeak)
	assert.ErrorIs(t, PasswordValidator("ALLUPPER123"), ErrPasswordWeak)
}

func TestUsernameValidator(t *testing.T) {
	assert.NoError(t, UsernameValidator("home_cook_42"))
	assert.ErrorIs(t, UsernameValidator(""), ErrUsernameEmpty)
	assert.ErrorIs(t, UsernameValidator("ab"), ErrUsernameInvalid)
	assert.ErrorIs(t, UsernameValidator("has space"), ErrUsernameInvalid)
	assert.ErrorIs(t, UsernameValidator("dash-ed"), ErrUsernameInvalid)
}

func TestRegisterIsIdempotent(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())
}

var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89,
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("thumbnail", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	_, fh, err := req.FormFile("thumbnail")
	require.NoError(t, err)
	return fh
}

func TestImageValidator(t *testing.T) {
	status, img, err := ImageValidator(fileHeader(t, "dish.png", pngBytes), 1<<20, nil)
	require.NoError(t, err)
	require.Zero(t, status)
	defer img.File.Close()

	assert.Equal(t, "image/png", img.Mime)
	assert.Equal(t, ".png", img.Ext)

	// content decides, not the extension
	status, _, err = ImageValidator(fileHeader(t, "fake.png", []byte("just some text")), 1<<20, nil)
	assert.ErrorIs(t, err, ErrFileTypeUnsupported)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, err = ImageValidator(fileHeader(t, "dish.png", pngBytes), 4, nil)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)

	_, _, err = ImageValidator(nil, 0, nil)
	assert.ErrorIs(t, err, ErrNoFile)
}
