package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Image is an uploaded file that passed ImageValidator
type Image struct {
	File multipart.File
	Mime string
	Ext  string
	Size int64
}

// ImageValidator checks size and sniffs the real content type of an upload.
// The returned status is meant for the response when err is not nil.
func ImageValidator(fh *multipart.FileHeader, maxSize int64, allowed []string) (int, *Image, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if len(allowed) == 0 {
		allowed = DefaultImageTypes
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	if maxSize > 0 && fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	// Headers are easy to spoof so look at the bytes instead
	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	supported := slices.ContainsFunc(allowed, func(t string) bool { return mime.Is(t) })
	if !supported {
		f.Close()
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	return 0, &Image{
		File: f,
		Mime: mime.String(),
		Ext:  mime.Extension(),
		Size: fh.Size,
	}, nil
}
