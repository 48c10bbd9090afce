package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/apperr"
	"bitwise74/recipe-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

var dupKeyIndex = regexp.MustCompile(`index: (\S+?)_1`)

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func duplicateField(err error) string {
	m := dupKeyIndex.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return ""
	}

	return m[1]
}

// Translate maps any error a handler produced to its public form
func Translate(err error) *apperr.Error {
	if e, ok := apperr.As(err); ok {
		return e
	}

	var (
		verrs     validator.ValidationErrors
		maxBytes  *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &verrs):
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{
				Field: fe.Field(),
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}

		return apperr.ErrValidation.WithDetails(details).Wrap(err)
	case mongo.IsDuplicateKeyError(err):
		e := apperr.ErrDuplicateKey.Wrap(err)
		if field := duplicateField(err); field != "" {
			e = e.WithMessage(strings.ToUpper(field[:1]) + field[1:] + " already exists").
				WithDetails(gin.H{"field": field})
		}

		return e
	case errors.Is(err, bson.ErrInvalidHex):
		return apperr.ErrInvalidID.Wrap(err)
	case errors.As(err, &maxBytes):
		return apperr.ErrPayloadTooLarge.Wrap(err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.BadRequest("Invalid request body").Wrap(err)
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Resource not found").Wrap(err)
	}

	return apperr.Internal(err)
}

// ErrorHandler writes the last error attached to the context as an error
// envelope. With debug set, internal errors carry their text in details.
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		e := Translate(last.Err)
		body := response.ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		}

		if e.Status >= http.StatusInternalServerError {
			zap.L().Error("Request failed",
				zap.Error(last.Err),
				zap.String("path", c.FullPath()),
				zap.String("requestID", c.GetString("requestID")),
			)

			if debug && e.Err != nil {
				body.Details = e.Err.Error()
			}
		}

		response.Error(c, e.Status, body)
	}
}
