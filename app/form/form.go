// Package form reads request bodies that may arrive either as JSON or as a
// multipart form carrying an image next to the fields
package form

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bitwise74/recipe-api/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Fields is a request body keyed by field name
type Fields map[string]json.RawMessage

func IsMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm)
}

// Read collects the body into Fields. Multipart values that already are
// JSON (arrays, objects, numbers, booleans) are kept as is, anything else
// becomes a JSON string.
func Read(c *gin.Context) (Fields, error) {
	if !IsMultipart(c) {
		var f Fields
		if err := c.ShouldBindJSON(&f); err != nil {
			return nil, err
		}

		return f, nil
	}

	mf, err := c.MultipartForm()
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}

		return nil, apperr.BadRequest("Invalid multipart form").Wrap(err)
	}

	f := Fields{}
	for key, values := range mf.Value {
		if len(values) == 0 {
			continue
		}

		f[key] = raw(values[0])
	}

	return f, nil
}

func raw(v string) json.RawMessage {
	t := strings.TrimSpace(v)

	if t != "" && (t[0] == '[' || t[0] == '{') && json.Valid([]byte(t)) {
		return json.RawMessage(t)
	}

	if _, err := strconv.ParseFloat(t, 64); err == nil {
		return json.RawMessage(t)
	}

	if t == "true" || t == "false" {
		return json.RawMessage(t)
	}

	b, _ := json.Marshal(v)
	return b
}

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Decode unmarshals key into dst when present
func (f Fields) Decode(key string, dst any) error {
	r, ok := f[key]
	if !ok {
		return nil
	}

	// Multipart turns "2024" into a number, strings take it back verbatim
	if s, ok := dst.(*string); ok && len(r) > 0 && r[0] != '"' && r[0] != '[' && r[0] != '{' && string(r) != "null" {
		*s = string(r)
		return nil
	}

	if err := json.Unmarshal(r, dst); err != nil {
		return apperr.ErrValidation.WithMessage("Invalid value for " + key).Wrap(err)
	}

	return nil
}

// List decodes key as a JSON array of strings or a single string split on sep
func (f Fields) List(key string, dst *[]string, sep string) error {
	r, ok := f[key]
	if !ok {
		return nil
	}

	var s string
	if json.Unmarshal(r, &s) == nil {
		out := []string{}
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}

		*dst = out
		return nil
	}

	var list []string
	if err := json.Unmarshal(r, &list); err != nil {
		return apperr.ErrValidation.WithMessage("Invalid value for " + key).Wrap(err)
	}

	*dst = list
	return nil
}

// Validate runs the binding tags of obj through gin's validator
func Validate(obj any) error {
	return binding.Validator.ValidateStruct(obj)
}
