package challenge

import (
	"errors"
	"net/http"

	"bitwise74/recipe-api/pkg/apperr"
)

var (
	ErrMalformedToken   = apperr.New(http.StatusBadRequest, "MALFORMED_TOKEN", "Token format is invalid")
	ErrInvalidOrExpired = apperr.New(http.StatusBadRequest, "INVALID_OR_EXPIRED_CHALLENGE", "Token is invalid or has expired")
	ErrUnavailable      = apperr.New(http.StatusBadRequest, "CHALLENGE_UNAVAILABLE", "Code expired or not requested")
	ErrWrongCode        = apperr.New(http.StatusBadRequest, "WRONG_CODE", "Incorrect code")

	// ErrNoUser is returned by stores when the challenge owner doesn't exist
	ErrNoUser = errors.New("challenge owner not found")
)
