package validators

import (
	"errors"
	"regexp"
)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameInvalid = errors.New("username must be 3-30 characters of letters, digits or underscores")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if !usernamePattern.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
