// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(e)
	if err != nil {
		return ErrEmailInvalid
	}

	// Reject display-name forms like "Bob <bob@x.com>"
	if addr.Address != e || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
		return ErrEmailInvalid
	}

	return nil
}

// NormalizeEmail trims and lowercases an address before lookups and storage
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
