package challenge

import (
	"bitwise74/recipe-api/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Kind int

const (
	EmailVerification Kind = iota
	PasswordReset
)

func (k Kind) String() string {
	if k == PasswordReset {
		return "password_reset"
	}

	return "email_verification"
}

// Field is the user document field holding the challenge record
func (k Kind) Field() string {
	if k == PasswordReset {
		return "passwordReset"
	}

	return "emailVerification"
}

// Of returns the kind's challenge record on u, possibly nil
func (k Kind) Of(u *model.User) *model.Challenge {
	if u == nil {
		return nil
	}

	if k == PasswordReset {
		return u.PasswordReset
	}

	return u.EmailVerification
}

// Set stores c as the kind's record on u
func (k Kind) Set(u *model.User, c *model.Challenge) {
	if k == PasswordReset {
		u.PasswordReset = c
		return
	}

	u.EmailVerification = c
}

// Subject identifies whose challenge is being answered. Verification codes
// come from a logged in user, reset codes only carry the email.
type Subject struct {
	ID    bson.ObjectID
	Email string
}

func ByID(id bson.ObjectID) Subject {
	return Subject{ID: id}
}

func ByEmail(email string) Subject {
	return Subject{Email: email}
}

func (s Subject) Matches(u *model.User) bool {
	if u == nil {
		return false
	}

	if !s.ID.IsZero() {
		return u.ID == s.ID
	}

	return s.Email != "" && u.Email == s.Email
}
