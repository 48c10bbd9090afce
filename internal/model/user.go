// Package model defines database models
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const UserCollection = "users"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleStaff
}

type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusBlocked
}

type User struct {
	ID                 bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username           string        `bson:"username" json:"username"`
	Fullname           string        `bson:"fullname" json:"fullname"`
	Email              string        `bson:"email" json:"email"`
	Password           string        `bson:"password" json:"-"`
	Avatar             string        `bson:"avatar" json:"avatar"`
	Role               Role          `bson:"role" json:"role"`
	Status             Status        `bson:"status" json:"status"`
	EmailVerified      bool          `bson:"emailVerified" json:"emailVerified"`
	EmailVerification  *Challenge    `bson:"emailVerification,omitempty" json:"-"`
	PasswordReset      *Challenge    `bson:"passwordReset,omitempty" json:"-"`
	LastEmailChangedAt *time.Time    `bson:"lastEmailChangedAt" json:"lastEmailChangedAt,omitempty"`
	CreatedAt          time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// NewUser fills in the fields every freshly registered account starts with
func NewUser(username, fullname, email, passwordHash, avatar string) *User {
	now := time.Now().UTC()

	if fullname == "" {
		fullname = "Anonymous"
	}

	return &User{
		Username:  username,
		Fullname:  fullname,
		Email:     email,
		Password:  passwordHash,
		Avatar:    avatar,
		Role:      RoleUser,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Blocked() bool {
	return u.Status == StatusBlocked
}

// PublicUser is the trimmed view embedded in recipes, comments and blogs
type PublicUser struct {
	ID       bson.ObjectID `bson:"_id" json:"id"`
	Username string        `bson:"username" json:"username"`
	Fullname string        `bson:"fullname" json:"fullname"`
	Avatar   string        `bson:"avatar" json:"avatar"`
}
