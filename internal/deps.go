package internal

import (
	"time"

	"bitwise74/recipe-api/aws"
	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/security"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

type Deps struct {
	Mongo    *mongo.Client
	Users    store.UserStore
	Recipes  *store.Recipes
	Blogs    *store.Blogs
	Argon    *security.ArgonHash
	S3       *aws.S3Client
	Uploader *service.Uploader
	Mailer   service.Mailer
	Notifier service.Notifier

	Verify *challenge.Machine
	Reset  *challenge.Machine

	JWTSecret []byte
	JWTTTL    time.Duration
	StartedAt time.Time
}
