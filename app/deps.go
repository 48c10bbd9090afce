package app

import (
	"context"
	"fmt"
	"time"

	"bitwise74/recipe-api/aws"
	"bitwise74/recipe-api/config"
	"bitwise74/recipe-api/internal"
	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/security"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// NewDeps wires the stores and services every handler shares
func NewDeps(ctx context.Context, client *mongo.Client, database *mongo.Database) (*internal.Deps, error) {
	users := store.NewUsers(database)

	d := &internal.Deps{
		Mongo:     client,
		Users:     users,
		Recipes:   store.NewRecipes(database),
		Blogs:     store.NewBlogs(database),
		Argon:     security.New(),
		Mailer:    service.NewMailer(),
		Verify:    challenge.New(challenge.EmailVerification, users, config.ChallengeOptions("verify")),
		Reset:     challenge.New(challenge.PasswordReset, users, config.ChallengeOptions("reset")),
		JWTSecret: []byte(viper.GetString("jwt.secret")),
		JWTTTL:    viper.GetDuration("jwt.ttl"),
		StartedAt: time.Now(),
	}

	d.Notifier = service.NewMailNotifier(d.Mailer, viper.GetString("host.app_base_url"))

	if viper.GetString("aws.bucket") != "" {
		s3, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.S3 = s3
	} else {
		zap.L().Warn("No S3 bucket configured, image uploads are disabled")
	}

	d.Uploader = service.NewUploader(d.S3)

	return d, nil
}
