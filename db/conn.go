// Package db contains things related to MongoDB
package db

import (
	"context"
	"fmt"

	"bitwise74/recipe-api/internal/model"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// New connects to MongoDB, checks the connection and makes sure every
// index exists
func New(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	timeout := viper.GetDuration("mongo.timeout")

	opts := options.Client().
		ApplyURI(viper.GetString("mongo.uri")).
		SetMaxPoolSize(viper.GetUint64("mongo.max_pool_size")).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetAppName("recipe-api")

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create MongoDB client, %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to reach MongoDB, %w", err)
	}

	database := client.Database(viper.GetString("mongo.database"))

	if err := EnsureIndexes(ctx, database); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}

	zap.L().Info("Connected to MongoDB", zap.String("database", database.Name()))
	return client, database, nil
}

// Indexes lists the indexes per collection
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		model.UserCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "emailVerification.tokenHash", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "passwordReset.tokenHash", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		model.RecipeCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isHidden", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "time.total", Value: 1}}},
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		},
		model.BlogCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
	}
}

func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for coll, idx := range Indexes() {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s, %w", coll, err)
		}
	}

	return nil
}
