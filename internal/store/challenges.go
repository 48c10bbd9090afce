package store

import (
	"context"
	"errors"
	"time"

	"bitwise74/recipe-api/internal/challenge"
	"bitwise74/recipe-api/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ challenge.Store = (*Users)(nil)

func subjectFilter(s challenge.Subject) bson.D {
	if !s.ID.IsZero() {
		return bson.D{{Key: "_id", Value: s.ID}}
	}

	return bson.D{{Key: "email", Value: s.Email}}
}

func validSubject(s challenge.Subject) bool {
	return !s.ID.IsZero() || s.Email != ""
}

func putChallengeUpdate(kind challenge.Kind, c *model.Challenge, now time.Time) bson.D {
	if c == nil || c.Empty() {
		return bson.D{
			{Key: "$unset", Value: bson.D{{Key: kind.Field(), Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
		}
	}

	return bson.D{{Key: "$set", Value: bson.D{
		{Key: kind.Field(), Value: c},
		{Key: "updatedAt", Value: now},
	}}}
}

// liveCodeFilter matches the subject only while the code with codeHash can
// still be answered
func liveCodeFilter(kind challenge.Kind, s challenge.Subject, codeHash string, now time.Time, maxAttempts int) bson.D {
	f := kind.Field()

	return append(subjectFilter(s),
		bson.E{Key: f + ".codeHash", Value: codeHash},
		bson.E{Key: f + ".codeExpiresAt", Value: bson.D{{Key: "$gt", Value: now}}},
		bson.E{Key: f + ".codeAttempts", Value: bson.D{{Key: "$lt", Value: maxAttempts}}},
	)
}

func liveTokenFilter(kind challenge.Kind, tokenHash string, now time.Time) bson.D {
	f := kind.Field()

	return bson.D{
		{Key: f + ".tokenHash", Value: tokenHash},
		{Key: f + ".tokenExpiresAt", Value: bson.D{{Key: "$gt", Value: now}}},
	}
}

// consumeUpdate clears the record. A verification also flips emailVerified.
func consumeUpdate(kind challenge.Kind, now time.Time) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now}}
	if kind == challenge.EmailVerification {
		set = append(set, bson.E{Key: "emailVerified", Value: true})
	}

	return bson.D{
		{Key: "$set", Value: set},
		{Key: "$unset", Value: bson.D{{Key: kind.Field(), Value: ""}}},
	}
}

func (s *Users) PutChallenge(ctx context.Context, kind challenge.Kind, userID bson.ObjectID, c *model.Challenge) error {
	res, err := s.c.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		putChallengeUpdate(kind, c, time.Now().UTC()),
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return challenge.ErrNoUser
	}

	return nil
}

func (s *Users) FindChallenge(ctx context.Context, kind challenge.Kind, sub challenge.Subject) (*model.User, error) {
	if !validSubject(sub) {
		return nil, nil
	}

	u, err := s.findOne(ctx, subjectFilter(sub))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	return u, err
}

func (s *Users) IncrementCodeAttempts(ctx context.Context, kind challenge.Kind, sub challenge.Subject, storedHash string, now time.Time, maxAttempts int) (bool, error) {
	if !validSubject(sub) {
		return false, nil
	}

	res, err := s.c.UpdateOne(ctx,
		liveCodeFilter(kind, sub, storedHash, now, maxAttempts),
		bson.D{{Key: "$inc", Value: bson.D{{Key: kind.Field() + ".codeAttempts", Value: 1}}}},
	)
	if err != nil {
		return false, err
	}

	return res.ModifiedCount == 1, nil
}

func (s *Users) consume(ctx context.Context, filter, update bson.D) (*model.User, error) {
	var u model.User

	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, err
	}

	return &u, nil
}

func (s *Users) ConsumeCode(ctx context.Context, kind challenge.Kind, sub challenge.Subject, codeHash string, now time.Time, maxAttempts int) (*model.User, error) {
	if !validSubject(sub) {
		return nil, nil
	}

	return s.consume(ctx, liveCodeFilter(kind, sub, codeHash, now, maxAttempts), consumeUpdate(kind, now))
}

func (s *Users) ConsumeToken(ctx context.Context, kind challenge.Kind, tokenHash string, now time.Time) (*model.User, error) {
	return s.consume(ctx, liveTokenFilter(kind, tokenHash, now), consumeUpdate(kind, now))
}

// staleChallengeFilter matches users whose record of kind has no live
// sub-mode left
func staleChallengeFilter(kind challenge.Kind, now time.Time) bson.D {
	f := kind.Field()
	notLive := func(field string) bson.D {
		return bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: f + "." + field, Value: nil}},
			bson.D{{Key: f + "." + field, Value: bson.D{{Key: "$lte", Value: now}}}},
		}}}
	}

	return bson.D{
		{Key: f, Value: bson.D{{Key: "$exists", Value: true}}},
		{Key: "$and", Value: bson.A{notLive("tokenExpiresAt"), notLive("codeExpiresAt")}},
	}
}

// SweepChallenges unsets every record of kind whose sub-modes have all
// expired and returns how many users were touched
func (s *Users) SweepChallenges(ctx context.Context, kind challenge.Kind, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		staleChallengeFilter(kind, now),
		bson.D{{Key: "$unset", Value: bson.D{{Key: kind.Field(), Value: ""}}}},
	)
	if err != nil {
		return 0, err
	}

	return res.ModifiedCount, nil
}
