package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitwise74/recipe-api/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserStore is implemented by Users and by the in-memory store used in tests
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	Update(ctx context.Context, id bson.ObjectID, upd UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
}

// UserUpdate is a partial update, nil fields are left alone
type UserUpdate struct {
	Fullname           *string
	Email              *string
	Password           *string
	Avatar             *string
	Role               *model.Role
	Status             *model.Status
	EmailVerified      *bool
	LastEmailChangedAt *time.Time

	// ClearVerification drops any outstanding email verification challenge
	ClearVerification bool
}

func (u UserUpdate) document(now time.Time) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now}}

	if u.Fullname != nil {
		set = append(set, bson.E{Key: "fullname", Value: *u.Fullname})
	}
	if u.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *u.Email})
	}
	if u.Password != nil {
		set = append(set, bson.E{Key: "password", Value: *u.Password})
	}
	if u.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *u.Avatar})
	}
	if u.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *u.Role})
	}
	if u.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *u.Status})
	}
	if u.EmailVerified != nil {
		set = append(set, bson.E{Key: "emailVerified", Value: *u.EmailVerified})
	}
	if u.LastEmailChangedAt != nil {
		set = append(set, bson.E{Key: "lastEmailChangedAt", Value: *u.LastEmailChangedAt})
	}

	doc := bson.D{{Key: "$set", Value: set}}
	if u.ClearVerification {
		doc = append(doc, bson.E{Key: "$unset", Value: bson.D{{Key: "emailVerification", Value: ""}}})
	}

	return doc
}

// Apply mutates m the same way document would in the database
func (u UserUpdate) Apply(m *model.User, now time.Time) {
	m.UpdatedAt = now

	if u.Fullname != nil {
		m.Fullname = *u.Fullname
	}
	if u.Email != nil {
		m.Email = *u.Email
	}
	if u.Password != nil {
		m.Password = *u.Password
	}
	if u.Avatar != nil {
		m.Avatar = *u.Avatar
	}
	if u.Role != nil {
		m.Role = *u.Role
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.EmailVerified != nil {
		m.EmailVerified = *u.EmailVerified
	}
	if u.LastEmailChangedAt != nil {
		t := *u.LastEmailChangedAt
		m.LastEmailChangedAt = &t
	}
	if u.ClearVerification {
		m.EmailVerification = nil
	}
}

var userListProjection = bson.D{
	{Key: "password", Value: 0},
	{Key: "emailVerification", Value: 0},
	{Key: "passwordReset", Value: 0},
}

type Users struct {
	c *mongo.Collection
}

func NewUsers(db *mongo.Database) *Users {
	return &Users{c: db.Collection(model.UserCollection)}
}

func (s *Users) Create(ctx context.Context, u *model.User) error {
	res, err := s.c.InsertOne(ctx, u)
	if err != nil {
		return err
	}

	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		u.ID = id
	}

	return nil
}

func (s *Users) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	var u model.User

	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (s *Users) FindByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Users) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return s.findOne(ctx, identifierFilter(identifier))
}

func identifierFilter(identifier string) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "email", Value: strings.ToLower(identifier)}},
		bson.D{{Key: "username", Value: identifier}},
	}}}
}

func (s *Users) Update(ctx context.Context, id bson.ObjectID, upd UserUpdate) (*model.User, error) {
	var u model.User

	err := s.c.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		upd.document(time.Now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}

	return &u, nil
}

func (s *Users) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Users) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	cur, err := s.c.Find(ctx, bson.D{},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(skipFor(page, limit)).
			SetLimit(int64(limit)).
			SetProjection(userListProjection),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users, %w", err)
	}

	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users, %w", err)
	}

	total, err := s.c.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users, %w", err)
	}

	return users, total, nil
}
