package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"bitwise74/recipe-api/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type RecipeQuery struct {
	Q             string
	Tags          []string
	Difficulty    model.Difficulty
	MaxTotalTime  int
	Author        bson.ObjectID
	IncludeHidden bool
	Sort          bson.D
	Page          int
	Limit         int
}

func (q RecipeQuery) filter() bson.D {
	f := bson.D{}

	if !q.IncludeHidden {
		f = append(f, bson.E{Key: "isHidden", Value: false})
	}

	if q.Q != "" {
		rx := bson.Regex{Pattern: regexp.QuoteMeta(q.Q), Options: "i"}
		f = append(f, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: rx}},
			bson.D{{Key: "summary", Value: rx}},
			bson.D{{Key: "ingredients.name", Value: rx}},
		}})
	}

	if len(q.Tags) > 0 {
		f = append(f, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: q.Tags}}})
	}

	if q.Difficulty != "" {
		f = append(f, bson.E{Key: "difficulty", Value: q.Difficulty})
	}

	if q.MaxTotalTime > 0 {
		f = append(f, bson.E{Key: "time.total", Value: bson.D{{Key: "$lte", Value: q.MaxTotalTime}}})
	}

	if !q.Author.IsZero() {
		f = append(f, bson.E{Key: "createdBy", Value: q.Author})
	}

	return f
}

func (q RecipeQuery) pipeline() mongo.Pipeline {
	sort := q.Sort
	if len(sort) == 0 {
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	p := mongo.Pipeline{
		{{Key: "$match", Value: q.filter()}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "likesCount", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}}}},
			{Key: "avgRating", Value: bson.D{{Key: "$ifNull", Value: bson.A{bson.D{{Key: "$avg", Value: "$ratings.stars"}}, 0}}}},
		}}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$skip", Value: skipFor(q.Page, q.Limit)}},
		{{Key: "$limit", Value: int64(q.Limit)}},
	}

	return append(p, authorLookup("createdBy", "author")...)
}

type Recipes struct {
	c *mongo.Collection
}

func NewRecipes(db *mongo.Database) *Recipes {
	return &Recipes{c: db.Collection(model.RecipeCollection)}
}

func byID(id bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (s *Recipes) Create(ctx context.Context, r *model.Recipe) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Normalize()

	res, err := s.c.InsertOne(ctx, r)
	if err != nil {
		return err
	}

	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		r.ID = id
	}

	return nil
}

func (s *Recipes) FindByID(ctx context.Context, id bson.ObjectID) (*model.Recipe, error) {
	var r model.Recipe

	if err := s.c.FindOne(ctx, byID(id)).Decode(&r); err != nil {
		return nil, notFound(err)
	}

	return &r, nil
}

// FindWithAuthor is FindByID with the author's public profile attached
func (s *Recipes) FindWithAuthor(ctx context.Context, id bson.ObjectID) (*model.Recipe, error) {
	p := append(mongo.Pipeline{{{Key: "$match", Value: byID(id)}}}, authorLookup("createdBy", "author")...)

	cur, err := s.c.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}

	var out []model.Recipe
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}

	return &out[0], nil
}

func (s *Recipes) List(ctx context.Context, q RecipeQuery) ([]model.Recipe, int64, error) {
	cur, err := s.c.Aggregate(ctx, q.pipeline())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes, %w", err)
	}

	items := []model.Recipe{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode recipes, %w", err)
	}

	total, err := s.c.CountDocuments(ctx, q.filter())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes, %w", err)
	}

	return items, total, nil
}

func (s *Recipes) updateOne(ctx context.Context, filter bson.D, update any) (*model.Recipe, error) {
	var r model.Recipe

	if err := s.c.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&r); err != nil {
		return nil, notFound(err)
	}

	return &r, nil
}

// Update sets the given fields and stamps updatedAt
func (s *Recipes) Update(ctx context.Context, id bson.ObjectID, set bson.D) (*model.Recipe, error) {
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})
	return s.updateOne(ctx, byID(id), bson.D{{Key: "$set", Value: set}})
}

func (s *Recipes) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Recipes) SetHidden(ctx context.Context, id bson.ObjectID, hidden bool) (*model.Recipe, error) {
	return s.Update(ctx, id, bson.D{{Key: "isHidden", Value: hidden}})
}

// toggleLikeUpdate adds userID to likes or removes it if present, as one
// pipeline update
func toggleLikeUpdate(userID bson.ObjectID) mongo.Pipeline {
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{userID, likes}}},
			bson.D{{Key: "$setDifference", Value: bson.A{likes, bson.A{userID}}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{userID}}}},
		}}}}}}},
	}
}

func (s *Recipes) ToggleLike(ctx context.Context, id, userID bson.ObjectID) (*model.Recipe, error) {
	return s.updateOne(ctx, byID(id), toggleLikeUpdate(userID))
}

// Rate replaces the user's rating if one exists, otherwise appends it
func (s *Recipes) Rate(ctx context.Context, id bson.ObjectID, rt model.Rating) (*model.Recipe, error) {
	now := time.Now().UTC()

	replace := func() (*model.Recipe, error) {
		return s.updateOne(ctx,
			bson.D{{Key: "_id", Value: id}, {Key: "ratings.user", Value: rt.User}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "ratings.$.stars", Value: rt.Stars},
				{Key: "ratings.$.comment", Value: rt.Comment},
				{Key: "ratings.$.updatedAt", Value: now},
			}}},
		)
	}

	r, err := replace()
	if !errors.Is(err, ErrNotFound) {
		return r, err
	}

	rt.CreatedAt = now
	rt.UpdatedAt = nil

	r, err = s.updateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "ratings.user", Value: bson.D{{Key: "$ne", Value: rt.User}}}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "ratings", Value: rt}}}},
	)
	if !errors.Is(err, ErrNotFound) {
		return r, err
	}

	// A concurrent rate pushed first
	return replace()
}

// DeleteRating returns ErrNotFound if the recipe or the user's rating is missing
func (s *Recipes) DeleteRating(ctx context.Context, id, userID bson.ObjectID) (*model.Recipe, error) {
	return s.updateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "ratings.user", Value: userID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "ratings", Value: bson.D{{Key: "user", Value: userID}}}}}},
	)
}

func (s *Recipes) AddComment(ctx context.Context, id bson.ObjectID, cm model.Comment) (*model.Recipe, error) {
	return s.updateOne(ctx, byID(id), bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: cm}}}})
}

func (s *Recipes) DeleteComment(ctx context.Context, id, commentID bson.ObjectID) (*model.Recipe, error) {
	return s.updateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "comments._id", Value: commentID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "comments", Value: bson.D{{Key: "_id", Value: commentID}}}}}},
	)
}
