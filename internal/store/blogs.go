package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"bitwise74/recipe-api/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type BlogQuery struct {
	Q     string
	Tags  []string
	Sort  bson.D
	Page  int
	Limit int
}

func (q BlogQuery) filter() bson.D {
	f := bson.D{}

	if q.Q != "" {
		rx := bson.Regex{Pattern: regexp.QuoteMeta(q.Q), Options: "i"}
		f = append(f, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: rx}},
			bson.D{{Key: "summary", Value: rx}},
		}})
	}

	if len(q.Tags) > 0 {
		f = append(f, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: q.Tags}}})
	}

	return f
}

type Blogs struct {
	c *mongo.Collection
}

func NewBlogs(db *mongo.Database) *Blogs {
	return &Blogs{c: db.Collection(model.BlogCollection)}
}

func (s *Blogs) Create(ctx context.Context, b *model.Blog) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Normalize()

	res, err := s.c.InsertOne(ctx, b)
	if err != nil {
		return err
	}

	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		b.ID = id
	}

	return nil
}

func (s *Blogs) FindByID(ctx context.Context, id bson.ObjectID) (*model.Blog, error) {
	var b model.Blog

	if err := s.c.FindOne(ctx, byID(id)).Decode(&b); err != nil {
		return nil, notFound(err)
	}

	return &b, nil
}

func (s *Blogs) FindWithAuthor(ctx context.Context, id bson.ObjectID) (*model.Blog, error) {
	p := append(mongo.Pipeline{{{Key: "$match", Value: byID(id)}}}, authorLookup("author", "authorInfo")...)

	cur, err := s.c.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}

	var out []model.Blog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}

	return &out[0], nil
}

func (s *Blogs) List(ctx context.Context, q BlogQuery) ([]model.Blog, int64, error) {
	sort := q.Sort
	if len(sort) == 0 {
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	p := mongo.Pipeline{
		{{Key: "$match", Value: q.filter()}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$skip", Value: skipFor(q.Page, q.Limit)}},
		{{Key: "$limit", Value: int64(q.Limit)}},
	}
	p = append(p, authorLookup("author", "authorInfo")...)

	cur, err := s.c.Aggregate(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list blogs, %w", err)
	}

	items := []model.Blog{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode blogs, %w", err)
	}

	total, err := s.c.CountDocuments(ctx, q.filter())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count blogs, %w", err)
	}

	return items, total, nil
}

func (s *Blogs) Update(ctx context.Context, id bson.ObjectID, set bson.D) (*model.Blog, error) {
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})

	var b model.Blog
	if err := s.c.FindOneAndUpdate(ctx, byID(id), bson.D{{Key: "$set", Value: set}}, returnAfter).Decode(&b); err != nil {
		return nil, notFound(err)
	}

	return &b, nil
}

func (s *Blogs) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Blogs) AddComment(ctx context.Context, id bson.ObjectID, cm model.Comment) (*model.Blog, error) {
	var b model.Blog

	err := s.c.FindOneAndUpdate(ctx, byID(id),
		bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: cm}}}},
		returnAfter,
	).Decode(&b)
	if err != nil {
		return nil, notFound(err)
	}

	return &b, nil
}

func (s *Blogs) DeleteComment(ctx context.Context, id, commentID bson.ObjectID) (*model.Blog, error) {
	var b model.Blog

	err := s.c.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "comments._id", Value: commentID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "comments", Value: bson.D{{Key: "_id", Value: commentID}}}}}},
		returnAfter,
	).Decode(&b)
	if err != nil {
		return nil, notFound(err)
	}

	return &b, nil
}
