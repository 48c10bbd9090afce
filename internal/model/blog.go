package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const BlogCollection = "blogs"

type Blog struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string        `bson:"title" json:"title"`
	Summary   string        `bson:"summary" json:"summary"`
	Content   string        `bson:"content" json:"content"`
	Tags      []string      `bson:"tags" json:"tags"`
	Thumbnail string        `bson:"thumbnail" json:"thumbnail"`
	AuthorID  bson.ObjectID `bson:"author" json:"authorId"`
	Comments  []Comment     `bson:"comments" json:"comments"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`

	Author *PublicUser `bson:"authorInfo,omitempty" json:"author,omitempty"`
}

func (b *Blog) Normalize() {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Comments == nil {
		b.Comments = []Comment{}
	}
}

func (b *Blog) CommentByID(id bson.ObjectID) *Comment {
	for i := range b.Comments {
		if b.Comments[i].ID == id {
			return &b.Comments[i]
		}
	}

	return nil
}
