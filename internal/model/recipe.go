package model

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const RecipeCollection = "recipes"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type Ingredient struct {
	Name     string  `bson:"name" json:"name" binding:"required,max=100"`
	Quantity float64 `bson:"quantity" json:"quantity" binding:"min=0"`
	Unit     string  `bson:"unit" json:"unit" binding:"max=30"`
}

// CookTime is in minutes
type CookTime struct {
	Prep  int `bson:"prep" json:"prep" binding:"min=0,max=10000"`
	Cook  int `bson:"cook" json:"cook" binding:"min=0,max=10000"`
	Total int `bson:"total" json:"total" binding:"min=0,max=20000"`
}

type Rating struct {
	User      bson.ObjectID `bson:"user" json:"user"`
	Stars     int           `bson:"stars" json:"stars"`
	Comment   string        `bson:"comment" json:"comment"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type Comment struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	User      bson.ObjectID `bson:"user" json:"user"`
	Content   string        `bson:"content" json:"content"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

type Recipe struct {
	ID          bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string          `bson:"title" json:"title"`
	Summary     string          `bson:"summary" json:"summary"`
	Content     string          `bson:"content" json:"content"`
	Ingredients []Ingredient    `bson:"ingredients" json:"ingredients"`
	Steps       []string        `bson:"steps" json:"steps"`
	Time        CookTime        `bson:"time" json:"time"`
	Difficulty  Difficulty      `bson:"difficulty" json:"difficulty"`
	Servings    int             `bson:"servings" json:"servings"`
	Tags        []string        `bson:"tags" json:"tags"`
	Thumbnail   string          `bson:"thumbnail" json:"thumbnail"`
	Images      []string        `bson:"images" json:"images"`
	CreatedBy   bson.ObjectID   `bson:"createdBy" json:"createdBy"`
	IsHidden    bool            `bson:"isHidden" json:"isHidden"`
	Likes       []bson.ObjectID `bson:"likes" json:"likes"`
	Ratings     []Rating        `bson:"ratings" json:"ratings"`
	Comments    []Comment       `bson:"comments" json:"comments"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`

	// Only filled by the listing aggregation
	Author *PublicUser `bson:"author,omitempty" json:"author,omitempty"`
}

// Normalize replaces nil slices and zero values with the stored defaults
func (r *Recipe) Normalize() {
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Steps == nil {
		r.Steps = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if r.Likes == nil {
		r.Likes = []bson.ObjectID{}
	}
	if r.Ratings == nil {
		r.Ratings = []Rating{}
	}
	if r.Comments == nil {
		r.Comments = []Comment{}
	}
	if r.Servings <= 0 {
		r.Servings = 1
	}
	if r.Difficulty == "" {
		r.Difficulty = DifficultyEasy
	}
}

func (r *Recipe) LikedBy(userID bson.ObjectID) bool {
	for _, id := range r.Likes {
		if id == userID {
			return true
		}
	}

	return false
}

func (r *Recipe) RatingBy(userID bson.ObjectID) *Rating {
	for i := range r.Ratings {
		if r.Ratings[i].User == userID {
			return &r.Ratings[i]
		}
	}

	return nil
}

func (r *Recipe) CommentByID(id bson.ObjectID) *Comment {
	for i := range r.Comments {
		if r.Comments[i].ID == id {
			return &r.Comments[i]
		}
	}

	return nil
}

type RatingStats struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
}

// Stats averages the ratings rounded to two decimals
func (r *Recipe) Stats() RatingStats {
	if len(r.Ratings) == 0 {
		return RatingStats{}
	}

	sum := 0
	for _, rt := range r.Ratings {
		sum += rt.Stars
	}

	avg := float64(sum) / float64(len(r.Ratings))

	return RatingStats{
		Count: len(r.Ratings),
		Avg:   math.Round(avg*100) / 100,
	}
}
