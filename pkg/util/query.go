// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"strconv"
	"strings"

	"bitwise74/recipe-api/pkg/apperr"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ParseID turns a hex path parameter into an ObjectID
func ParseID(s string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return bson.NilObjectID, apperr.ErrInvalidID.Wrap(err)
	}

	return id, nil
}

// Pagination reads page and limit, falling back to defaults for anything
// missing or out of range
func Pagination(pageStr, limitStr string) (page, limit int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return page, limit
}

// SplitList accepts "a,b" as well as repeated query values
func SplitList(values []string) []string {
	out := []string{}

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

var sortKeys = map[string]bson.D{
	"newest":       {{Key: "createdAt", Value: -1}},
	"created_desc": {{Key: "createdAt", Value: -1}},
	"oldest":       {{Key: "createdAt", Value: 1}},
	"created_asc":  {{Key: "createdAt", Value: 1}},
	"updated_desc": {{Key: "updatedAt", Value: -1}},
	"updated_asc":  {{Key: "updatedAt", Value: 1}},
	"popular":      {{Key: "likesCount", Value: -1}, {Key: "createdAt", Value: -1}},
	"most_liked":   {{Key: "likesCount", Value: -1}, {Key: "createdAt", Value: -1}},
	"likes_desc":   {{Key: "likesCount", Value: -1}, {Key: "createdAt", Value: -1}},
	"top":          {{Key: "avgRating", Value: -1}, {Key: "createdAt", Value: -1}},
	"rating_desc":  {{Key: "avgRating", Value: -1}, {Key: "createdAt", Value: -1}},
}

// ParseSort maps a named sort to a sort document. Unknown names sort by newest.
func ParseSort(s string) bson.D {
	if d, ok := sortKeys[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d
	}

	return sortKeys["newest"]
}
