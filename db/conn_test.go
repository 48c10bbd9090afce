package db

import (
	"testing"

	"bitwise74/recipe-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func isUnique(t *testing.T, m mongo.IndexModel) bool {
	t.Helper()

	if m.Options == nil {
		return false
	}

	o := &options.IndexOptions{}
	for _, set := range m.Options.List() {
		require.NoError(t, set(o))
	}

	return o.Unique != nil && *o.Unique
}

func TestIndexes_UniqueUserKeys(t *testing.T) {
	idx := Indexes()

	unique := map[string]bool{}
	for _, m := range idx[model.UserCollection] {
		keys := m.Keys.(bson.D)
		unique[keys[0].Key] = isUnique(t, m)
	}

	assert.True(t, unique["email"])
	assert.True(t, unique["username"])
	assert.False(t, unique["emailVerification.tokenHash"])

	assert.NotEmpty(t, idx[model.RecipeCollection])
	assert.NotEmpty(t, idx[model.BlogCollection])
}
