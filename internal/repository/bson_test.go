package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/models"
)

func TestToBSON_MatchAll(t *testing.T) {
	doc, err := ToBSON(filter.MatchAll(), false)
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, doc)

	doc, err = ToBSON(nil, false)
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, doc)
}

func TestToBSON_Conditions(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name string
		pred filter.Predicate
		want bson.M
	}{
		{
			name: "equals",
			pred: filter.Equals(models.FieldCategory, "health"),
			want: bson.M{"category": "health"},
		},
		{
			name: "equals category value",
			pred: filter.Equals(models.FieldCategory, models.CategoryJobs),
			want: bson.M{"category": "jobs"},
		},
		{
			name: "not equals",
			pred: filter.NotEquals(models.FieldID, id),
			want: bson.M{"_id": bson.M{"$ne": id}},
		},
		{
			name: "regex",
			pred: filter.RegexContains(models.FieldTitle, "va", true),
			want: bson.M{"title": bson.M{"$regex": "va", "$options": "i"}},
		},
		{
			name: "any",
			pred: filter.ArrayContainsAny(models.FieldTags, []string{"a", "b"}),
			want: bson.M{"tags": bson.M{"$in": []string{"a", "b"}}},
		},
		{
			name: "all",
			pred: filter.ArrayContainsAll(models.FieldTags, []string{"a"}),
			want: bson.M{"tags": bson.M{"$all": []string{"a"}}},
		},
		{
			name: "single child and collapses",
			pred: filter.And(filter.Equals(models.FieldFeatured, false)),
			want: bson.M{"featured": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ToBSON(tt.pred, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc)
		})
	}
}

func TestToBSON_Groups(t *testing.T) {
	pred := filter.And(
		filter.Equals(models.FieldCategory, "health"),
		filter.Or(
			filter.Equals(models.FieldSource, "government"),
			filter.Equals(models.FieldSource, "nonprofit"),
		),
	)

	doc, err := ToBSON(pred, false)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"category": "health"},
		bson.M{"$or": bson.A{
			bson.M{"source": "government"},
			bson.M{"source": "nonprofit"},
		}},
	}}, doc)
}

func TestToBSON_TextSearch(t *testing.T) {
	doc, err := ToBSON(filter.TextSearch("gi bill"), true)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$text": bson.M{"$search": "gi bill"}}, doc)

	doc, err = ToBSON(filter.TextSearch("a.b"), false)
	require.NoError(t, err)
	or, ok := doc["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	assert.Equal(t, bson.M{"title": bson.M{"$regex": `a\.b`, "$options": "i"}}, or[0])
}

func TestToSort(t *testing.T) {
	assert.Equal(t, bson.D{
		{Key: "featured", Value: -1},
		{Key: "dateAdded", Value: -1},
		{Key: "updatedAt", Value: -1},
	}, ToSort(DefaultSort()))
}
