package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/models"
)

func TestInsertOne_AssignsID(t *testing.T) {
	repo := New("resources")
	ctx := context.Background()

	in := &models.Resource{Title: "GI Bill", Category: models.CategoryEducation, Tags: []string{"gi bill"}}
	id, err := repo.InsertOne(ctx, in)
	require.NoError(t, err)
	assert.False(t, id.IsZero())
	assert.True(t, in.ID.IsZero(), "caller's record must not be mutated")

	got, err := repo.Find(ctx, filter.Equals(models.FieldID, id), repository.FindOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GI Bill", got[0].Title)
	assert.Equal(t, []string{"gi bill"}, got[0].Tags)
}

func TestInsertOne_KeepsIDAndRejectsDuplicates(t *testing.T) {
	repo := New("resources")
	ctx := context.Background()
	id := primitive.NewObjectID()

	got, err := repo.InsertOne(ctx, &models.Resource{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = repo.InsertOne(ctx, &models.Resource{ID: id})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
	assert.Equal(t, 1, repo.Len())
}

func TestInsertOne_StampsTimestamps(t *testing.T) {
	repo := New("resources")
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.Clock = func() time.Time { return stamp }
	ctx := context.Background()

	id, err := repo.InsertOne(ctx, &models.Resource{Title: "fresh"})
	require.NoError(t, err)

	created := stamp.Add(-48 * time.Hour)
	keptID, err := repo.InsertOne(ctx, &models.Resource{Title: "moved", CreatedAt: created})
	require.NoError(t, err)

	got, err := repo.Find(ctx, filter.Equals(models.FieldID, id), repository.FindOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stamp, got[0].CreatedAt)
	assert.Equal(t, stamp, got[0].UpdatedAt)

	got, err = repo.Find(ctx, filter.Equals(models.FieldID, keptID), repository.FindOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created, got[0].CreatedAt, "existing createdAt is preserved")
	assert.Equal(t, stamp, got[0].UpdatedAt)
}

func TestFind_ReturnsCopies(t *testing.T) {
	repo := New("resources")
	repo.Seed(models.Resource{Title: "A", Tags: []string{"x"}})

	got, err := repo.Find(context.Background(), filter.MatchAll(), repository.FindOptions{})
	require.NoError(t, err)
	got[0].Tags[0] = "mutated"

	again, err := repo.Find(context.Background(), filter.MatchAll(), repository.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x", again[0].Tags[0])
}

func TestFind_SortAndLimit(t *testing.T) {
	repo := New("resources")
	now := time.Now()
	repo.Seed(
		models.Resource{Title: "one", DateAdded: now.Add(-3 * time.Hour)},
		models.Resource{Title: "two", DateAdded: now.Add(-2 * time.Hour)},
		models.Resource{Title: "three", DateAdded: now.Add(-1 * time.Hour)},
	)

	got, err := repo.Find(context.Background(), filter.MatchAll(), repository.FindOptions{
		Sort:  []repository.SortField{{Field: models.FieldDateAdded, Desc: true}},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Title)
	assert.Equal(t, "two", got[1].Title)
}

func TestCountAndCountByCategory(t *testing.T) {
	repo := New("resources")
	repo.Seed(
		models.Resource{Category: models.CategoryHealth},
		models.Resource{Category: models.CategoryHealth},
		models.Resource{Category: models.CategoryJobs},
		models.Resource{},
	)
	ctx := context.Background()

	n, err := repo.Count(ctx, filter.Equals(models.FieldCategory, "health"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	counts, err := repo.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Category]int64{
		models.CategoryHealth:    2,
		models.CategoryJobs:      1,
		models.CategoryUndefined: 1,
	}, counts)
}

func TestDeleteAndUpdate(t *testing.T) {
	repo := New("resources")
	ids := repo.Seed(models.Resource{Title: "A"})
	ctx := context.Background()

	ok, err := repo.UpdateOne(ctx, ids[0], map[string]any{
		models.FieldNote:     "reviewed",
		models.FieldCategory: "local",
		"website":            "https://example.org",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Find(ctx, filter.MatchAll(), repository.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "reviewed", got[0].Note)
	assert.Equal(t, models.CategoryLocal, got[0].Category)
	assert.Equal(t, "https://example.org", got[0].Extra["website"])

	_, err = repo.UpdateOne(ctx, ids[0], map[string]any{models.FieldFeatured: "yes"})
	assert.ErrorIs(t, err, repository.ErrRepository)

	ok, err = repo.UpdateOne(ctx, primitive.NewObjectID(), map[string]any{models.FieldNote: "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteOne(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeleteOne(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, repo.Len())
}

func TestFaultInjection(t *testing.T) {
	repo := New("resources")
	boom := errors.New("boom")
	repo.FailFind = func() error { return boom }
	repo.FailInsert = func(*models.Resource) error { return boom }
	repo.FailDelete = func(primitive.ObjectID) error { return boom }
	ctx := context.Background()

	_, err := repo.Find(ctx, filter.MatchAll(), repository.FindOptions{})
	assert.ErrorIs(t, err, repository.ErrRepository)
	assert.ErrorIs(t, err, boom)

	_, err = repo.InsertOne(ctx, &models.Resource{})
	assert.ErrorIs(t, err, repository.ErrRepository)

	_, err = repo.DeleteOne(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrRepository)
}

func TestCancelledContext(t *testing.T) {
	repo := New("resources")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Find(ctx, filter.MatchAll(), repository.FindOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPartitions(t *testing.T) {
	p := NewPartitions()
	assert.Equal(t, "healthResources", p.Get(models.CategoryHealth).Name())
	assert.Equal(t, "undefinedResources", p.Get(models.Category("bogus")).Name())
	assert.Len(t, p.All(), len(models.AllCategories()))
	assert.Same(t, p.Get(models.CategoryJobs), p.Partition(models.CategoryJobs))
}
