package resources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vet1stop-platform/internal/cache"
	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/internal/repository/memory"
	"vet1stop-platform/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedHealth(repo *memory.Repository) []primitive.ObjectID {
	return repo.Seed(
		models.Resource{Title: "h1", Category: models.CategoryHealth, Tags: []string{"ngo", "ptsd"}, DateAdded: base.Add(1 * time.Hour)},
		models.Resource{Title: "h2", Category: models.CategoryHealth, Tags: []string{"va"}, DateAdded: base.Add(2 * time.Hour)},
		models.Resource{Title: "h3", Category: models.CategoryHealth, Tags: []string{"ngo"}, DateAdded: base.Add(3 * time.Hour)},
		models.Resource{Title: "h4", Category: models.CategoryHealth, DateAdded: base.Add(4 * time.Hour)},
		models.Resource{Title: "h5", Category: models.CategoryHealth, Tags: []string{"counseling"}, DateAdded: base.Add(5 * time.Hour), Featured: true},
		models.Resource{Title: "j1", Category: models.CategoryJobs, Tags: []string{"ngo"}, DateAdded: base.Add(6 * time.Hour)},
	)
}

func titles(rs []models.Resource) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestGetResources_NoOptionsReturnsEverythingSorted(t *testing.T) {
	repo := memory.New("resources")
	seedHealth(repo)
	svc := NewService(repo, nil, nil)

	got, err := svc.GetResources(context.Background(), filter.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"h5", "j1", "h4", "h3", "h2", "h1"}, titles(got))
}

func TestGetResources_CategoryAndTag(t *testing.T) {
	repo := memory.New("resources")
	seedHealth(repo)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	got, err := svc.GetResources(ctx, filter.Options{Category: strPtr("health"), Tags: []string{"ngo"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h1", "h3"}, titles(got))

	counts, err := svc.GetResourceCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, counts[models.CategoryHealth], "counts ignore the tag filter")
}

func TestGetResources_TagsUseAndSemantics(t *testing.T) {
	repo := memory.New("resources")
	seedHealth(repo)
	svc := NewService(repo, nil, nil)

	tags := []string{"ngo", "ptsd"}
	got, err := svc.GetResources(context.Background(), filter.Options{Tags: tags})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, r := range got {
		for _, tag := range tags {
			assert.True(t, r.HasTag(tag), "%s missing tag %s", r.Title, tag)
		}
	}
	assert.Equal(t, []string{"h1"}, titles(got))
}

func TestGetResources_EmptyIsNotAnError(t *testing.T) {
	svc := NewService(memory.New("resources"), nil, nil)
	got, err := svc.GetResources(context.Background(), filter.Options{Category: strPtr("shop")})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetResources_InvalidFilter(t *testing.T) {
	svc := NewService(memory.New("resources"), nil, nil)
	_, err := svc.GetResources(context.Background(), filter.Options{Limit: intPtr(0)})
	assert.ErrorIs(t, err, filter.ErrInvalidFilter)
}

// greedyRepo ignores the limit to prove the service caps results itself
type greedyRepo struct {
	*memory.Repository
}

func (g greedyRepo) Find(ctx context.Context, pred filter.Predicate, opts repository.FindOptions) ([]models.Resource, error) {
	opts.Limit = 0
	return g.Repository.Find(ctx, pred, opts)
}

func TestGetResources_LimitIsNeverExceeded(t *testing.T) {
	repo := memory.New("resources")
	seedHealth(repo)
	svc := NewService(greedyRepo{repo}, nil, nil)

	got, err := svc.GetResources(context.Background(), filter.Options{Limit: intPtr(2)})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetResources_RepositoryErrorSurfaces(t *testing.T) {
	repo := memory.New("resources")
	repo.FailFind = func() error { return errors.New("connection reset") }
	svc := NewService(repo, nil, nil)

	_, err := svc.GetResources(context.Background(), filter.Options{})
	assert.ErrorIs(t, err, repository.ErrRepository)
}

func TestGetResourceByID_RoundTrip(t *testing.T) {
	repo := memory.New("resources")
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	in := models.Resource{
		Title:            "Vet Center",
		Description:      "Readjustment counseling",
		Category:         models.CategoryHealth,
		Subcategory:      "mental-health",
		Tags:             []string{"ptsd", "counseling"},
		Source:           "government",
		SourceName:       "VA",
		Featured:         true,
		IsPremiumContent: false,
		DateAdded:        base,
		Extra:            map[string]any{"phone": "877-927-8387"},
	}
	id, err := repo.InsertOne(ctx, &in)
	require.NoError(t, err)

	got, err := svc.GetResourceByID(ctx, id.Hex())
	require.NoError(t, err)

	assert.False(t, got.CreatedAt.IsZero(), "createdAt is stamped on insert")
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)

	in.ID = id
	in.CreatedAt = got.CreatedAt
	in.UpdatedAt = got.UpdatedAt
	assert.Equal(t, in, *got)
}

func TestGetResourceByID_NotFound(t *testing.T) {
	svc := NewService(memory.New("resources"), nil, nil)
	ctx := context.Background()

	_, err := svc.GetResourceByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetResourceByID(ctx, "not-a-hex-id")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "not-a-hex-id", nf.ID)
}

func TestGetResourceCounts_UsesCache(t *testing.T) {
	repo := memory.New("resources")
	seedHealth(repo)
	counts := cache.NewMemoryCountsCache(time.Minute)
	svc := NewService(repo, counts, nil)
	ctx := context.Background()

	first, err := svc.GetResourceCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, first[models.CategoryHealth])
	assert.EqualValues(t, 1, first[models.CategoryJobs])

	repo.Seed(models.Resource{Category: models.CategoryHealth})
	cached, err := svc.GetResourceCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, cached[models.CategoryHealth])

	require.NoError(t, counts.Invalidate(ctx))
	fresh, err := svc.GetResourceCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, fresh[models.CategoryHealth])
}

func TestGetRelatedResources(t *testing.T) {
	repo := memory.New("resources")
	ids := repo.Seed(
		models.Resource{Title: "source", Category: models.CategoryHealth, Tags: []string{"ptsd", "counseling"}, DateAdded: base},
		models.Resource{Title: "old-ptsd", Category: models.CategoryHealth, Tags: []string{"ptsd"}, DateAdded: base.Add(1 * time.Hour)},
		models.Resource{Title: "new-counseling", Category: models.CategoryHealth, Tags: []string{"counseling"}, DateAdded: base.Add(5 * time.Hour)},
		models.Resource{Title: "mid-both", Category: models.CategoryHealth, Tags: []string{"ptsd", "counseling"}, DateAdded: base.Add(3 * time.Hour)},
		models.Resource{Title: "newest-ptsd", Category: models.CategoryHealth, Tags: []string{"ptsd"}, DateAdded: base.Add(9 * time.Hour)},
		models.Resource{Title: "other-category", Category: models.CategoryJobs, Tags: []string{"ptsd"}, DateAdded: base.Add(10 * time.Hour)},
		models.Resource{Title: "no-shared-tag", Category: models.CategoryHealth, Tags: []string{"dental"}, DateAdded: base.Add(11 * time.Hour)},
	)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	got, err := svc.GetRelatedResources(ctx, ids[0].Hex(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest-ptsd", "new-counseling", "mid-both"}, titles(got))

	got, err = svc.GetRelatedResources(ctx, ids[0].Hex(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest-ptsd", "new-counseling", "mid-both", "old-ptsd"}, titles(got))
	for _, r := range got {
		assert.NotEqual(t, ids[0], r.ID)
		assert.Equal(t, models.CategoryHealth, r.Category)
	}
}

func TestGetRelatedResources_Edges(t *testing.T) {
	repo := memory.New("resources")
	ids := repo.Seed(models.Resource{Title: "untagged", Category: models.CategoryHealth})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	got, err := svc.GetRelatedResources(ctx, ids[0].Hex(), 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.GetRelatedResources(ctx, primitive.NewObjectID().Hex(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}
