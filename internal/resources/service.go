// Package resources answers resource queries on top of a Repository.
package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"vet1stop-platform/internal/cache"
	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/models"
)

// DefaultRelatedLimit caps related results when the caller passes no limit
const DefaultRelatedLimit = 3

// ErrNotFound is matched by every NotFoundError
var ErrNotFound = errors.New("resource not found")

// NotFoundError reports an id with no matching record
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Service is the query surface of the engine
type Service struct {
	repo   repository.Repository
	counts cache.CountsCache
	logger *slog.Logger
}

// NewService wires a service. counts may be nil.
func NewService(repo repository.Repository, counts cache.CountsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, counts: counts, logger: logger}
}

// GetResources returns resources matching opts, featured first then newest.
// No match yields an empty slice, not an error.
func (s *Service) GetResources(ctx context.Context, opts filter.Options) ([]models.Resource, error) {
	ctx, span := otel.Tracer("resources").Start(ctx, "resources.get")
	defer span.End()

	q, err := filter.Build(opts)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("resources.predicate", q.Predicate.String()))

	out, err := s.repo.Find(ctx, q.Predicate, repository.FindOptions{
		Sort:  repository.DefaultSort(),
		Limit: q.Limit,
	})
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []models.Resource{}
	}
	span.SetAttributes(attribute.Int("resources.count", len(out)))
	return out, nil
}

// GetResourceByID returns the resource with the given hex id
func (s *Service) GetResourceByID(ctx context.Context, id string) (*models.Resource, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &NotFoundError{ID: id}
	}

	out, err := s.repo.Find(ctx, filter.Equals(models.FieldID, oid), repository.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &NotFoundError{ID: id}
	}
	return &out[0], nil
}

// GetResourceCounts returns counts per category over the whole collection.
// Counts ignore every filter.
func (s *Service) GetResourceCounts(ctx context.Context) (map[models.Category]int64, error) {
	if s.counts != nil {
		counts, ok, err := s.counts.Get(ctx)
		if err != nil {
			s.logger.Warn("counts cache read failed", "error", err)
		}
		if ok {
			return counts, nil
		}
	}

	counts, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	if s.counts != nil {
		if err := s.counts.Set(ctx, counts); err != nil {
			s.logger.Warn("counts cache write failed", "error", err)
		}
	}
	return counts, nil
}

// GetRelatedResources returns other resources in the same category sharing
// at least one tag, newest first
func (s *Service) GetRelatedResources(ctx context.Context, id string, limit int) ([]models.Resource, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	src, err := s.GetResourceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(src.Tags) == 0 {
		return []models.Resource{}, nil
	}

	pred := filter.And(
		filter.Equals(models.FieldCategory, src.Category),
		filter.ArrayContainsAny(models.FieldTags, src.Tags),
		filter.NotEquals(models.FieldID, src.ID),
	)
	out, err := s.repo.Find(ctx, pred, repository.FindOptions{
		Sort:  []repository.SortField{{Field: models.FieldDateAdded, Desc: true}},
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.Resource{}
	}
	return out, nil
}
