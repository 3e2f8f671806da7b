// Package repository defines the persistence capability the engine depends on
// and provides MongoDB, in-memory and federated implementations of it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/models"
)

var (
	// ErrRepository is matched by every RepositoryError
	ErrRepository = errors.New("repository failure")

	// ErrDuplicateKey is returned by InsertOne when a uniqueness constraint is violated
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrReadOnly is returned by writes against a read-only view
	ErrReadOnly = errors.New("repository is read-only")
)

// RepositoryError wraps a failure of the underlying store
type RepositoryError struct {
	Op        string
	Partition string
	Err       error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Partition, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepository
}

// SortField orders results by Field
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions controls ordering and result size. Limit 0 means unbounded.
type FindOptions struct {
	Sort  []SortField
	Limit int
}

// Repository is a single partition (or a view across several)
type Repository interface {
	Find(ctx context.Context, pred filter.Predicate, opts FindOptions) ([]models.Resource, error)
	Count(ctx context.Context, pred filter.Predicate) (int64, error)
	// CountByCategory aggregates counts per distinct category value in one call
	CountByCategory(ctx context.Context) (map[models.Category]int64, error)
	// InsertOne assigns an id when r.ID is zero and keeps it otherwise
	InsertOne(ctx context.Context, r *models.Resource) (primitive.ObjectID, error)
	DeleteOne(ctx context.Context, id primitive.ObjectID) (bool, error)
	UpdateOne(ctx context.Context, id primitive.ObjectID, fields map[string]any) (bool, error)
}

// Partitions resolves the repository holding one category
type Partitions interface {
	Partition(c models.Category) Repository
}

// DefaultSort is featured first, then newest
func DefaultSort() []SortField {
	return []SortField{
		{Field: models.FieldFeatured, Desc: true},
		{Field: models.FieldDateAdded, Desc: true},
		{Field: models.FieldUpdatedAt, Desc: true},
	}
}

// StampInsert fills the write timestamps a caller left unset.
// Timestamps already present are kept so moves preserve createdAt.
func StampInsert(r *models.Resource, now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
}
