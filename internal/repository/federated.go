package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/models"
)

// Federated is a read-only view over several partitions.
// Results are merged and de-duplicated by id; the most recently updated copy wins.
type Federated struct {
	parts []Repository
}

// NewFederated builds a view over parts
func NewFederated(parts ...Repository) *Federated {
	return &Federated{parts: parts}
}

func (f *Federated) Find(ctx context.Context, pred filter.Predicate, opts FindOptions) ([]models.Resource, error) {
	results := make([][]models.Resource, len(f.parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range f.parts {
		i, part := i, part
		g.Go(func() error {
			// each partition is capped at the final limit; the merge is re-capped below
			rs, err := part.Find(gctx, pred, opts)
			if err != nil {
				return err
			}
			results[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := dedupe(results)
	SortResources(merged, opts.Sort)
	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, nil
}

func dedupe(results [][]models.Resource) []models.Resource {
	index := make(map[primitive.ObjectID]int)
	merged := make([]models.Resource, 0)
	for _, rs := range results {
		for _, r := range rs {
			if i, seen := index[r.ID]; seen {
				if r.UpdatedAt.After(merged[i].UpdatedAt) {
					merged[i] = r
				}
				continue
			}
			index[r.ID] = len(merged)
			merged = append(merged, r)
		}
	}
	return merged
}

// Count sums partition counts. A record present in two partitions counts twice.
func (f *Federated) Count(ctx context.Context, pred filter.Predicate) (int64, error) {
	counts := make([]int64, len(f.parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range f.parts {
		i, part := i, part
		g.Go(func() error {
			n, err := part.Count(gctx, pred)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (f *Federated) CountByCategory(ctx context.Context) (map[models.Category]int64, error) {
	partial := make([]map[models.Category]int64, len(f.parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range f.parts {
		i, part := i, part
		g.Go(func() error {
			m, err := part.CountByCategory(gctx)
			partial[i] = m
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[models.Category]int64)
	for _, m := range partial {
		for c, n := range m {
			counts[c] += n
		}
	}
	return counts, nil
}

func (f *Federated) InsertOne(context.Context, *models.Resource) (primitive.ObjectID, error) {
	return primitive.NilObjectID, ErrReadOnly
}

func (f *Federated) DeleteOne(context.Context, primitive.ObjectID) (bool, error) {
	return false, ErrReadOnly
}

func (f *Federated) UpdateOne(context.Context, primitive.ObjectID, map[string]any) (bool, error) {
	return false, ErrReadOnly
}
