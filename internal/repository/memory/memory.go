// Package memory is an in-process Repository used for tests and local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/models"
)

// Repository keeps resources in insertion order
type Repository struct {
	name string

	mu   sync.RWMutex
	docs []*models.Resource

	// fault injection; a non-nil hook returning an error fails the call
	FailFind   func() error
	FailInsert func(r *models.Resource) error
	FailDelete func(id primitive.ObjectID) error

	// Clock stamps inserts; nil means time.Now
	Clock func() time.Time
}

// New creates an empty repository named after its partition
func New(name string) *Repository {
	return &Repository{name: name}
}

// Name returns the partition name
func (m *Repository) Name() string { return m.name }

// Len returns the number of stored records
func (m *Repository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Seed inserts records, panicking on duplicates. For tests.
func (m *Repository) Seed(rs ...models.Resource) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(rs))
	for i := range rs {
		id, err := m.InsertOne(context.Background(), &rs[i])
		if err != nil {
			panic(err)
		}
		ids = append(ids, id)
	}
	return ids
}

func (m *Repository) wrap(op string, err error) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return fmt.Errorf("%s %s: %w", op, m.name, err)
	}
	return &repository.RepositoryError{Op: op, Partition: m.name, Err: err}
}

func (m *Repository) Find(ctx context.Context, pred filter.Predicate, opts repository.FindOptions) ([]models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, m.wrap("find", err)
	}
	if m.FailFind != nil {
		if err := m.FailFind(); err != nil {
			return nil, m.wrap("find", err)
		}
	}

	m.mu.RLock()
	out := make([]models.Resource, 0)
	for _, d := range m.docs {
		if repository.Match(pred, d) {
			out = append(out, *d.Clone())
		}
	}
	m.mu.RUnlock()

	repository.SortResources(out, opts.Sort)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *Repository) Count(ctx context.Context, pred filter.Predicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, m.wrap("count", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, d := range m.docs {
		if repository.Match(pred, d) {
			n++
		}
	}
	return n, nil
}

func (m *Repository) CountByCategory(ctx context.Context) (map[models.Category]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, m.wrap("aggregate", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[models.Category]int64)
	for _, d := range m.docs {
		c := d.Category
		if c == "" {
			c = models.CategoryUndefined
		}
		counts[c]++
	}
	return counts, nil
}

func (m *Repository) InsertOne(ctx context.Context, r *models.Resource) (primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return primitive.NilObjectID, m.wrap("insert", err)
	}
	if m.FailInsert != nil {
		if err := m.FailInsert(r); err != nil {
			return primitive.NilObjectID, m.wrap("insert", err)
		}
	}

	doc := r.Clone()
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now
	if m.Clock != nil {
		now = m.Clock
	}
	repository.StampInsert(doc, now().UTC())

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == doc.ID {
			return primitive.NilObjectID, m.wrap("insert", repository.ErrDuplicateKey)
		}
	}
	m.docs = append(m.docs, doc)
	return doc.ID, nil
}

func (m *Repository) DeleteOne(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, m.wrap("delete", err)
	}
	if m.FailDelete != nil {
		if err := m.FailDelete(id); err != nil {
			return false, m.wrap("delete", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *Repository) UpdateOne(ctx context.Context, id primitive.ObjectID, fields map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, m.wrap("update", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID != id {
			continue
		}
		for k, v := range fields {
			if err := setField(d, k, v); err != nil {
				return false, m.wrap("update", err)
			}
		}
		return true, nil
	}
	return false, nil
}

func setField(r *models.Resource, field string, v any) error {
	var ok bool
	switch field {
	case models.FieldTitle:
		r.Title, ok = v.(string)
	case models.FieldDescription:
		r.Description, ok = v.(string)
	case models.FieldCategory:
		switch c := v.(type) {
		case models.Category:
			r.Category, ok = c, true
		case string:
			r.Category, ok = models.Category(c), true
		}
	case models.FieldSubcategory:
		r.Subcategory, ok = v.(string)
	case models.FieldTags:
		r.Tags, ok = v.([]string)
	case models.FieldSource:
		r.Source, ok = v.(string)
	case models.FieldSourceName:
		r.SourceName, ok = v.(string)
	case models.FieldFeatured:
		r.Featured, ok = v.(bool)
	case models.FieldIsPremiumContent:
		r.IsPremiumContent, ok = v.(bool)
	case models.FieldDateAdded:
		r.DateAdded, ok = v.(time.Time)
	case models.FieldCreatedAt:
		r.CreatedAt, ok = v.(time.Time)
	case models.FieldUpdatedAt:
		r.UpdatedAt, ok = v.(time.Time)
	case models.FieldNote:
		r.Note, ok = v.(string)
	case models.FieldID:
		return errors.New("_id is immutable")
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[field] = v
		ok = true
	}
	if !ok {
		return fmt.Errorf("field %s: unexpected type %T", field, v)
	}
	return nil
}

// Partitions is an in-memory Partitions with one Repository per category
type Partitions struct {
	repos map[models.Category]*Repository
}

// NewPartitions creates an empty repository for every category
func NewPartitions() *Partitions {
	repos := make(map[models.Category]*Repository)
	for _, c := range models.AllCategories() {
		repos[c] = New(c.Partition())
	}
	return &Partitions{repos: repos}
}

func (p *Partitions) Partition(c models.Category) repository.Repository {
	return p.Get(c)
}

// Get returns the concrete repository for c, for seeding and fault injection
func (p *Partitions) Get(c models.Category) *Repository {
	if r, ok := p.repos[c]; ok {
		return r
	}
	return p.repos[models.CategoryUndefined]
}

// All returns every partition in canonical category order
func (p *Partitions) All() []repository.Repository {
	out := make([]repository.Repository, 0, len(p.repos))
	for _, c := range models.AllCategories() {
		out = append(out, p.repos[c])
	}
	return out
}
