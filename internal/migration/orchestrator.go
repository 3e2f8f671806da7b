// Package migration moves resources out of the undefined partition into the
// partition chosen by the keyword categorizer.
//
// Records are processed one at a time. A move inserts at the destination first
// and deletes the source only after the insert succeeded, so a failure can leave
// a duplicate but never loses a record.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"vet1stop-platform/internal/cache"
	"vet1stop-platform/internal/categorize"
	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/internal/telemetry"
	"vet1stop-platform/models"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("reclassification already running")

// Outcome of processing one record
type Outcome string

const (
	OutcomeMoved         Outcome = "moved"
	OutcomePlanned       Outcome = "planned"
	OutcomeUncategorized Outcome = "uncategorized"
	OutcomeFailed        Outcome = "failed"
	OutcomePartial       Outcome = "partial"
)

// AuditEntry is one line of the run's audit trail
type AuditEntry struct {
	ResourceID    string          `json:"resourceId"`
	Title         string          `json:"title"`
	FromPartition string          `json:"fromPartition"`
	ToPartition   string          `json:"toPartition,omitempty"`
	Category      models.Category `json:"category"`
	Keyword       string          `json:"keyword,omitempty"`
	Outcome       Outcome         `json:"outcome"`
	Error         string          `json:"error,omitempty"`
	At            time.Time       `json:"at"`
}

// Summary is the result of a run
type Summary struct {
	RunID         string                  `json:"runId"`
	StartedAt     time.Time               `json:"startedAt"`
	FinishedAt    time.Time               `json:"finishedAt"`
	DryRun        bool                    `json:"dryRun"`
	Cancelled     bool                    `json:"cancelled"`
	Scanned       int                     `json:"scanned"`
	Moved         map[models.Category]int `json:"moved"`
	Uncategorized int                     `json:"uncategorized"`
	Failed        int                     `json:"failed"`
	PartialMoves  int                     `json:"partialMoves"`
	Audit         []AuditEntry            `json:"audit"`
}

// TotalMoved sums moves across categories
func (s *Summary) TotalMoved() int {
	n := 0
	for _, c := range s.Moved {
		n += c
	}
	return n
}

// RunOptions controls a single run
type RunOptions struct {
	// DryRun categorizes and reports without writing
	DryRun bool
}

// Orchestrator runs reclassification over a set of partitions
type Orchestrator struct {
	partitions  repository.Partitions
	categorizer *categorize.Categorizer
	counts      cache.CountsCache
	metrics     *telemetry.Metrics
	logger      *slog.Logger
	now         func() time.Time

	running sync.Mutex
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithCountsCache invalidates counts after a run that moved records
func WithCountsCache(c cache.CountsCache) Option {
	return func(o *Orchestrator) { o.counts = c }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator. A nil categorizer uses the default rules.
func NewOrchestrator(partitions repository.Partitions, categorizer *categorize.Categorizer, opts ...Option) *Orchestrator {
	if categorizer == nil {
		categorizer = categorize.Default()
	}
	o := &Orchestrator{
		partitions:  partitions,
		categorizer: categorizer,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run reclassifies every record of the undefined partition.
// Reading the source partition is the only fatal failure. Cancellation is
// honored between records and yields a summary with Cancelled set.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if !o.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.running.Unlock()

	source := o.partitions.Partition(models.CategoryUndefined)
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
		DryRun:    opts.DryRun,
		Moved:     make(map[models.Category]int),
		Audit:     make([]AuditEntry, 0),
	}
	log := o.logger.With("run_id", summary.RunID, "dry_run", opts.DryRun)
	log.Info("reclassification started", "source", models.CategoryUndefined.Partition())

	records, err := source.Find(ctx, filter.MatchAll(), repository.FindOptions{})
	if err != nil {
		log.Error("reading source partition failed", "error", err)
		return nil, fmt.Errorf("read %s: %w", models.CategoryUndefined.Partition(), err)
	}

	// records in flight finish even when ctx is cancelled
	recordCtx := context.WithoutCancel(ctx)

	for i := range records {
		if ctx.Err() != nil {
			summary.Cancelled = true
			log.Warn("reclassification cancelled", "processed", summary.Scanned, "remaining", len(records)-i)
			break
		}
		summary.Scanned++
		entry := o.process(recordCtx, log, source, &records[i], opts.DryRun)
		o.tally(summary, entry)
		summary.Audit = append(summary.Audit, entry)
	}

	summary.FinishedAt = o.now()

	if !opts.DryRun && summary.TotalMoved() > 0 && o.counts != nil {
		if err := o.counts.Invalidate(recordCtx); err != nil {
			log.Warn("counts cache invalidation failed", "error", err)
		}
	}

	log.Info("reclassification finished",
		"scanned", summary.Scanned,
		"moved", summary.TotalMoved(),
		"uncategorized", summary.Uncategorized,
		"failed", summary.Failed,
		"partial_moves", summary.PartialMoves,
		"cancelled", summary.Cancelled,
	)
	return summary, nil
}

func (o *Orchestrator) process(ctx context.Context, log *slog.Logger, source repository.Repository, r *models.Resource, dryRun bool) AuditEntry {
	match := o.categorizer.CategorizeResource(r)
	entry := AuditEntry{
		ResourceID:    r.ID.Hex(),
		Title:         r.Title,
		FromPartition: models.CategoryUndefined.Partition(),
		Category:      match.Category,
		Keyword:       match.Keyword,
		At:            o.now(),
	}

	if !match.Matched() || match.Category == models.CategoryUndefined {
		entry.Outcome = OutcomeUncategorized
		log.Info("resource left uncategorized", "resource_id", entry.ResourceID, "title", r.Title)
		return entry
	}

	entry.ToPartition = match.Category.Partition()
	if dryRun {
		entry.Outcome = OutcomePlanned
		return entry
	}

	moved := r.Clone()
	moved.Category = match.Category
	moved.UpdatedAt = entry.At
	moved.Note = models.PlaceholderNote

	dest := o.partitions.Partition(match.Category)
	_, err := dest.InsertOne(ctx, moved)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// an earlier partial move may have left this copy; the source goes only if it is identical
		same, cmpErr := sameAsDestination(ctx, dest, r)
		switch {
		case cmpErr != nil:
			err = fmt.Errorf("%w; reading destination copy: %v", err, cmpErr)
		case !same:
			entry.Outcome = OutcomePartial
			entry.Error = "destination holds a different copy of this record; source retained"
			log.Warn("PartialMoveWarning: resource exists in both partitions, manual reconciliation required",
				"resource_id", entry.ResourceID,
				"source", entry.FromPartition,
				"destination", entry.ToPartition,
				"error", entry.Error,
			)
			return entry
		default:
			log.Info("destination already holds an identical copy, removing source",
				"resource_id", entry.ResourceID,
				"destination", entry.ToPartition,
			)
			err = nil
		}
	}
	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.Error = err.Error()
		log.Error("insert into destination failed; source retained",
			"resource_id", entry.ResourceID,
			"destination", entry.ToPartition,
			"error", err,
		)
		return entry
	}

	deleted, err := source.DeleteOne(ctx, r.ID)
	if err != nil || !deleted {
		entry.Outcome = OutcomePartial
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Error = "source record not deleted"
		}
		log.Warn("PartialMoveWarning: resource exists in both partitions, manual reconciliation required",
			"resource_id", entry.ResourceID,
			"source", entry.FromPartition,
			"destination", entry.ToPartition,
			"error", entry.Error,
		)
		return entry
	}

	entry.Outcome = OutcomeMoved
	log.Debug("resource moved", "resource_id", entry.ResourceID, "destination", entry.ToPartition, "keyword", match.Keyword)
	return entry
}

// sameAsDestination reports whether dest holds a copy of r with the same content.
// Fields written by the move itself (category, note, updatedAt) are ignored.
func sameAsDestination(ctx context.Context, dest repository.Repository, r *models.Resource) (bool, error) {
	found, err := dest.Find(ctx, filter.Equals(models.FieldID, r.ID), repository.FindOptions{Limit: 1})
	if err != nil {
		return false, err
	}
	if len(found) == 0 {
		return false, nil
	}
	have, want := moveInvariant(&found[0]), moveInvariant(r)
	if want.CreatedAt.IsZero() {
		// stamped by the store when the copy was inserted
		have.CreatedAt = time.Time{}
	}
	return reflect.DeepEqual(have, want), nil
}

func moveInvariant(r *models.Resource) *models.Resource {
	c := r.Clone()
	c.Category = ""
	c.Note = ""
	c.UpdatedAt = time.Time{}
	c.DateAdded = c.DateAdded.UTC().Round(0)
	c.CreatedAt = c.CreatedAt.UTC().Round(0)
	if len(c.Tags) == 0 {
		c.Tags = nil
	}
	if len(c.Extra) == 0 {
		c.Extra = nil
	}
	return c
}

func (o *Orchestrator) tally(s *Summary, e AuditEntry) {
	o.metrics.RecordOutcome(string(e.Outcome))
	switch e.Outcome {
	case OutcomeMoved:
		s.Moved[e.Category]++
		o.metrics.RecordMove(string(e.Category))
	case OutcomePlanned:
		s.Moved[e.Category]++
	case OutcomeUncategorized:
		s.Uncategorized++
	case OutcomeFailed:
		s.Failed++
	case OutcomePartial:
		// the destination copy exists, so it counts as moved too
		s.Moved[e.Category]++
		s.PartialMoves++
	}
}

// PartitionCount is the size of one partition
type PartitionCount struct {
	Category  models.Category `json:"category"`
	Partition string          `json:"partition"`
	Count     int64           `json:"count"`
}

// Verify counts every partition
func (o *Orchestrator) Verify(ctx context.Context) ([]PartitionCount, error) {
	out := make([]PartitionCount, 0, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		n, err := o.partitions.Partition(c).Count(ctx, filter.MatchAll())
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.Partition(), err)
		}
		out = append(out, PartitionCount{Category: c, Partition: c.Partition(), Count: n})
	}
	return out, nil
}
