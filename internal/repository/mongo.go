package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/telemetry"
	"vet1stop-platform/models"
)

// BreakerSettings tunes the circuit breaker guarding each collection
type BreakerSettings struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// MongoOptions configures a MongoRepository
type MongoOptions struct {
	TextIndex bool
	Breaker   BreakerSettings
	Metrics   *telemetry.Metrics
}

// MongoRepository stores resources in one MongoDB collection
type MongoRepository struct {
	col       *mongo.Collection
	textIndex bool
	breaker   *gobreaker.CircuitBreaker
	metrics   *telemetry.Metrics
}

// NewMongoRepository wraps col. Every call goes through a circuit breaker.
func NewMongoRepository(col *mongo.Collection, opts MongoOptions) *MongoRepository {
	maxFailures := opts.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := opts.Breaker.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	metrics := opts.Metrics

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mongo:" + col.Name(),
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// caller errors say nothing about store health
			return err == nil || errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	return &MongoRepository{
		col:       col,
		textIndex: opts.TextIndex,
		breaker:   breaker,
		metrics:   metrics,
	}
}

// Name returns the collection name
func (r *MongoRepository) Name() string {
	return r.col.Name()
}

// execute runs fn under the breaker, a span and the operation counter
func (r *MongoRepository) execute(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, span := otel.Tracer("resource-repository").Start(ctx, "mongo."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.collection", r.col.Name()),
	)

	result, err := r.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	r.metrics.RecordDatabaseOperation(op, r.col.Name(), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s %s: %w", op, r.col.Name(), ErrDuplicateKey)
		}
		return nil, &RepositoryError{Op: op, Partition: r.col.Name(), Err: err}
	}
	return result, nil
}

func (r *MongoRepository) Find(ctx context.Context, pred filter.Predicate, opts FindOptions) ([]models.Resource, error) {
	query, err := ToBSON(pred, r.textIndex)
	if err != nil {
		return nil, &RepositoryError{Op: "find", Partition: r.col.Name(), Err: err}
	}

	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(ToSort(opts.Sort))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	out, err := r.execute(ctx, "find", func(ctx context.Context) (any, error) {
		cursor, err := r.col.Find(ctx, query, findOpts)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		resources := make([]models.Resource, 0)
		if err := cursor.All(ctx, &resources); err != nil {
			return nil, err
		}
		return resources, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.Resource), nil
}

func (r *MongoRepository) Count(ctx context.Context, pred filter.Predicate) (int64, error) {
	query, err := ToBSON(pred, r.textIndex)
	if err != nil {
		return 0, &RepositoryError{Op: "count", Partition: r.col.Name(), Err: err}
	}

	out, err := r.execute(ctx, "count", func(ctx context.Context) (any, error) {
		return r.col.CountDocuments(ctx, query)
	})
	if err != nil {
		return 0, err
	}
	return out.(int64), nil
}

func (r *MongoRepository) CountByCategory(ctx context.Context) (map[models.Category]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + models.FieldCategory},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	out, err := r.execute(ctx, "aggregate", func(ctx context.Context) (any, error) {
		cursor, err := r.col.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var rows []struct {
			Category *string `bson:"_id"`
			Count    int64   `bson:"count"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return nil, err
		}

		counts := make(map[models.Category]int64, len(rows))
		for _, row := range rows {
			c := models.CategoryUndefined
			if row.Category != nil && *row.Category != "" {
				c = models.Category(*row.Category)
			}
			counts[c] += row.Count
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(map[models.Category]int64), nil
}

func (r *MongoRepository) InsertOne(ctx context.Context, res *models.Resource) (primitive.ObjectID, error) {
	doc := res.Clone()
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	// BSON dates keep milliseconds
	now := time.Now().UTC().Truncate(time.Millisecond)
	StampInsert(doc, now)

	_, err := r.execute(ctx, "insert", func(ctx context.Context) (any, error) {
		return r.col.InsertOne(ctx, doc)
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

func (r *MongoRepository) DeleteOne(ctx context.Context, id primitive.ObjectID) (bool, error) {
	out, err := r.execute(ctx, "delete", func(ctx context.Context) (any, error) {
		return r.col.DeleteOne(ctx, bson.M{models.FieldID: id})
	})
	if err != nil {
		return false, err
	}
	return out.(*mongo.DeleteResult).DeletedCount > 0, nil
}

func (r *MongoRepository) UpdateOne(ctx context.Context, id primitive.ObjectID, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, &RepositoryError{Op: "update", Partition: r.col.Name(), Err: errors.New("no fields to update")}
	}
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	out, err := r.execute(ctx, "update", func(ctx context.Context) (any, error) {
		return r.col.UpdateOne(ctx, bson.M{models.FieldID: id}, bson.M{"$set": set})
	})
	if err != nil {
		return false, err
	}
	return out.(*mongo.UpdateResult).MatchedCount > 0, nil
}

// MongoPartitions maps each category to its own collection
type MongoPartitions struct {
	repos map[models.Category]*MongoRepository
}

// NewMongoPartitions creates one repository per category partition in db
func NewMongoPartitions(db *mongo.Database, opts MongoOptions) *MongoPartitions {
	repos := make(map[models.Category]*MongoRepository)
	for _, c := range models.AllCategories() {
		repos[c] = NewMongoRepository(db.Collection(c.Partition()), opts)
	}
	return &MongoPartitions{repos: repos}
}

func (p *MongoPartitions) Partition(c models.Category) Repository {
	if r, ok := p.repos[c]; ok {
		return r
	}
	return p.repos[models.CategoryUndefined]
}

// All returns every partition in canonical category order
func (p *MongoPartitions) All() []Repository {
	out := make([]Repository, 0, len(p.repos))
	for _, c := range models.AllCategories() {
		out = append(out, p.repos[c])
	}
	return out
}

// EnsureIndexes creates the query indexes for a resource collection
func EnsureIndexes(ctx context.Context, col *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: models.FieldCategory, Value: 1}}},
		{Keys: bson.D{{Key: models.FieldTags, Value: 1}}},
		{Keys: bson.D{{Key: models.FieldFeatured, Value: -1}, {Key: models.FieldDateAdded, Value: -1}}},
		{
			Keys: bson.D{
				{Key: models.FieldTitle, Value: "text"},
				{Key: models.FieldDescription, Value: "text"},
			},
			Options: options.Index().SetName("resource_text"),
		},
	}
	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes on %s: %w", col.Name(), err)
	}
	return nil
}
