// Package queue carries reclassification runs over asynq so that scheduled,
// CLI and API triggers all funnel into one single-concurrency worker.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"vet1stop-platform/internal/migration"
)

const (
	TaskReclassify = "resources:reclassify"

	// QueueMaintenance holds reclassification tasks only
	QueueMaintenance = "maintenance"
)

// uniqueWindow blocks duplicate enqueues while a task is pending or running
const uniqueWindow = time.Hour

// ErrAlreadyQueued is returned when an identical task is still pending
var ErrAlreadyQueued = errors.New("reclassification already queued")

type ReclassifyPayload struct {
	DryRun      bool   `json:"dry_run"`
	RequestedBy string `json:"requested_by"`
}

// Task creators
func NewReclassifyTask(dryRun bool, requestedBy string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReclassifyPayload{
		DryRun:      dryRun,
		RequestedBy: requestedBy,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskReclassify,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Unique(uniqueWindow),
		asynq.Queue(QueueMaintenance),
	), nil
}

// RedisConnOpt converts go-redis options into asynq's connection options
func RedisConnOpt(opt *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Network:   opt.Network,
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
}

// Client enqueues reclassification tasks
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueReclassify queues a run. A pending duplicate yields ErrAlreadyQueued.
func (c *Client) EnqueueReclassify(ctx context.Context, dryRun bool, requestedBy string) (*asynq.TaskInfo, error) {
	task, err := NewReclassifyTask(dryRun, requestedBy)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil, ErrAlreadyQueued
	}
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", TaskReclassify, err)
	}
	return info, nil
}

// Runner executes one reclassification run
type Runner interface {
	Run(ctx context.Context, opts migration.RunOptions) (*migration.Summary, error)
}

// Task handlers
type TaskProcessor struct {
	runner Runner
	logger *slog.Logger
}

func NewTaskProcessor(runner Runner, logger *slog.Logger) *TaskProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskProcessor{runner: runner, logger: logger}
}

func (p *TaskProcessor) ProcessReclassify(ctx context.Context, t *asynq.Task) error {
	var payload ReclassifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	log := p.logger.With("task", TaskReclassify, "requested_by", payload.RequestedBy, "dry_run", payload.DryRun)
	log.Info("processing reclassification task")

	summary, err := p.runner.Run(ctx, migration.RunOptions{DryRun: payload.DryRun})
	if errors.Is(err, migration.ErrRunInProgress) {
		log.Warn("reclassification skipped, another run is active")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	log.Info("reclassification task finished",
		"run_id", summary.RunID,
		"scanned", summary.Scanned,
		"moved", summary.TotalMoved(),
		"uncategorized", summary.Uncategorized,
		"failed", summary.Failed,
		"partial_moves", summary.PartialMoves,
	)

	// a cancelled run is retried so the remaining records get processed
	if summary.Cancelled {
		if err := ctx.Err(); err != nil {
			return err
		}
		return errors.New("reclassification cancelled before completion")
	}
	return nil
}

// Register adds the handlers to mux
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskReclassify, p.ProcessReclassify)
}
