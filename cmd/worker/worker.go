package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"vet1stop-platform/internal/app"
	"vet1stop-platform/internal/config"
	"vet1stop-platform/internal/logger"
	"vet1stop-platform/internal/migration"
	"vet1stop-platform/internal/queue"
	"vet1stop-platform/internal/scheduler"
	"vet1stop-platform/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	log := logger.InitLogger(cfg)

	if cfg.RedisURL == "" {
		logger.Fatal("REDIS_URL is required for the worker")
	}
	redisOpt, err := config.RedisOptions(cfg)
	if err != nil {
		logger.Fatal("Invalid Redis configuration", "error", err)
	}
	connOpt := queue.RedisConnOpt(redisOpt)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Warn("Metrics disabled", "error", err)
	}

	stores, err := app.Open(cfg, log, metrics)
	if err != nil {
		logger.Fatal("Failed to open store", "error", err)
	}
	defer stores.Close()

	categorizer, err := app.Categorizer(cfg, log)
	if err != nil {
		logger.Fatal("Failed to load category rules", "error", err)
	}

	orchestrator := migration.NewOrchestrator(stores.Partitions, categorizer,
		migration.WithCountsCache(stores.Counts),
		migration.WithMetrics(metrics),
		migration.WithLogger(log),
	)

	// One worker: two reclassification runs must never overlap
	server := asynq.NewServer(
		connOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queue.QueueMaintenance: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("Task failed", "task", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(orchestrator, log)
	mux := asynq.NewServeMux()
	processor.Register(mux)

	// Periodic enqueue
	client := queue.NewClient(connOpt)
	defer client.Close()

	sched := scheduler.NewScheduler(log)
	err = sched.ScheduleReclassify(cfg.ReclassifyCron, func(ctx context.Context) error {
		_, err := client.EnqueueReclassify(ctx, false, "scheduler")
		if errors.Is(err, queue.ErrAlreadyQueued) {
			log.Info("Reclassification already queued, skipping")
			return nil
		}
		return err
	})
	if err != nil {
		logger.Fatal("Failed to schedule reclassification", "error", err)
	}
	sched.Start()
	defer sched.Stop()

	log.Info("Starting Asynq worker", "concurrency", 1, "queue", queue.QueueMaintenance, "redis", redisOpt.Addr)

	if err := server.Start(mux); err != nil {
		logger.Fatal("Failed to start worker", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")
	server.Shutdown()
}
