package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"captzio/internal/bootstrap"
	"captzio/internal/infra"
	"captzio/internal/queue"
)

// The worker only makes sense with the asynq driver; the local driver runs
// jobs inside the API process.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.Component(infra.NewLogger(cfg.AppEnv), "worker")
	if cfg.QueueDriver != "asynq" {
		logger.Fatal().Str("queue", cfg.QueueDriver).Msg("worker requires QUEUE_DRIVER=asynq")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer c.Close()

	redisOpt, err := infra.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid queue configuration")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Queues:          map[string]int{queue.DefaultQueue: 1},
		ShutdownTimeout: cfg.ProviderTimeout + 30*time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("type", task.Type()).Msg("task failed")
		}),
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	entryID, err := queue.RegisterSweep(scheduler, queue.DefaultQueue, cfg.SweepInterval)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule sweeper")
	}
	logger.Info().Str("entry_id", entryID).Dur("every", cfg.SweepInterval).Msg("stale job sweep scheduled")

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler failed to start")
	}
	defer scheduler.Shutdown()

	handlers := queue.NewHandlers(c.Images, c.Sweeper, logger)
	if err := srv.Start(handlers.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker failed to start")
	}
	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
}
