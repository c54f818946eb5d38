package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"captzio/internal/bootstrap"
	"captzio/internal/http/handlers"
	httpapi "captzio/internal/http/httpapi"
	"captzio/internal/infra"
	"captzio/internal/infra/geoip"
	"captzio/internal/queue"
)

const localBacklog = 256

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer c.Close()

	// Image jobs run in-process with the local driver, on the worker with asynq.
	var local *queue.LocalDispatcher
	switch cfg.QueueDriver {
	case "asynq":
		redisOpt, err := infra.AsynqRedisOpt(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid queue configuration")
		}
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		c.Images.SetDispatcher(queue.NewAsynqDispatcher(client, queue.DefaultQueue, cfg.ProviderTimeout+time.Minute))
	default:
		local = queue.NewLocalDispatcher(ctx, c.Images, cfg.WorkerConcurrency, localBacklog, cfg.ProviderTimeout+time.Minute, infra.Component(logger, "local-queue"))
		c.Images.SetDispatcher(local)
		go queue.RunSweepLoop(ctx, c.Sweeper, cfg.SweepInterval, infra.Component(logger, "sweeper"))
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	app := &handlers.App{
		Accounts: c.Accounts,
		Images:   c.Images,
		Captions: c.Captions,
		Payments: c.Payments,
		Admin:    c.Admin,
		Logger:   logger,
		Ping:     c.Pool.Ping,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "pt-BR",
		CountryLookup:   resolver.Lookup(),
		StaticDir:       c.StaticDir,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("addr", server.Addr()).Str("queue", cfg.QueueDriver).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if local != nil {
		if err := local.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("image tasks still running at shutdown, the sweeper will resolve them")
		}
	}
	logger.Info().Msg("server stopped")
}
