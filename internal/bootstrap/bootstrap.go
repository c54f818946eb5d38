// Package bootstrap wires configuration, storage, providers and services
// into the graph shared by the API, the worker and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"captzio/internal/adapter/repo"
	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/providers/image"
	"captzio/internal/providers/payment"
	"captzio/internal/providers/text"
	"captzio/internal/ratelimit"
	"captzio/internal/service"
	"captzio/internal/storage"
)

// Container holds the long lived dependencies of one process.
type Container struct {
	Config *infra.Config
	Logger infra.Logger
	Pool   *pgxpool.Pool
	Runner *infra.SQLRunner
	Repos  domain.Repositories
	Tx     domain.TxManager
	Redis  *redis.Client
	// StaticDir is the local image directory, empty for S3 storage.
	StaticDir string

	Policy   domain.PrivilegePolicy
	Accounts *service.AccountService
	Images   *service.ImageService
	Captions *service.CaptionService
	Payments *service.PaymentService
	Admin    *service.AdminService
	Sweeper  *service.JobSweeper
}

// New connects to postgres (and Redis when configured) and builds every
// service. The image dispatcher is left to the caller.
func New(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Container, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Pool: pool}
	c.Runner = infra.NewSQLRunner(pool, logger)
	c.Repos = repo.New(c.Runner)
	c.Tx = repo.NewTxManager(c.Runner)
	c.Policy = domain.NewPrivilegePolicy(cfg.AdminEmails)

	if cfg.RedisURL != "" {
		c.Redis, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	store, err := c.objectStore()
	if err != nil {
		c.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	imageGen, captionGen := c.generators(httpClient)

	c.Accounts = service.NewAccountService(c.Repos.Accounts, c.Policy, cfg.SignupCredits, logger)
	c.Images = service.NewImageService(c.Repos, c.Tx, c.Policy, imageGen, store, service.ImageServiceConfig{
		Cost:  cfg.ImageCost,
		Retry: service.DefaultRetryPolicy,
	}, logger)
	c.Captions = service.NewCaptionService(c.Repos, c.Tx, c.Policy, captionGen, c.limiter(), service.CaptionServiceConfig{
		Cost:        cfg.CaptionCost,
		RateLimit:   cfg.CaptionRateLimit,
		RateWindow:  cfg.CaptionRateWindow,
		HistorySize: 20,
	}, logger)
	c.Payments = service.NewPaymentService(c.Repos, c.Tx, c.gateway(), service.PaymentServiceConfig{
		PublicURL:     cfg.PublicURL,
		FrontendURL:   cfg.FrontendURL,
		WebhookSecret: cfg.MercadoPagoWebhookSecret,
	}, logger)
	c.Admin = service.NewAdminService(c.Repos, c.Policy, logger)
	c.Sweeper = service.NewJobSweeper(c.Repos.Jobs, c.Images, cfg.JobStaleAfter, logger)
	return c, nil
}

func (c *Container) objectStore() (storage.ObjectStore, error) {
	cfg := c.Config
	switch cfg.StorageDriver {
	case "s3":
		return storage.NewS3Store(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
	case "", "fs":
		path := cfg.StoragePath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		fs, err := storage.NewFileStore(path, cfg.StorageBaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure storage: %w", err)
		}
		c.StaticDir = path
		return fs, nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func (c *Container) generators(httpClient *http.Client) (image.Generator, text.Generator) {
	cfg := c.Config
	var (
		imageGen   image.Generator = image.Disabled{}
		captionGen text.Generator  = text.Disabled{}
	)
	if cfg.OpenAIAPIKey == "" {
		c.Logger.Warn().Msg("OPENAI_API_KEY not set, generation requests will fail")
		return imageGen, captionGen
	}

	if gen, err := image.NewOpenAIGenerator(image.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIImageModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
	}); err != nil {
		c.Logger.Error().Err(err).Msg("image provider disabled")
	} else {
		imageGen = gen
	}

	if gen, err := text.NewOpenAIClient(text.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAITextModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		HTTPClient:   httpClient,
		OnWarning: func(reason, detail string) {
			c.Logger.Warn().Str("reason", reason).Str("detail", detail).Msg("caption model substituted")
		},
	}); err != nil {
		c.Logger.Error().Err(err).Msg("caption provider disabled")
	} else {
		captionGen = gen
	}
	return imageGen, captionGen
}

// limiter shares caption windows through Redis when it is configured.
func (c *Container) limiter() ratelimit.Limiter {
	if c.Redis != nil {
		return ratelimit.NewRedis(c.Redis, "")
	}
	c.Logger.Info().Msg("caption rate limit is process local")
	return ratelimit.NewMemory()
}

func (c *Container) gateway() payment.Gateway {
	if c.Config.MercadoPagoAccessToken == "" {
		c.Logger.Warn().Msg("MERCADOPAGO_ACCESS_TOKEN not set, checkout disabled")
		return nil
	}
	client, err := payment.NewMercadoPagoClient(payment.MercadoPagoOptions{
		AccessToken: c.Config.MercadoPagoAccessToken,
		BaseURL:     c.Config.MercadoPagoBaseURL,
		Sandbox:     !c.Config.IsProduction(),
	})
	if err != nil {
		c.Logger.Error().Err(err).Msg("checkout disabled")
		return nil
	}
	return client
}

// Close releases pooled connections.
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
