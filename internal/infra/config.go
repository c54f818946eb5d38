package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	PublicURL   string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	RedisURL    string `envconfig:"REDIS_URL"`
	GeoIPDBPath string `envconfig:"GEOIP_DB_PATH"`

	AdminEmails []string `envconfig:"ADMIN_EMAILS"`
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	SignupCredits int `envconfig:"SIGNUP_CREDITS" default:"10"`
	CaptionCost   int `envconfig:"CAPTION_COST" default:"1"`
	ImageCost     int `envconfig:"IMAGE_COST" default:"5"`

	CaptionRateLimit  int           `envconfig:"CAPTION_RATE_LIMIT" default:"10"`
	CaptionRateWindow time.Duration `envconfig:"CAPTION_RATE_WINDOW" default:"1h"`
	RateLimitPerMin   int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	QueueDriver       string        `envconfig:"QUEUE_DRIVER" default:"local"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"4"`
	JobStaleAfter     time.Duration `envconfig:"JOB_STALE_AFTER" default:"15m"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	OpenAIAPIKey     string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIOrg        string        `envconfig:"OPENAI_ORG"`
	OpenAITextModel  string        `envconfig:"OPENAI_TEXT_MODEL" default:"gpt-4o-mini"`
	OpenAIImageModel string        `envconfig:"OPENAI_IMAGE_MODEL" default:"dall-e-3"`
	ProviderTimeout  time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"120s"`

	MercadoPagoAccessToken   string `envconfig:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoBaseURL       string `envconfig:"MERCADOPAGO_BASE_URL" default:"https://api.mercadopago.com"`
	MercadoPagoWebhookSecret string `envconfig:"MERCADOPAGO_WEBHOOK_SECRET"`

	StorageDriver   string `envconfig:"STORAGE_DRIVER" default:"fs"`
	StoragePath     string `envconfig:"STORAGE_PATH" default:"./storage"`
	StorageBaseURL  string `envconfig:"STORAGE_BASE_URL"`
	S3Endpoint      string `envconfig:"S3_ENDPOINT"`
	S3Region        string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket        string `envconfig:"S3_BUCKET"`
	S3AccessKey     string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey     string `envconfig:"S3_SECRET_KEY"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`
	S3UsePathStyle  bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`

	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	HTTPIdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.QueueDriver = strings.ToLower(strings.TrimSpace(cfg.QueueDriver))
	switch cfg.QueueDriver {
	case "local":
	case "asynq":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for QUEUE_DRIVER=asynq")
		}
	default:
		return nil, fmt.Errorf("unsupported QUEUE_DRIVER %q", cfg.QueueDriver)
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = fmt.Sprintf("http://localhost:%s/static", cfg.Port)
	}
	if cfg.StorageDriver == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required for STORAGE_DRIVER=s3")
	}

	if cfg.ImageCost < 0 || cfg.CaptionCost < 0 || cfg.SignupCredits < 0 {
		return nil, fmt.Errorf("credit costs and signup grant must not be negative")
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}

	return &cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
