package config

import (
	"errors"
	"time"

	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultJWTSecret = "flyerboard-dev-secret"

// Config holds the feed server configuration.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	GRPCPort              string `mapstructure:"GRPC_PORT"`
	HTTPPort              string `mapstructure:"HTTP_PORT"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddress    string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ListingCacheTTL time.Duration `mapstructure:"LISTING_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	MinIOEndpoint  string        `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string        `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string        `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string        `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool          `mapstructure:"MINIO_USE_SSL"`
	ImageURLExpiry time.Duration `mapstructure:"IMAGE_URL_EXPIRY"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	JWTSecret              string `mapstructure:"JWT_SECRET"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// WatchConfig holds the feedwatch client configuration.
type WatchConfig struct {
	ServiceName  string `mapstructure:"SERVICE_NAME"`
	FeedAddress  string `mapstructure:"FEED_ADDRESS"`
	AuthToken    string `mapstructure:"FEED_AUTH_TOKEN"`
	ClientID     string `mapstructure:"FEED_CLIENT_ID"`
	RedisAddress string `mapstructure:"REDIS_ADDRESS"`

	Category string `mapstructure:"FEED_CATEGORY"`
	Search   string `mapstructure:"FEED_SEARCH"`
	Location string `mapstructure:"FEED_LOCATION"`

	PollInterval      time.Duration `mapstructure:"FEED_POLL_INTERVAL"`
	RefreshThrottle   time.Duration `mapstructure:"FEED_REFRESH_THROTTLE"`
	HighlightDuration time.Duration `mapstructure:"FEED_HIGHLIGHT_DURATION"`
	PageSize          int           `mapstructure:"FEED_PAGE_SIZE"`

	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads the server configuration from the environment.
// godotenv is applied by main before this runs.
func LoadConfig(log *logger.Logger) (*Config, error) {
	v := viper.New()
	v.SetDefault("SERVICE_NAME", "flyerboard-feed")
	v.SetDefault("GRPC_PORT", "50052")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9092")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "flyerboard")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LISTING_CACHE_TTL", time.Hour)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "flyerboard-images")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("IMAGE_URL_EXPIRY", time.Hour)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.JWTSecret == defaultJWTSecret || cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty or uses the development default; set a strong secret")
	}
	if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
		return nil, errors.New("MONGO_URI and MONGO_DATABASE are required")
	}

	log.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("redis_address", cfg.RedisAddress),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("minio_endpoint", cfg.MinIOEndpoint),
		zap.Bool("smtp_configured", cfg.SMTPUsername != ""),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)
	return &cfg, nil
}

// LoadWatchConfig reads the feedwatch client configuration from the environment.
func LoadWatchConfig(log *logger.Logger) (*WatchConfig, error) {
	v := viper.New()
	v.SetDefault("SERVICE_NAME", "flyerboard-feedwatch")
	v.SetDefault("FEED_ADDRESS", "localhost:50052")
	v.SetDefault("FEED_AUTH_TOKEN", "")
	v.SetDefault("FEED_CLIENT_ID", "feedwatch")
	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("FEED_CATEGORY", "")
	v.SetDefault("FEED_SEARCH", "")
	v.SetDefault("FEED_LOCATION", "")
	v.SetDefault("FEED_POLL_INTERVAL", 30*time.Second)
	v.SetDefault("FEED_REFRESH_THROTTLE", 60*time.Second)
	v.SetDefault("FEED_HIGHLIGHT_DURATION", 10*time.Second)
	v.SetDefault("FEED_PAGE_SIZE", 20)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.AutomaticEnv()

	var cfg WatchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		log.Error("Failed to unmarshal feedwatch configuration", zap.Error(err))
		return nil, err
	}
	if cfg.FeedAddress == "" {
		return nil, errors.New("FEED_ADDRESS is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("FEED_POLL_INTERVAL must be positive")
	}

	log.Debug("Feedwatch configuration loaded",
		zap.String("feed_address", cfg.FeedAddress),
		zap.String("client_id", cfg.ClientID),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("refresh_throttle", cfg.RefreshThrottle),
	)
	return &cfg, nil
}
