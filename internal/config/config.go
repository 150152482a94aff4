package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort   string `envconfig:"PORT" default:"5001"`
	DBDriver     string `envconfig:"DB_DRIVER" default:"mysql"`
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	MongoDB      string `envconfig:"MONGO_DATABASE" default:"grievance-system"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	ClientOrigin string `envconfig:"CLIENT_ORIGIN" default:"*"`
	UploadDir    string `envconfig:"UPLOAD_DIR" default:"uploads"`
	RedisAddr    string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB      int    `envconfig:"REDIS_DB" default:"0"`
	RedisPass    string `envconfig:"REDIS_PASSWORD"`
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"grievances"`
	NotifyQueue  string `envconfig:"NOTIFY_QUEUE" default:"grievance-notifications"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SwaggerHost  string `envconfig:"SWAGGER_HOST"`
	ResetDB      bool   `envconfig:"RESET_DB" default:"false"`

	// AuthRatePerMinute bounds login/register attempts per client IP.
	AuthRatePerMinute int           `envconfig:"AUTH_RATE_PER_MINUTE" default:"30"`
	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
}

var drivers = map[string]bool{"mysql": true, "postgres": true, "sqlite": true, "mongo": true}

// Load reads an optional .env file and builds Config from the environment.
// A missing DATABASE_URL or JWT_SECRET is an error so the process can fail fast.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// required only checks presence; an empty value is just as fatal.
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("load config: DATABASE_URL is empty")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("load config: JWT_SECRET is empty")
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if !drivers[cfg.DBDriver] {
		return nil, fmt.Errorf("load config: unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return &cfg, nil
}
