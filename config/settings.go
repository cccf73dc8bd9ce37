package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Settings is the process configuration, read from the environment after an
// optional .env file has been loaded.
type Settings struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	GinMode     string `env:"GIN_MODE" envDefault:"debug"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	DebugSQL    bool   `env:"DEBUG_SQL" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE" envDefault:"logs/challenge-api.log"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBDatabase string `env:"DB_DATABASE" envDefault:"writing_challenges"`
	DBUsername string `env:"DB_USERNAME" envDefault:"root"`
	DBPassword string `env:"DB_PASSWORD"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"challenge-api:notifications"`

	JWTSecret string `env:"JWT_SECRET"`

	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser          string `env:"SMTP_USER"`
	SMTPPass          string `env:"SMTP_PASS"`
	SMTPFrom          string `env:"SMTP_FROM"`
	SMTPSkipTLSVerify bool   `env:"SMTP_SKIP_TLS_VERIFY" envDefault:"false"`

	SweepInterval        time.Duration `env:"SWEEP_INTERVAL" envDefault:"45s"`
	SweepLockName        string        `env:"SWEEP_LOCK_NAME" envDefault:"challenge_sweep"`
	ScoringDeferral      time.Duration `env:"SCORING_DEFERRAL" envDefault:"10m"`
	EligibilityThreshold int           `env:"ELIGIBILITY_THRESHOLD" envDefault:"80"`
	RetentionPeriod      time.Duration `env:"RETENTION_PERIOD" envDefault:"720h"`
	FanoutBatchSize      int           `env:"FANOUT_BATCH_SIZE" envDefault:"1000"`
}

// Load reads .env (when present) and parses the environment into Settings.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if s.FanoutBatchSize <= 0 {
		return nil, fmt.Errorf("FANOUT_BATCH_SIZE must be positive, got %d", s.FanoutBatchSize)
	}
	if s.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", s.SweepInterval)
	}
	return &s, nil
}

// IsProduction reports whether the service runs with production defaults.
func (s *Settings) IsProduction() bool {
	return s.Environment == "production"
}
