package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Auth      AuthConfig
	Mail      MailConfig
	Payment   PaymentConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"5000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	BodyLimitMB     int    `envconfig:"BODY_LIMIT_MB" default:"6"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"uploads"`
	CORSOrigins     string `envconfig:"CORS_ORIGINS" default:"*"`
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, set DATABASE_URL or DB_PASSWORD via environment variable.
type DBConfig struct {
	URL      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"storefront"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// AuthConfig holds session and one-time code settings.
type AuthConfig struct {
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	UserTokenTTL   time.Duration `envconfig:"USER_TOKEN_TTL" default:"168h"`
	AdminTokenTTL  time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"2h"`
	OTPTTL         time.Duration `envconfig:"OTP_TTL" default:"10m"`
	OTPMaxAttempts int           `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`
}

// MailConfig holds SMTP provider settings.
type MailConfig struct {
	SMTPHost   string `envconfig:"SMTP_HOST"`
	SMTPPort   int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser   string `envconfig:"SMTP_USER"`
	SMTPPass   string `envconfig:"SMTP_PASS"`
	From       string `envconfig:"MAIL_FROM"`
	FromName   string `envconfig:"MAIL_FROM_NAME" default:"Mark Daniel Saddlery"`
	StoreEmail string `envconfig:"STORE_EMAIL"`
}

// PaymentConfig holds payment gateway credentials.
type PaymentConfig struct {
	BaseURL      string `envconfig:"PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
	Currency     string `envconfig:"PAYPAL_CURRENCY" default:"USD"`
}

// RedisConfig holds the rate limit backend address. Empty Addr disables redis.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// RateLimitConfig controls request limiting on public auth endpoints.
type RateLimitConfig struct {
	RPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"1"`
	Burst int     `envconfig:"RATE_LIMIT_BURST" default:"5"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load reads an optional .env file and parses environment variables into the Config struct.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
