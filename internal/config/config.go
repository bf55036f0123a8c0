package config

import (
	"time"
)

// Config is the immutable application configuration, built once at startup
// and passed by reference to every component.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Security    SecurityConfig    `mapstructure:"security"`
	Mail        MailConfig        `mapstructure:"mail"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Frontend    FrontendConfig    `mapstructure:"frontend"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// MaintenanceConfig controls the background sweep that deletes expired
// refresh tokens and verification codes. Rows are kept for retention past
// their expiry before deletion so recent revocations stay auditable.
type MaintenanceConfig struct {
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	TokenRetention time.Duration `mapstructure:"token_retention"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	DBName      string        `mapstructure:"dbname"`
	SSLMode     string        `mapstructure:"sslmode"`
	MaxConns    int           `mapstructure:"max_conns"`
	MinConns    int           `mapstructure:"min_conns"`
	ConnMaxLife time.Duration `mapstructure:"conn_max_life"`
	AutoMigrate bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// TokenConfig holds the lifetime of a single-use verification token.
type TokenConfig struct {
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

type JWTConfig struct {
	SigningKey             string        `mapstructure:"signing_key"`
	Issuer                 string        `mapstructure:"issuer"`
	Audience               string        `mapstructure:"audience"`
	AccessTokenTTL         time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL        time.Duration `mapstructure:"refresh_token_ttl"`
	EmailVerificationToken TokenConfig   `mapstructure:"email_verification_token"`
	PasswordResetToken     TokenConfig   `mapstructure:"password_reset_token"`
}

// RateLimitRule defines a fixed-window limit for one operation class.
type RateLimitRule struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	RegisterIP         RateLimitRule `mapstructure:"register_ip"`
	LoginEmailIP       RateLimitRule `mapstructure:"login_email_ip"`
	PasswordResetEmail RateLimitRule `mapstructure:"password_reset_email"`
	ResendVerification RateLimitRule `mapstructure:"resend_verification"`
}

type SecurityConfig struct {
	PasswordSaltLength int             `mapstructure:"password_salt_length"`
	RateLimiting       RateLimitConfig `mapstructure:"rate_limiting"`
}

type MailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string        `mapstructure:"service_name"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// FrontendConfig carries the web client base URL used when building
// verification and reset links embedded in outgoing mail.
type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}
