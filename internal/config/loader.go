package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig reads configuration from a yaml file and environment variables.
// APP_ENV selects config.<env>.yaml; AUTH_-prefixed variables override any
// file value (dots replaced by underscores, e.g. AUTH_DATABASE_HOST).
func LoadConfig() (*Config, error) {
	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/auth-service")
	}

	viper.SetEnvPrefix("AUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine, environment variables alone may be enough.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.SigningKey == "" {
		return errors.New("jwt.signing_key must be configured")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return errors.New("jwt access and refresh token TTLs must be positive")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "15s")

	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)

	viper.SetDefault("jwt.issuer", "gghub-auth")
	viper.SetDefault("jwt.audience", "gghub")
	viper.SetDefault("jwt.access_token_ttl", "1h")
	viper.SetDefault("jwt.refresh_token_ttl", "168h")
	viper.SetDefault("jwt.email_verification_token.expires_in", "24h")
	viper.SetDefault("jwt.password_reset_token.expires_in", "1h")

	viper.SetDefault("security.password_salt_length", 16)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("telemetry.service_name", "auth-service")
	viper.SetDefault("telemetry.metrics.enabled", true)

	viper.SetDefault("frontend.base_url", "http://localhost:3000")

	viper.SetDefault("maintenance.sweep_interval", "1h")
	viper.SetDefault("maintenance.token_retention", "720h")
}
