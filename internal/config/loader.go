package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// secretKeys are never expected in the YAML file; they are bound explicitly so
// AutomaticEnv picks them up during Unmarshal even when the file omits the key.
var secretKeys = []string{
	"postgres.user",
	"postgres.password",
	"postgres.db",
	"auth.jwt_secret",
	"redis.password",
	"mail.password",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "projecthub-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.frontend_url", "http://localhost:3000")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.auto_migrate", false)

	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("auth.cookie_name", "token")
	v.SetDefault("auth.cookie_secure", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.from", "no-reply@projecthub.local")

	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("jobs.invitation_sweep_spec", "@every 15m")
}

// Load reads the YAML at path, applies APP_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &config, nil
}
