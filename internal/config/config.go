package config

import (
	"time"

	"github.com/maxviazov/projecthub-service/internal/logger"
)

// Config is the full runtime configuration; every section maps to one YAML block
// and can be overridden by APP_<SECTION>_<KEY> environment variables.
type Config struct {
	App      AppConfig           `mapstructure:"app" validate:"required"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Postgres PostgresConfig      `mapstructure:"postgres" validate:"required"`
	Auth     AuthConfig          `mapstructure:"auth" validate:"required"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Mail     MailConfig          `mapstructure:"mail"`
	CORS     CORSConfig          `mapstructure:"cors"`
	Jobs     JobsConfig          `mapstructure:"jobs"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Version         string        `mapstructure:"version"`
	Env             string        `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Port            int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	FrontendURL     string        `mapstructure:"frontend_url" validate:"required,url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gte=1"`
	MinConns          int32  `mapstructure:"min_conns" validate:"gte=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
	AutoMigrate       bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	CookieName   string        `mapstructure:"cookie_name" validate:"required"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" validate:"dive,url"`
}

type JobsConfig struct {
	// InvitationSweepSpec is a robfig/cron spec; empty disables the sweeper.
	InvitationSweepSpec string `mapstructure:"invitation_sweep_spec"`
}
