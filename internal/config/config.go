package config

import (
	"time"

	"github.com/maxviazov/agency-travels-service/internal/logger"
)

type Config struct {
	App        AppConfig           `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Postgres   PostgresConfig      `mapstructure:"postgres"`
	Portal     PortalConfig        `mapstructure:"portal"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
}

// AppConfig holds process-level settings for the HTTP server.
type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Version         string        `mapstructure:"version"`
	Env             string        `mapstructure:"env"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// Source selects the travel/agency data source: postgres or portal.
	Source string `mapstructure:"source" validate:"oneof=postgres portal"`
}

// PostgresConfig mirrors pgxpool tuning knobs; durations are in seconds.
type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// PortalConfig points at the public transparency portal REST API.
type PortalConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerMin int           `mapstructure:"requests_per_min" validate:"min=0"`
}

// PaginationConfig controls how many travels a single page request asks for.
type PaginationConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=1,max=500"`
	// EndRule is short_page (default) or modulo for the legacy remainder heuristic.
	EndRule string `mapstructure:"end_rule" validate:"oneof=short_page modulo"`
}
