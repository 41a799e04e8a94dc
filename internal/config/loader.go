package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	defaultPort            = 8080
	defaultPageSize        = 15
	defaultPortalBaseURL   = "https://api.portaldatransparencia.gov.br/api-de-dados"
	defaultPortalTimeout   = 15 * time.Second
	defaultRequestsPerMin  = 90
	defaultShutdownTimeout = 10 * time.Second
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)

	// Secrets are never expected in YAML; bind them explicitly so AutomaticEnv
	// picks them up even when the key is absent from the file.
	for _, key := range []string{"postgres.user", "postgres.password", "postgres.db", "portal.api_key"} {
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
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agency-travels-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.port", defaultPort)
	v.SetDefault("app.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("app.source", "postgres")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("portal.base_url", defaultPortalBaseURL)
	v.SetDefault("portal.timeout", defaultPortalTimeout)
	v.SetDefault("portal.requests_per_min", defaultRequestsPerMin)
	v.SetDefault("pagination.page_size", defaultPageSize)
	v.SetDefault("pagination.end_rule", "short_page")
}

// Validate checks struct tags and the cross-field requirements of the chosen data source.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	switch c.App.Source {
	case "postgres":
		if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" {
			return errors.New("postgres credentials are required: set APP_POSTGRES_USER, APP_POSTGRES_PASSWORD and APP_POSTGRES_DB")
		}
	case "portal":
		if c.Portal.APIKey == "" {
			return errors.New("portal api key is required: set APP_PORTAL_API_KEY")
		}
	}
	return nil
}
