package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/agrovista/agrovista-engine/pkg/models"
)

// Config holds all configuration for agrovista-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords) must only come from environment variables.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Weather  WeatherConfig  `yaml:"weather"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:"https://auth.agrovista.io=https://auth.agrovista.io/.well-known/jwks.json"`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"agrovista"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"agrovista_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL builds a connection string for pgx.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// WeatherConfig holds weather-provider settings.
type WeatherConfig struct {
	// DefaultProvider is used when a region has no performance data yet.
	DefaultProviderStr string `yaml:"default_provider" env:"WEATHER_DEFAULT_PROVIDER" env-default:"open_meteo"`

	DefaultProvider models.WeatherProvider `yaml:"-"`

	// ManagerURL is the base URL of the platform's weather-manager service,
	// which fronts the raw provider APIs. Estimate endpoints need it; the
	// rest of the engine works without it.
	ManagerURL string `yaml:"manager_url" env:"WEATHER_MANAGER_URL"`
}

// Load reads configuration from config.yaml with environment variable
// overrides, falling back to environment-only when no file exists. The
// version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	return cfg, nil
}

func (c *Config) parseComplexFields() error {
	c.Auth.JWKSEndpoints = make(map[string]string)
	for _, pair := range strings.Split(c.Auth.JWKSEndpointsStr, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		issuer, url, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid jwks_endpoints entry %q (want issuer=url)", pair)
		}
		c.Auth.JWKSEndpoints[strings.TrimSpace(issuer)] = strings.TrimSpace(url)
	}

	provider, err := models.ParseProvider(c.Weather.DefaultProviderStr)
	if err != nil {
		return fmt.Errorf("invalid default weather provider: %w", err)
	}
	c.Weather.DefaultProvider = provider

	return nil
}
