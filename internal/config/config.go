// Package config loads the service configuration from an optional YAML file
// and MOVIE_SERVICE_* environment variables. Environment variables win.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MOVIE_SERVICE_"

// Config is the full service configuration.
type Config struct {
	HTTPPort int            `yaml:"http_port" validate:"required,min=1,max=65535"`
	GRPCPort int            `yaml:"grpc_port" validate:"required,min=1,max=65535,nefield=HTTPPort"`
	LogLevel string         `yaml:"log_level" validate:"oneof=debug info warn error"`
	Database DatabaseConfig `yaml:"database"`
	Guard    GuardConfig    `yaml:"guard"`
	Auth     AuthConfig     `yaml:"auth"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres sqlite memory"`
	URL    string `yaml:"url" validate:"required_unless=Driver memory"`
}

// GuardConfig lists the ratings that lock a movie against PUT and DELETE.
// Each threshold becomes its own guard in the chain.
type GuardConfig struct {
	LockedRatings []float64 `yaml:"locked_ratings" validate:"dive,gte=0,lte=10"`
}

// AuthConfig enables bearer auth on mutating routes when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"omitempty,min=32"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		HTTPPort: 8081,
		GRPCPort: 9092,
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "file:beetle_movies.db?_foreign_keys=on",
		},
		Guard: GuardConfig{LockedRatings: []float64{2, 5}},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(envPrefix + "HTTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sHTTP_PORT: %w", envPrefix, err)
		}
		cfg.HTTPPort = port
	}
	if v, ok := lookup(envPrefix + "GRPC_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sGRPC_PORT: %w", envPrefix, err)
		}
		cfg.GRPCPort = port
	}
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(envPrefix + "DATABASE_DRIVER"); ok {
		cfg.Database.Driver = v
	}
	if v, ok := lookup(envPrefix + "DATABASE_URL"); ok {
		cfg.Database.URL = v
	}
	if v, ok := lookup(envPrefix + "JWT_SECRET"); ok {
		cfg.Auth.JWTSecret = v
	}
	if v, ok := lookup(envPrefix + "LOCKED_RATINGS"); ok {
		ratings, err := parseRatings(v)
		if err != nil {
			return fmt.Errorf("%sLOCKED_RATINGS: %w", envPrefix, err)
		}
		cfg.Guard.LockedRatings = ratings
	}
	return nil
}

// parseRatings parses "2, 5" into [2 5]. An empty string disables locking.
func parseRatings(s string) ([]float64, error) {
	var ratings []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// keywordPassword matches password=... in a key=value connection string,
// with or without single quotes.
var keywordPassword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|\S*)`)

const redacted = "xxxxx"

// RedactedDatabaseURL returns the database URL with the password masked,
// for logging. Both URL and key=value ("host=db password=...") forms are
// handled.
func (c Config) RedactedDatabaseURL() string {
	dsn := c.Database.URL
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		if q := u.Query(); q.Has("password") {
			q.Set("password", redacted)
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}
	return keywordPassword.ReplaceAllString(dsn, "${1}"+redacted)
}
