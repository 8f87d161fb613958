// Package config loads the service configuration from a YAML file with
// STUDIO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"studio-go/app/models"
)

// EnvPrefix is prepended to override variable names.
const EnvPrefix = "STUDIO_"

// Store drivers.
const (
	DriverNeo4j  = "neo4j"
	DriverSQLite = "sqlite"
)

// MinSecretLen is the shortest accepted token signing secret.
const MinSecretLen = 32

// Config is the full service configuration.
type Config struct {
	Addr       string                    `yaml:"addr"`
	Store      StoreConfig               `yaml:"store"`
	Auth       AuthConfig                `yaml:"auth"`
	Log        LogConfig                 `yaml:"log"`
	Billing    BillingConfig             `yaml:"billing"`
	Templates  map[string][]TemplateTask `yaml:"templates"`
	Attendance AttendanceConfig          `yaml:"attendance"`
}

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	Driver string       `yaml:"driver"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// Neo4jConfig holds the graph database connection settings.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SQLiteConfig holds the embedded database settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig configures session token verification.
type AuthConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BillingConfig lists the plans and coupons used for quotes.
type BillingConfig struct {
	Currency string          `yaml:"currency"`
	Plans    []models.Plan   `yaml:"plans"`
	Coupons  []models.Coupon `yaml:"coupons"`
}

// TemplateTask is one entry of a deliverable template.
type TemplateTask struct {
	Title    string   `yaml:"title"`
	Subtasks []string `yaml:"subtasks"`
}

// AttendanceConfig configures attendance date keys.
type AttendanceConfig struct {
	Timezone string `yaml:"timezone"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Addr: "0.0.0.0:8080",
		Store: StoreConfig{
			Driver: DriverNeo4j,
			Neo4j: Neo4jConfig{
				URI:      "neo4j://neo4j:7687",
				User:     "neo4j",
				Password: "password",
			},
			SQLite: SQLiteConfig{Path: "studio.db"},
		},
		Auth: AuthConfig{
			Issuer: "studio",
			TTL:    12 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Billing: BillingConfig{Currency: "USD"},
		Attendance: AttendanceConfig{
			Timezone: "UTC",
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"ADDR":           &c.Addr,
		"STORE_DRIVER":   &c.Store.Driver,
		"NEO4J_URI":      &c.Store.Neo4j.URI,
		"NEO4J_USER":     &c.Store.Neo4j.User,
		"NEO4J_PASSWORD": &c.Store.Neo4j.Password,
		"SQLITE_PATH":    &c.Store.SQLite.Path,
		"JWT_SECRET":     &c.Auth.Secret,
		"LOG_LEVEL":      &c.Log.Level,
	}
	for key, field := range overrides {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*field = v
		}
	}
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverNeo4j, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if len(c.Auth.Secret) < MinSecretLen {
		return fmt.Errorf("auth secret must be at least %d bytes", MinSecretLen)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, coupon := range c.Billing.Coupons {
		switch coupon.Kind {
		case models.CouponPercent:
			if coupon.Value < 1 || coupon.Value > 100 {
				return fmt.Errorf("coupon %s: percent must be 1-100", coupon.Code)
			}
		case models.CouponFixed:
			if coupon.Value < 0 {
				return fmt.Errorf("coupon %s: negative amount", coupon.Code)
			}
		default:
			return fmt.Errorf("coupon %s: unknown kind %q", coupon.Code, coupon.Kind)
		}
	}
	return nil
}

// Location returns the attendance time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return nil, fmt.Errorf("attendance timezone %q: %w", c.Attendance.Timezone, err)
	}
	return loc, nil
}
