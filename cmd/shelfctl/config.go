package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Postgres client libraries.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

// Config represents the shelfctl configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
	Redis    RedisConfig    `yaml:"redis"`
	Lending  LendingConfig  `yaml:"lending"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Storage.Backend == BackendPostgres {
		if err := c.Postgres.Validate(); err != nil {
			return err
		}
	}
	if c.Storage.Backend == BackendS3 {
		if err := c.S3.Validate(); err != nil {
			return err
		}
	}
	return c.Lending.Validate()
}

// StorageConfig selects the persistence gateway.
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendPostgres, BackendS3)),
	)
}

// PostgresConfig holds the Postgres connection settings.
type PostgresConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
	Table  string `yaml:"table"`
}

// Validate validates the Postgres configuration.
func (c *PostgresConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverPGX
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPGX, DriverSQL, DriverSQLX)),
	)
}

// S3Config holds the object storage settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	ObjectKey string `yaml:"object_key"`
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.Bucket, validation.Required),
	)
}

// RedisConfig holds the session store settings. An empty address disables
// the multi-turn draft commands.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

// SessionsEnabled returns true when a session store is configured.
func (c *RedisConfig) SessionsEnabled() bool {
	return c.Addr != ""
}

// LendingConfig holds the domain settings.
type LendingConfig struct {
	LoanPeriodDays int `yaml:"loan_period_days"`
	PageSize       int `yaml:"page_size"`
}

// Validate validates the lending configuration.
func (c *LendingConfig) Validate() error {
	if c.LoanPeriodDays == 0 {
		c.LoanPeriodDays = 14
	}
	if c.PageSize == 0 {
		c.PageSize = 10
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LoanPeriodDays, validation.Min(1)),
		validation.Field(&c.PageSize, validation.Min(1)),
	)
}

// LoanPeriod returns the loan period as a duration.
func (c *LendingConfig) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

// NewDefaultConfig returns a Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Backend: BackendMemory},
		Lending: LendingConfig{LoanPeriodDays: 14, PageSize: 10},
	}
}

// LoadConfig reads a YAML config file with environment variable expansion.
// A missing file yields the defaults so the CLI works out of the box.
func LoadConfig(filename string) (*Config, error) {
	config := NewDefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}
