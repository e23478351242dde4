// Package config loads task-api settings from an optional TOML file, an
// optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"task-api/internal/logging"
)

// Environment variable names.
const (
	EnvTable            = "TASKS_TABLE"
	EnvStore            = "TASKS_STORE"
	EnvDSN              = "TASKS_DSN"
	EnvHTTPAddr         = "TASKS_HTTP_ADDR"
	EnvLogLevel         = "TASKS_LOG_LEVEL"
	EnvLogFormat        = "TASKS_LOG_FORMAT"
	EnvCORSAllowOrigin  = "TASKS_CORS_ALLOW_ORIGIN"
	EnvDynamoDBEndpoint = "TASKS_DYNAMODB_ENDPOINT"
	EnvAWSRegion        = "AWS_REGION"
)

type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreSQLite   StoreKind = "sqlite"
	StoreMySQL    StoreKind = "mysql"
	StorePostgres StoreKind = "postgres"
	StoreDynamoDB StoreKind = "dynamodb"
)

var ErrMissingTable = errors.New(EnvTable + " is not set")

type DynamoDB struct {
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

type Config struct {
	// Table names the backing table or collection. Required.
	Table string `toml:"table"`

	Store StoreKind `toml:"store"`

	// DSN is the SQL connection string, or the file path for sqlite.
	DSN string `toml:"dsn"`

	HTTPAddr        string   `toml:"http_addr"`
	LogLevel        string   `toml:"log_level"`
	LogFormat       string   `toml:"log_format"`
	CORSAllowOrigin string   `toml:"cors_allow_origin"`
	DynamoDB        DynamoDB `toml:"dynamodb"`
}

func Default() Config {
	return Config{
		Store:     StoreDynamoDB,
		HTTPAddr:  ":8080",
		LogLevel:  logging.LevelInfo,
		LogFormat: logging.FormatJSON,
	}
}

// LoadDotEnv exports variables from path without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the TOML file at path (if any) and applies environment
// overrides. The result is not validated.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	override := func(dst *string, name string) {
		if value := strings.TrimSpace(getenv(name)); value != "" {
			*dst = value
		}
	}
	override(&cfg.Table, EnvTable)
	override(&cfg.DSN, EnvDSN)
	override(&cfg.HTTPAddr, EnvHTTPAddr)
	override(&cfg.LogLevel, EnvLogLevel)
	override(&cfg.LogFormat, EnvLogFormat)
	override(&cfg.CORSAllowOrigin, EnvCORSAllowOrigin)
	override(&cfg.DynamoDB.Region, EnvAWSRegion)
	override(&cfg.DynamoDB.Endpoint, EnvDynamoDBEndpoint)

	var store string
	override(&store, EnvStore)
	if store != "" {
		cfg.Store = StoreKind(strings.ToLower(store))
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Table) == "" {
		return ErrMissingTable
	}

	switch c.Store {
	case StoreMemory, StoreDynamoDB:
	case StoreSQLite, StoreMySQL, StorePostgres:
		if c.DSN == "" {
			return fmt.Errorf("%s store requires %s", c.Store, EnvDSN)
		}
	default:
		return fmt.Errorf("unknown store %q (supported: memory, sqlite, mysql, postgres, dynamodb)", c.Store)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
