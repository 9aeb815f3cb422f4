package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMinio  = "minio"
	DriverDisk   = "disk"

	defaultPresignTTL = time.Hour
)

// Config represents the application configuration loaded from a TOML file.
//
// Fields tagged with env are overridden by the matching environment variable
// when it is set, see [ApplyEnv].
type Config struct {
	Netease  NeteaseConfig  `toml:"netease"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Download DownloadConfig `toml:"download"`
	Log      LogConfig      `toml:"log"`
}

// NeteaseConfig contains remote API settings.
type NeteaseConfig struct {
	CookiePath        string  `toml:"cookie_path" env:"YUNX_COOKIE_PATH"`
	BaseURL           string  `toml:"base_url"`
	Quality           string  `toml:"quality"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Timeout returns the per-request timeout, or zero for none.
func (c NeteaseConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains metadata cache connection settings.
type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	MaxIdleConns  int    `toml:"max_idle_conns"`
	MongoURI      string `toml:"mongo_uri" env:"MONGO_DB_HOST"`
	MongoDatabase string `toml:"mongo_database"`
}

// StorageConfig contains blob cache settings.
type StorageConfig struct {
	Driver     string `toml:"driver"`
	Endpoint   string `toml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey  string `toml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey  string `toml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket     string `toml:"bucket"`
	Secure     bool   `toml:"secure"`
	DiskPath   string `toml:"disk_path"`
	PresignTTL string `toml:"presign_ttl"`
}

// PresignDuration parses PresignTTL, falling back to one hour when it is empty or invalid.
func (c StorageConfig) PresignDuration() time.Duration {
	d, err := time.ParseDuration(c.PresignTTL)
	if err != nil || d <= 0 {
		return defaultPresignTTL
	}
	return d
}

// DownloadConfig contains local download settings.
type DownloadConfig struct {
	Directory   string `toml:"directory"`
	Concurrency int    `toml:"concurrency"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment overrides.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads variables from a dotenv file into the process environment,
// overriding existing values. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config fields from their environment variables.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks driver names and numeric limits.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	switch c.Storage.Driver {
	case DriverMinio, DriverDisk:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Download.Concurrency < 1 {
		return fmt.Errorf("%w: download concurrency must be positive", ErrInvalidConfig)
	}

	if c.Netease.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second cannot be negative", ErrInvalidConfig)
	}

	return nil
}
