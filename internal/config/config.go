package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Reports    ReportsConfig    `yaml:"reports"`
	Categories CategoriesConfig `yaml:"categories"`
	Admin      AdminConfig      `yaml:"admin"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	BcryptCost    int    `yaml:"bcrypt_cost"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
	// QueryTimeoutSec bounds every store call; a timeout surfaces to the
	// caller as a retryable unavailability, never a silent failure.
	QueryTimeoutSec int `yaml:"query_timeout_sec"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ReportsConfig struct {
	Path string `yaml:"path"`
}

type CategoriesConfig struct {
	Path string `yaml:"path"`
}

// AdminConfig bootstraps the first administrator account when no admin
// exists yet.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Phone    string `yaml:"phone"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables referenced from the YAML still
	// resolve without it.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("auth jwt secret is required")
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "buildconnect"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec == 0 {
		c.HTTP.ReadTimeoutSec = 5
	}
	if c.HTTP.WriteTimeoutSec == 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24 * 7
	}
	if c.Database.QueryTimeoutSec == 0 {
		c.Database.QueryTimeoutSec = 5
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 10
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
	if c.Reports.Path == "" {
		c.Reports.Path = "exports"
	}
}
