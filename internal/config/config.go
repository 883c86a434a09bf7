// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported session storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	StoragePath    string `mapstructure:"STORAGE_PATH"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	FixturesPath   string `mapstructure:"FIXTURES_PATH"`
	SyntheticUsers int    `mapstructure:"SYNTHETIC_USERS"`
	SyntheticPosts int    `mapstructure:"SYNTHETIC_POSTS"`
	SyntheticSeed  int64  `mapstructure:"SYNTHETIC_SEED"`

	LoginDelayMS      int `mapstructure:"LOGIN_DELAY_MS"`
	SignupDelayMS     int `mapstructure:"SIGNUP_DELAY_MS"`
	FetchDelayMS      int `mapstructure:"FETCH_DELAY_MS"`
	CreatePostDelayMS int `mapstructure:"CREATE_POST_DELAY_MS"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

var keys = []string{
	"APP_ENV", "PORT", "LOG_LEVEL", "STORAGE_DRIVER", "STORAGE_PATH",
	"REDIS_URL", "DATABASE_URL", "ALLOWED_ORIGINS", "FEATURE_FLAGS",
	"FIXTURES_PATH", "SYNTHETIC_USERS", "SYNTHETIC_POSTS", "SYNTHETIC_SEED",
	"LOGIN_DELAY_MS", "SIGNUP_DELAY_MS", "FETCH_DELAY_MS", "CREATE_POST_DELAY_MS",
	"TRACING_ENABLED", "TRACING_EXPORTER", "OTLP_ENDPOINT", "TRACING_SAMPLER_RATIO",
}

// SetDefaults registers the development defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8375")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", DriverMemory)
	v.SetDefault("STORAGE_PATH", "")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	v.SetDefault("FEATURE_FLAGS", "")
	v.SetDefault("FIXTURES_PATH", "")
	v.SetDefault("SYNTHETIC_USERS", 0)
	v.SetDefault("SYNTHETIC_POSTS", 0)
	v.SetDefault("SYNTHETIC_SEED", 42)
	v.SetDefault("LOGIN_DELAY_MS", 1000)
	v.SetDefault("SIGNUP_DELAY_MS", 1000)
	v.SetDefault("FETCH_DELAY_MS", 500)
	v.SetDefault("CREATE_POST_DELAY_MS", 1000)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// LoadConfig loads application configuration from .env, config files and
// environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	SetDefaults(v)

	// The base config file is optional.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "production" || env == "prod" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	} else if env != "development" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err == nil {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.StorageDriver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if c.StoragePath == "" {
			return fmt.Errorf("STORAGE_PATH is required for the %s storage driver", c.StorageDriver)
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis storage driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	for name, ms := range map[string]int{
		"LOGIN_DELAY_MS":       c.LoginDelayMS,
		"SIGNUP_DELAY_MS":      c.SignupDelayMS,
		"FETCH_DELAY_MS":       c.FetchDelayMS,
		"CREATE_POST_DELAY_MS": c.CreatePostDelayMS,
	} {
		if ms < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.SyntheticUsers < 0 || c.SyntheticPosts < 0 {
		return errors.New("SYNTHETIC_USERS and SYNTHETIC_POSTS must not be negative")
	}
	if c.SyntheticPosts > 0 && c.SyntheticUsers == 0 {
		return errors.New("SYNTHETIC_POSTS requires SYNTHETIC_USERS")
	}

	if c.TracingEnabled && c.TracingExporter != "stdout" && c.TracingExporter != "otlp" {
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.TracingExporter)
	}

	if c.IsProduction() {
		if c.StorageDriver == DriverMemory {
			log.Println("WARNING: STORAGE_DRIVER is 'memory' in production. Sessions are lost on restart.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Delays holds the simulated latency of each container operation.
type Delays struct {
	Login      time.Duration
	Signup     time.Duration
	Fetch      time.Duration
	CreatePost time.Duration
}

// Delays converts the millisecond settings into durations.
func (c *Config) Delays() Delays {
	return Delays{
		Login:      time.Duration(c.LoginDelayMS) * time.Millisecond,
		Signup:     time.Duration(c.SignupDelayMS) * time.Millisecond,
		Fetch:      time.Duration(c.FetchDelayMS) * time.Millisecond,
		CreatePost: time.Duration(c.CreatePostDelayMS) * time.Millisecond,
	}
}

// Default returns the development configuration without touching files or
// the environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	return &c
}
