package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	App      AppConfig      `yaml:"app"`
	Model    ModelConfig    `yaml:"model"`
	Data     DataConfig     `yaml:"data"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `yaml:"debug"`
}

type ModelConfig struct {
	Path         string  `yaml:"path"`
	Version      string  `yaml:"version"`
	Store        string  `yaml:"store"` // "file" or "sqlite"
	SQLitePath   string  `yaml:"sqlite_path"`
	Seed         int     `yaml:"seed"`
	NEstimators  int     `yaml:"n_estimators"`
	MaxDepth     int     `yaml:"max_depth"`
	TestFraction float64 `yaml:"test_fraction"`
}

type DataConfig struct {
	Source        string `yaml:"source"` // "csv" or "postgres"
	Path          string `yaml:"path"`
	Table         string `yaml:"table"`
	SyntheticRows int    `yaml:"synthetic_rows"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

type AuthConfig struct {
	Required bool `yaml:"required"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
}

type MQTTConfig struct {
	URL      string `yaml:"url"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// GetURL is the same connection in URL form, as pgxpool expects it.
func (d DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Origins splits the comma separated CORS setting.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LoadConfig reads settings from the environment. When CONFIG_FILE names a
// YAML file, its values replace the defaults and environment variables
// still win over both.
func LoadConfig() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, MetricsAddr: ":9090"},
		App:    AppConfig{Name: "Accident Severity Prediction API", Version: "2.0.0"},
		Model: ModelConfig{
			Path:         "models",
			Version:      "1.0.0",
			Store:        "file",
			SQLitePath:   "models/artifacts.db",
			Seed:         42,
			NEstimators:  100,
			MaxDepth:     6,
			TestFraction: 0.2,
		},
		Data: DataConfig{
			Source:        "csv",
			Path:          "data/road_accident_dataset.csv",
			Table:         "road_accidents",
			SyntheticRows: 1000,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "accidents",
			Password: "accidents_dev_password",
			Name:     "accidents",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		JWT:   JWTConfig{Secret: "change-me-in-production", ExpiryHours: 24},
		CORS:  CORSConfig{AllowedOrigins: "*"},
		MQTT:  MQTTConfig{ClientID: "accident-api", Topic: "accidents/predict/+"},
		Log:   LogConfig{Level: "info", Format: "json"},
	}
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &cfg.Server.Port},
		{"MODEL_SEED", &cfg.Model.Seed},
		{"MODEL_N_ESTIMATORS", &cfg.Model.NEstimators},
		{"MODEL_MAX_DEPTH", &cfg.Model.MaxDepth},
		{"SYNTHETIC_ROWS", &cfg.Data.SyntheticRows},
		{"DB_PORT", &cfg.Database.Port},
		{"REDIS_PORT", &cfg.Redis.Port},
		{"REDIS_DB", &cfg.Redis.DB},
		{"JWT_EXPIRY_HOURS", &cfg.JWT.ExpiryHours},
	}
	for _, f := range ints {
		v, err := getIntEnv(f.key, *f.dst)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = v
	}

	fraction, err := getFloatEnv("MODEL_TEST_FRACTION", cfg.Model.TestFraction)
	if err != nil {
		return fmt.Errorf("invalid MODEL_TEST_FRACTION: %w", err)
	}
	cfg.Model.TestFraction = fraction

	bools := []struct {
		key string
		dst *bool
	}{
		{"DEBUG", &cfg.App.Debug},
		{"DB_ENABLED", &cfg.Database.Enabled},
		{"REDIS_ENABLED", &cfg.Redis.Enabled},
		{"AUTH_REQUIRED", &cfg.Auth.Required},
	}
	for _, f := range bools {
		v, err := getBoolEnv(f.key, *f.dst)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = v
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"METRICS_ADDR", &cfg.Server.MetricsAddr},
		{"APP_NAME", &cfg.App.Name},
		{"APP_VERSION", &cfg.App.Version},
		{"MODEL_PATH", &cfg.Model.Path},
		{"MODEL_VERSION", &cfg.Model.Version},
		{"MODEL_STORE", &cfg.Model.Store},
		{"MODEL_SQLITE_PATH", &cfg.Model.SQLitePath},
		{"DATA_SOURCE", &cfg.Data.Source},
		{"DATA_PATH", &cfg.Data.Path},
		{"DATA_TABLE", &cfg.Data.Table},
		{"DB_HOST", &cfg.Database.Host},
		{"DB_USER", &cfg.Database.User},
		{"DB_PASSWORD", &cfg.Database.Password},
		{"DB_NAME", &cfg.Database.Name},
		{"DB_SSLMODE", &cfg.Database.SSLMode},
		{"REDIS_HOST", &cfg.Redis.Host},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"JWT_SECRET", &cfg.JWT.Secret},
		{"CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins},
		{"MQTT_URL", &cfg.MQTT.URL},
		{"MQTT_CLIENT_ID", &cfg.MQTT.ClientID},
		{"MQTT_TOPIC", &cfg.MQTT.Topic},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, f := range strs {
		*f.dst = getEnv(f.key, *f.dst)
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Model.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid MODEL_STORE %q: want file or sqlite", c.Model.Store)
	}
	switch c.Data.Source {
	case "csv", "postgres":
	default:
		return fmt.Errorf("invalid DATA_SOURCE %q: want csv or postgres", c.Data.Source)
	}
	if c.Model.NEstimators < 1 {
		return fmt.Errorf("invalid MODEL_N_ESTIMATORS %d", c.Model.NEstimators)
	}
	if c.Model.MaxDepth < 1 {
		return fmt.Errorf("invalid MODEL_MAX_DEPTH %d", c.Model.MaxDepth)
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("invalid MODEL_TEST_FRACTION %.2f: want a value in (0, 1)", c.Model.TestFraction)
	}
	if c.Data.SyntheticRows < 10 {
		return fmt.Errorf("invalid SYNTHETIC_ROWS %d: need at least 10", c.Data.SyntheticRows)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}
