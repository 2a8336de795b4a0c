// Package settings loads the service configuration from config/app.yaml with
// environment variable overrides. A missing file yields the defaults.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server          ServerConfig   `yaml:"server"`
	Database        DatabaseConfig `yaml:"database"`
	AppID           string         `yaml:"app_id"`
	DefaultLanguage string         `yaml:"default_language"`
	ModelsFile      string         `yaml:"models_file"`
	ResourcesDir    string         `yaml:"resources_dir"`
	Market          MarketConfig   `yaml:"market"`
	Speech          SpeechConfig   `yaml:"speech"`
	Auth            AuthConfig     `yaml:"auth"`
	Storage         StorageConfig  `yaml:"storage"`
	Notify          NotifyConfig   `yaml:"notify"`
	Log             LogConfig      `yaml:"log"`
	Tracing         TracingConfig  `yaml:"tracing"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type MarketConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	ResourceID string        `yaml:"resource_id"`
	Limit      int           `yaml:"limit"`
	Timeout    time.Duration `yaml:"timeout"`
}

type SpeechConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
}

type AuthConfig struct {
	OTPTTL      time.Duration `yaml:"otp_ttl"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type StorageConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

type NotifyConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		AppID:           "default-app",
		DefaultLanguage: "kn",
		ModelsFile:      "config/models.yaml",
		ResourcesDir:    "resources",
		Market: MarketConfig{
			BaseURL:    "https://api.data.gov.in/resource/",
			ResourceID: "9ef84268-d588-465a-a308-a864a43d0070",
			Limit:      10,
			Timeout:    15 * time.Second,
		},
		Speech: SpeechConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash-preview-tts",
			Voice:    "Algenib",
		},
		Auth: AuthConfig{
			OTPTTL:      5 * time.Minute,
			SessionTTL:  30 * 24 * time.Hour,
			MaxAttempts: 5,
		},
		Storage: StorageConfig{S3Prefix: "diagnoses/"},
		Notify:  NotifyConfig{KafkaTopic: "farmer-notifications"},
		Log:     LogConfig{Level: "info"},
		Tracing: TracingConfig{ServiceName: "farmer-assist"},
	}
}

// Load reads path (if it exists) over the defaults and then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("APP_ID"); v != "" {
		cfg.AppID = v
	}
	if v := os.Getenv("DATAGOVIN_API_KEY"); v != "" {
		cfg.Market.APIKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Notify.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DEFAULT_LANGUAGE"); v != "" {
		cfg.DefaultLanguage = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
