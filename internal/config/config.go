package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all process-wide configuration for GhostPost, constructed
// once at startup and threaded through component constructors (spec.md §9
// "Global configuration" design note). Tests build a Config literal
// directly rather than loading it from disk.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	ContextRoot string            `yaml:"context_root"`
	Bedrock     BedrockConfig     `yaml:"bedrock"`
	SES         SESConfig         `yaml:"ses"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
}

// ServerConfig holds the thin HTTP API's listen address.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, allowing an environment override so
// container deployments can bind 0.0.0.0 without editing the config file.
func (c ServerConfig) GetHost() string {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection string.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the counter-store / pub-sub connection.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// BedrockConfig configures the LLM completion interface.
type BedrockConfig struct {
	Region         string `yaml:"region"`
	ModelID        string `yaml:"model_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured Bedrock call timeout.
func (c BedrockConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig configures the mail-provider send interface.
type SESConfig struct {
	Region         string `yaml:"region"`
	FromAddress    string `yaml:"from_address"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured SES call timeout.
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AttachmentsConfig configures the optional S3-backed attachment store.
type AttachmentsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	Region        string `yaml:"region"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

// DefaultsConfig holds configured defaults named after the Setting keys
// the core consumes (spec.md §6). Only SendRateLimit is read, as the send
// gate's hourly limit; the other fields are loaded and defaulted but no
// component reads them, and a missing Setting row falls back to each
// package's own built-in default instead.
type DefaultsConfig struct {
	ReplyStyle          string `yaml:"reply_style"`
	DefaultFollowUpDays int    `yaml:"default_follow_up_days"`
	SendRateLimit       int    `yaml:"send_rate_limit"`
	NotifyNewEmail      bool   `yaml:"notification_new_email"`
	NotifyGoalMet       bool   `yaml:"notification_goal_met"`
	NotifySecurityAlert bool   `yaml:"notification_security_alert"`
	NotifyDraftReady    bool   `yaml:"notification_draft_ready"`
	NotifyStaleThread   bool   `yaml:"notification_stale_thread"`
}

// defaulted applies the built-in fallback values named in spec.md §6.
func defaulted(cfg Config) Config {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.ContextRoot == "" {
		cfg.ContextRoot = "context"
	}
	if cfg.Bedrock.TimeoutSeconds == 0 {
		cfg.Bedrock.TimeoutSeconds = 30
	}
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = "us-east-1"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.Defaults.ReplyStyle == "" {
		cfg.Defaults.ReplyStyle = "professional"
	}
	if cfg.Defaults.DefaultFollowUpDays == 0 {
		cfg.Defaults.DefaultFollowUpDays = 3
	}
	if cfg.Defaults.SendRateLimit == 0 {
		cfg.Defaults.SendRateLimit = 20
	}
	return cfg
}

// Load reads and parses the configuration file, applying built-in
// defaults for any field left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg = defaulted(cfg)
	return &cfg, nil
}

// LoadFromEnv loads configuration from a YAML file, overlaying a local
// .env file (if present) and then real environment variables — secrets
// live in .env locally and in real env vars in deployed environments.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CONTEXT_ROOT"); v != "" {
		cfg.ContextRoot = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		if cfg.Bedrock.Region == "" {
			cfg.Bedrock.Region = v
		}
		if cfg.SES.Region == "" {
			cfg.SES.Region = v
		}
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Bedrock.ModelID = v
	}
	if v := os.Getenv("SES_FROM_ADDRESS"); v != "" {
		cfg.SES.FromAddress = v
	}
	if v := os.Getenv("ATTACHMENTS_BUCKET"); v != "" {
		cfg.Attachments.Bucket = v
		cfg.Attachments.Enabled = true
	}

	return cfg, nil
}
