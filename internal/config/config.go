package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/example/assetflow/internal/core/transfer"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "ASSETFLOW_CONFIG"

// Config represents the assetflow configuration. Every field can be
// overridden from the environment.
type Config struct {
	Actor    Actor    `yaml:"actor"`
	Database Database `yaml:"database"`
	Gateway  Gateway  `yaml:"gateway"`
	Server   Server   `yaml:"server"`
	Kafka    Kafka    `yaml:"kafka"`
	Log      Log      `yaml:"log"`
	Policy   Policy   `yaml:"policy"`
}

// Actor is the identity the CLI acts as.
type Actor struct {
	ID   int64  `yaml:"id" env:"ASSETFLOW_ACTOR_ID"`
	Role string `yaml:"role" env:"ASSETFLOW_ACTOR_ROLE" env-default:"User"`
}

// Database locates the local SQLite store.
type Database struct {
	Path string `yaml:"path,omitempty" env:"ASSETFLOW_DB_PATH"`
}

// Gateway selects a remote gateway. An empty URL means the local store.
type Gateway struct {
	URL     string        `yaml:"url,omitempty" env:"ASSETFLOW_GATEWAY_URL"`
	Timeout time.Duration `yaml:"timeout" env:"ASSETFLOW_GATEWAY_TIMEOUT" env-default:"10s"`
}

// Server configures `assetflow serve`.
type Server struct {
	Addr string `yaml:"addr" env:"ASSETFLOW_SERVER_ADDR" env-default:":8080"`
}

// Kafka configures the transfer event publisher. No brokers disables it.
type Kafka struct {
	Brokers []string `yaml:"brokers,omitempty" env:"ASSETFLOW_KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"ASSETFLOW_KAFKA_TOPIC" env-default:"transfer-events"`
}

// Log configures structured logging.
type Log struct {
	Level  string `yaml:"level" env:"ASSETFLOW_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"ASSETFLOW_LOG_FORMAT" env-default:"text"` // "text" or "json"
}

// Policy holds workflow rules.
type Policy struct {
	AllowSelfApproval bool `yaml:"allow_self_approval" env:"ASSETFLOW_ALLOW_SELF_APPROVAL"`
}

// Path returns the config file path for dir, honouring ASSETFLOW_CONFIG.
func Path(dir string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(dir, ".assetflow", "config.yaml")
}

// LoadConfig reads .assetflow/config.yaml from dir and applies environment
// overrides. A missing file is not an error: defaults and environment apply.
func LoadConfig(dir string) (*Config, error) {
	var cfg Config
	path := Path(dir)

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		return FromEnv()
	default:
		return nil, fmt.Errorf("failed to stat config: %w", statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the config file for dir.
func SaveConfig(dir string, cfg *Config) error {
	path := Path(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks values cleanenv cannot express.
func (c *Config) Validate() error {
	switch transfer.Role(c.Actor.Role) {
	case transfer.RoleAdministrator, transfer.RoleManager, transfer.RoleUser:
	default:
		return fmt.Errorf("invalid actor role %q: must be Administrator, Manager or User", c.Actor.Role)
	}
	if c.Actor.ID < 0 {
		return fmt.Errorf("invalid actor id %d", c.Actor.ID)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.Log.Format)
	}
	return nil
}

// Caller returns the configured identity.
func (c *Config) Caller() transfer.Caller {
	return transfer.Caller{ID: c.Actor.ID, Role: transfer.Role(c.Actor.Role)}
}

// IsRemote reports whether a remote gateway is configured.
func (c *Config) IsRemote() bool {
	return c.Gateway.URL != ""
}

// NewLogger builds the slog logger described by the log section.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
