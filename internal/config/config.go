// Package config handles reading and writing .inspector/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/interview"
	"github.com/laksh02009/Telegram-bot/internal/report"
)

// Config is the top-level structure for .inspector/config.yaml.
type Config struct {
	Version   int              `yaml:"version"`
	Interview InterviewConfig  `yaml:"interview"`
	Checklist []checklist.Item `yaml:"checklist,omitempty"`
	Store     StoreConfig      `yaml:"store"`
	Telegram  TelegramConfig   `yaml:"telegram"`
	Log       LogConfig        `yaml:"log"`
}

// InterviewConfig selects the conversation variant.
type InterviewConfig struct {
	RequireName        bool     `yaml:"require_name"`
	AskRemarks         bool     `yaml:"ask_remarks"`
	SkipRemarkFor      []string `yaml:"skip_remark_for,omitempty"`
	RemarkSentinel     string   `yaml:"remark_sentinel"`
	RetainCompleted    bool     `yaml:"retain_completed"`
	ReplyWhenCompleted bool     `yaml:"reply_when_completed"`
}

// StoreConfig chooses where sessions live.
type StoreConfig struct {
	Driver        string `yaml:"driver"` // "memory" | "sqlite"
	Path          string `yaml:"path"`   // relative paths resolve against the project dir
	SessionTTL    string `yaml:"session_ttl,omitempty"`
	SweepInterval string `yaml:"sweep_interval"`
}

// TelegramConfig controls the Telegram transport. Credentials are read from
// the named environment variables, never from this file.
type TelegramConfig struct {
	Mode        string `yaml:"mode"` // "polling" | "webhook"
	ListenAddr  string `yaml:"listen_addr"`
	WebhookPath string `yaml:"webhook_path"`
	TokenEnv    string `yaml:"token_env"`
	SecretEnv   string `yaml:"secret_env"`
	APIBase     string `yaml:"api_base"`
	PollTimeout int    `yaml:"poll_timeout"` // seconds
}

// LogConfig controls process logging and the audit event log.
type LogConfig struct {
	Level  string `yaml:"level"`
	Events bool   `yaml:"events"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Telegram modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Dir is the directory, relative to the project root, holding config and state.
const Dir = ".inspector"

const configFile = "config.yaml"

// ReadConfig reads .inspector/config.yaml from the given project directory.
// dir is the project root (not .inspector/ itself). Fields missing from the
// file keep their defaults.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, Dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to .inspector/config.yaml in the given project directory.
// Creates the .inspector/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, Dir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Interview: InterviewConfig{
			RequireName:        true,
			AskRemarks:         true,
			RemarkSentinel:     "N/A",
			RetainCompleted:    true,
			ReplyWhenCompleted: true,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			Path:          filepath.Join(Dir, "sessions.db"),
			SweepInterval: "10m",
		},
		Telegram: TelegramConfig{
			Mode:        ModePolling,
			ListenAddr:  ":8080",
			WebhookPath: "/telegram/webhook",
			TokenEnv:    "TELEGRAM_BOT_TOKEN",
			SecretEnv:   "TELEGRAM_WEBHOOK_SECRET",
			APIBase:     "https://api.telegram.org",
			PollTimeout: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Events: true,
		},
	}
}

// Validate checks values that cannot be caught by YAML decoding.
func (c *Config) Validate() error {
	cl, err := c.BuildChecklist()
	if err != nil {
		return err
	}
	if err := CheckMarkup(cl); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverSQLite && c.Store.Path == "" {
		return fmt.Errorf("store.path: required for sqlite driver")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if _, err := c.SweepInterval(); err != nil {
		return err
	}

	switch c.Telegram.Mode {
	case ModePolling, ModeWebhook:
	default:
		return fmt.Errorf("telegram.mode: unknown mode %q", c.Telegram.Mode)
	}
	if c.Telegram.TokenEnv == "" {
		return fmt.Errorf("telegram.token_env: required")
	}
	if c.Telegram.Mode == ModeWebhook && c.Telegram.SecretEnv == "" {
		return fmt.Errorf("telegram.secret_env: required in webhook mode")
	}

	return nil
}

// BuildChecklist returns the configured checklist, or the built-in one when
// the file lists none.
func (c *Config) BuildChecklist() (*checklist.Checklist, error) {
	if len(c.Checklist) == 0 {
		return checklist.Default(), nil
	}
	cl, err := checklist.New(c.Checklist)
	if err != nil {
		return nil, fmt.Errorf("checklist: %w", err)
	}
	return cl, nil
}

// CheckMarkup rejects prompts and option labels that would break the
// MarkdownV2 report, which emits them unescaped.
func CheckMarkup(cl *checklist.Checklist) error {
	for _, item := range cl.Items() {
		if err := report.CheckStatic(item.Prompt); err != nil {
			return fmt.Errorf("checklist item %d prompt: %w", item.Index+1, err)
		}
		for _, opt := range item.Options {
			if err := report.CheckStatic(opt); err != nil {
				return fmt.Errorf("checklist item %d option: %w", item.Index+1, err)
			}
		}
	}
	return nil
}

// InterviewOptions maps the interview section onto the state machine config.
func (c *Config) InterviewOptions() interview.Config {
	return interview.Config{
		RequireName:        c.Interview.RequireName,
		AskRemarks:         c.Interview.AskRemarks,
		SkipRemarkFor:      c.Interview.SkipRemarkFor,
		RemarkSentinel:     c.Interview.RemarkSentinel,
		ReplyWhenCompleted: c.Interview.ReplyWhenCompleted,
	}
}

// SessionTTL parses store.session_ttl. Zero means sessions never expire.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Store.SessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Store.SessionTTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("store.session_ttl: invalid duration %q", c.Store.SessionTTL)
	}
	return d, nil
}

// SweepInterval parses store.sweep_interval, defaulting to ten minutes.
func (c *Config) SweepInterval() (time.Duration, error) {
	if c.Store.SweepInterval == "" {
		return 10 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.Store.SweepInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("store.sweep_interval: invalid duration %q", c.Store.SweepInterval)
	}
	return d, nil
}

// StorePath resolves store.path against the project directory.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// Credentials reads the bot token and the webhook secret from the environment
// variables named in the telegram section. Webhook mode requires a secret so
// that only Telegram can post updates.
func (c *Config) Credentials(getenv func(string) string) (token, secret string, err error) {
	token = getenv(c.Telegram.TokenEnv)
	if token == "" {
		return "", "", fmt.Errorf("bot token not set: export %s", c.Telegram.TokenEnv)
	}
	if c.Telegram.SecretEnv != "" {
		secret = getenv(c.Telegram.SecretEnv)
	}
	if c.Telegram.Mode == ModeWebhook && secret == "" {
		return "", "", fmt.Errorf("webhook secret not set: export %s", c.Telegram.SecretEnv)
	}
	return token, secret, nil
}
