// env.go loads configuration and assembles the store and bot shared by commands.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/laksh02009/Telegram-bot/internal/bot"
	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/config"
	"github.com/laksh02009/Telegram-bot/internal/interview"
	"github.com/laksh02009/Telegram-bot/internal/log"
	"github.com/laksh02009/Telegram-bot/internal/metrics"
	"github.com/laksh02009/Telegram-bot/internal/session"
)

// loadConfig reads and validates the project config. A missing file yields
// the defaults so the bot can run without `inspector init`.
func loadConfig() (*config.Config, error) {
	cfg, err := config.ReadConfig(projectDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("[cli] no config in %s, using defaults", filepath.Join(projectDir, config.Dir))
		cfg = config.DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logLevel == "" {
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		log.SetLevel(level)
	}
	return cfg, nil
}

// env holds everything a command needs to run interviews.
type env struct {
	cfg       *config.Config
	checklist *checklist.Checklist
	store     session.Store
	bot       *bot.Bot
}

// openStore opens the configured session store.
func openStore(cfg *config.Config) (session.Store, error) {
	opts := session.Options{RequireName: cfg.Interview.RequireName}
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return session.NewMemoryStore(opts), nil
	default:
		path := cfg.StorePath(projectDir)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		store, err := session.NewSQLiteStore(path, opts)
		if err != nil {
			return nil, fmt.Errorf("opening session store %s: %w", path, err)
		}
		return store, nil
	}
}

// openEnv builds the bot over the configured store. rec may be nil.
func openEnv(cfg *config.Config, rec metrics.Recorder) (*env, error) {
	cl, err := cfg.BuildChecklist()
	if err != nil {
		return nil, err
	}
	machine, err := interview.NewMachine(cl, cfg.InterviewOptions())
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	var events log.Recorder = log.Discard{}
	if cfg.Log.Events {
		el, err := log.NewEventLog(filepath.Join(projectDir, config.Dir))
		if err != nil {
			store.Close()
			return nil, err
		}
		events = el
	}

	b := bot.New(machine, store, bot.Options{
		RetainCompleted: cfg.Interview.RetainCompleted,
		Events:          events,
		Metrics:         rec,
	})
	return &env{cfg: cfg, checklist: cl, store: store, bot: b}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		log.Warnf("[cli] closing store: %v", err)
	}
}
