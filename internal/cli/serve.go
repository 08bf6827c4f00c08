// serve.go implements the "inspector serve" command running the Telegram bot.
package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/laksh02009/Telegram-bot/internal/config"
	"github.com/laksh02009/Telegram-bot/internal/log"
	"github.com/laksh02009/Telegram-bot/internal/metrics"
	"github.com/laksh02009/Telegram-bot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the bot against the Telegram Bot API, by long polling or by
receiving webhook updates, depending on telegram.mode. The bot token is read
from the environment variable named by telegram.token_env.

An HTTP listener on telegram.listen_addr always serves /healthz and /metrics;
in webhook mode it also receives updates on telegram.webhook_path.`,
	RunE: runServe,
}

var serveMode string

func init() {
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "Override telegram.mode (polling or webhook)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveMode != "" {
		cfg.Telegram.Mode = serveMode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	token, secret, err := cfg.Credentials(os.Getenv)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e, err := openEnv(cfg, metrics.NewPrometheusRecorder(reg))
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ttl, _ := cfg.SessionTTL()
	if ttl > 0 {
		interval, _ := cfg.SweepInterval()
		e.bot.StartSweeper(ctx, ttl, interval)
	}

	client := telegram.NewClient(cfg.Telegram.APIBase, token, nil)
	receiver := telegram.NewReceiver(client, e.bot)

	opts := telegram.ServerOptions{Gatherer: reg}
	if cfg.Telegram.Mode == config.ModeWebhook {
		opts.Path = cfg.Telegram.WebhookPath
		opts.Secret = secret
	}
	router := telegram.NewRouter(ctx, receiver, opts)

	log.Infof("[serve] %d checklist items, mode %s, store %s", e.checklist.Len(), cfg.Telegram.Mode, cfg.Store.Driver)

	errCh := make(chan error, 2)
	go func() { errCh <- telegram.Serve(ctx, cfg.Telegram.ListenAddr, router) }()
	if cfg.Telegram.Mode == config.ModePolling {
		go func() { errCh <- receiver.Poll(ctx, cfg.Telegram.PollTimeout, 3*time.Second) }()
	}

	// The first component to stop ends the process.
	err = <-errCh
	stop()
	waitForLanes(e, 5*time.Second)
	return err
}

// waitForLanes gives queued events a chance to finish before the store closes.
func waitForLanes(e *env, limit time.Duration) {
	deadline := time.Now().Add(limit)
	for e.bot.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if n := e.bot.Pending(); n > 0 {
		log.Warnf("[serve] exiting with %d users still queued", n)
	}
}
