package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/log"
)

// Sweep removes sessions created more than ttl ago and returns their user ids.
// It bypasses the user lanes, so an event in flight for a swept user may
// write its session back.
func (b *Bot) Sweep(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("sweep: ttl must be positive, got %s", ttl)
	}

	removed, err := b.store.RemoveCreatedBefore(b.opts.Now().Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	for _, id := range removed {
		b.audit(log.LogEvent{Event: log.EventSessionSwept, UserID: id})
	}
	if len(removed) > 0 {
		log.Infof("[bot] swept %d sessions older than %s", len(removed), ttl)
	}
	return removed, nil
}

// StartSweeper runs Sweep every interval until ctx is done.
func (b *Bot) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := b.Sweep(ttl); err != nil {
					log.Warnf("[bot] %v", err)
				}
			}
		}
	}()
}
