package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/bot"
	"github.com/laksh02009/Telegram-bot/internal/interview"
	"github.com/laksh02009/Telegram-bot/internal/log"
)

// Dispatcher queues events for processing. *bot.Bot implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev interview.Event, s bot.Sender)
}

// EncodeCallbackData tags an option label with the checklist item it answers,
// so presses on buttons from earlier questions can be recognized.
func EncodeCallbackData(item int, label string) string {
	return strconv.Itoa(item) + ":" + label
}

// ParseCallbackData splits data produced by EncodeCallbackData. Data without
// an index prefix yields item -1 and the whole string as the label.
func ParseCallbackData(data string) (item int, label string) {
	prefix, rest, ok := strings.Cut(data, ":")
	if !ok {
		return -1, data
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n < 0 {
		return -1, data
	}
	return n, rest
}

// EventFromUpdate translates an update into an interview event. ok is false
// for updates the interview has no use for. callbackID is set for button
// presses, which must be acknowledged whether or not they produce an event.
func EventFromUpdate(u Update) (ev interview.Event, callbackID string, ok bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.Data == "" {
			return interview.Event{}, q.ID, false
		}
		item, label := ParseCallbackData(q.Data)
		return interview.OptionFor(userID(q.From), item, label, time.Time{}), q.ID, true

	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.From.IsBot || m.Chat.Type != "private" || m.Text == "" {
			return interview.Event{}, "", false
		}
		at := time.Unix(m.Date, 0).UTC()
		if isStartCommand(m.Text) {
			return interview.Start(userID(*m.From), displayName(*m.From), at), "", true
		}
		return interview.Text(userID(*m.From), m.Text, at), "", true
	}
	return interview.Event{}, "", false
}

// isStartCommand matches "/start", "/start@BotName" and "/start payload".
func isStartCommand(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}

func userID(u User) string {
	return strconv.FormatInt(u.ID, 10)
}

func displayName(u User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Receiver feeds updates from either polling or the webhook into a Dispatcher,
// replying through its Client.
type Receiver struct {
	client     *Client
	dispatcher Dispatcher
}

// NewReceiver creates a Receiver.
func NewReceiver(client *Client, d Dispatcher) *Receiver {
	return &Receiver{client: client, dispatcher: d}
}

// HandleUpdate acknowledges button presses and dispatches the resulting event.
// It does not wait for the event to be processed.
func (r *Receiver) HandleUpdate(ctx context.Context, u Update) {
	ev, callbackID, ok := EventFromUpdate(u)
	if callbackID != "" {
		if err := r.client.AnswerCallbackQuery(ctx, callbackID); err != nil {
			log.Warnf("[telegram] answer callback %s: %v", callbackID, err)
		}
	}
	if !ok {
		log.Debugf("[telegram] skipped update %d", u.UpdateID)
		return
	}
	r.dispatcher.Dispatch(ctx, ev, r.client)
}

// Poll long-polls getUpdates until ctx is done. Failed polls are retried after
// retryDelay. It returns nil when ctx is canceled.
func (r *Receiver) Poll(ctx context.Context, timeout int, retryDelay time.Duration) error {
	if err := r.client.DeleteWebhook(ctx); err != nil {
		log.Warnf("[telegram] delete webhook: %v", err)
	}
	log.Infof("[telegram] polling for updates (timeout %ds)", timeout)

	var offset int64
	for {
		updates, err := r.client.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == 401 {
				return err
			}
			log.Warnf("[telegram] %v; retrying in %s", err, retryDelay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			r.HandleUpdate(ctx, u)
		}
	}
}
