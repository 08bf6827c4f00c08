package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/interview"
)

// DefaultAPIBase is the public Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

const (
	requestTimeout = 15 * time.Second
	// maxCallbackData is the Bot API limit for callback_data, in bytes.
	maxCallbackData = 64
)

// Client calls the Bot API. It implements bot.Sender.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a client for the bot identified by token. An empty base
// selects DefaultAPIBase.
func NewClient(base, token string, hc *http.Client) *Client {
	if base == "" {
		base = DefaultAPIBase
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: strings.TrimRight(base, "/"), token: token, http: hc}
}

// Send delivers one interview action as a message to the user's private chat.
func (c *Client) Send(ctx context.Context, a interview.Action) error {
	req := sendMessageRequest{ChatID: a.UserID, Text: a.Text}
	if a.Markdown {
		req.ParseMode = "MarkdownV2"
	}
	if a.Kind == interview.ActionSendChoice {
		kb, err := keyboard(a.Item, a.Options)
		if err != nil {
			return err
		}
		req.ReplyMarkup = kb
	}
	return c.call(ctx, "sendMessage", req, nil, requestTimeout)
}

// AnswerCallbackQuery acknowledges a button press so the client stops its
// loading indicator.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: id}, nil, requestTimeout)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	var updates []Update
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	wait := time.Duration(timeout)*time.Second + requestTimeout
	if err := c.call(ctx, "getUpdates", req, &updates, wait); err != nil {
		return nil, err
	}
	return updates, nil
}

// DeleteWebhook removes any registered webhook. getUpdates fails while one is set.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{}, nil, requestTimeout)
}

func (c *Client) call(ctx context.Context, method string, payload, out any, timeout time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encoding request: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/bot"+c.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, redact(err))
	}
	defer resp.Body.Close()

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("telegram %s: decoding response (status %d): %w", method, resp.StatusCode, err)
	}
	if !env.OK {
		return &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decoding result: %w", method, err)
		}
	}
	return nil
}

// redact drops the request URL, which carries the bot token, from transport errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// keyboard lays out one button per row in option order.
func keyboard(item int, options []string) (*InlineKeyboardMarkup, error) {
	rows := make([][]InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		data := EncodeCallbackData(item, opt)
		if len(data) > maxCallbackData {
			return nil, fmt.Errorf("telegram: option %q too long for callback data", opt)
		}
		rows = append(rows, []InlineKeyboardButton{{Text: opt, CallbackData: data}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}
