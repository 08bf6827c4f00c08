// Package console runs an inspection interview on a terminal, for operators
// and local testing. It plays the role of a chat client: it prints the bot's
// messages and turns typed lines into interview events.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/laksh02009/Telegram-bot/internal/bot"
	"github.com/laksh02009/Telegram-bot/internal/interview"
)

// Handler processes one event and delivers its actions. *bot.Bot implements it.
type Handler interface {
	HandleAndDeliver(ctx context.Context, ev interview.Event, s bot.Sender) error
}

const (
	primaryColor   = "#7C3AED"
	secondaryColor = "#10B981"
	dimColor       = "#6B7280"
)

var (
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColor)).Bold(true)
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(secondaryColor))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(dimColor))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	reportStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)
)

// Console is a single-user chat session on a reader and writer. It
// implements bot.Sender.
type Console struct {
	mu     sync.Mutex
	in     io.Reader
	out    io.Writer
	userID string
	name   string
	styled bool
	now    func() time.Time

	// choice is the most recent question shown, used to resolve numeric
	// and label replies into option presses.
	choice    interview.Action
	hasChoice bool
}

// New creates a Console. Styling is enabled when out is a terminal.
func New(in io.Reader, out io.Writer, userID, nameHint string) *Console {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &Console{in: in, out: out, userID: userID, name: nameHint, styled: styled, now: time.Now}
}

// Send prints an action. Choices are listed as numbered options.
func (c *Console) Send(_ context.Context, a interview.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	text := a.Text
	if a.Markdown {
		text = c.plain(text)
		if c.styled {
			text = reportStyle.Render(text)
		}
		b.WriteString(text)
		b.WriteString("\n")
	} else {
		b.WriteString(c.style(botStyle, "bot> "))
		b.WriteString(text)
		b.WriteString("\n")
	}

	if a.Kind == interview.ActionSendChoice {
		for i, opt := range a.Options {
			fmt.Fprintf(&b, "  %s %s\n", c.style(dimStyle, "["+strconv.Itoa(i+1)+"]"), c.style(optionStyle, opt))
		}
		c.choice, c.hasChoice = a, true
	}

	_, err := io.WriteString(c.out, b.String())
	return err
}

// Run starts an interview and feeds typed lines to h until input ends, the
// user types /quit, or ctx is done. /start restarts the interview.
func (c *Console) Run(ctx context.Context, h Handler) error {
	fmt.Fprintln(c.out, c.style(dimStyle, "Type /start to restart, /quit to exit. Pick options by number or label."))

	if err := h.HandleAndDeliver(ctx, interview.Start(c.userID, c.name, c.now()), c); err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			return nil
		}
		if err := h.HandleAndDeliver(ctx, c.event(line), c); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// event maps a typed line onto an interview event.
func (c *Console) event(line string) interview.Event {
	now := c.now()
	if line == "/start" {
		return interview.Start(c.userID, c.name, now)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasChoice {
		if label, ok := pick(c.choice.Options, line); ok {
			c.hasChoice = false
			return interview.OptionFor(c.userID, c.choice.Item, label, now)
		}
	}
	return interview.Text(c.userID, line, now)
}

// pick resolves a 1-based number or a case-insensitive label.
func pick(options []string, line string) (string, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	for _, opt := range options {
		if strings.EqualFold(opt, line) {
			return opt, true
		}
	}
	return "", false
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return s.Render(text)
}

// plain undoes MarkdownV2 escaping. Unescaped asterisks delimit bold spans.
func (c *Console) plain(s string) string {
	var out, span strings.Builder
	bold := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s):
			i++
			if bold {
				span.WriteByte(s[i])
			} else {
				out.WriteByte(s[i])
			}
		case ch == '*':
			if bold {
				out.WriteString(c.style(boldStyle, span.String()))
				span.Reset()
			}
			bold = !bold
		case bold:
			span.WriteByte(ch)
		default:
			out.WriteByte(ch)
		}
	}
	out.WriteString(span.String())
	return out.String()
}
