// Package report renders a session's answers into the summary document sent
// to the inspector when the checklist is finished.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/session"
)

// ErrInconsistentSession means the session's answers do not match its
// position in the checklist. It indicates a bug upstream; the report is never
// padded or truncated to hide it.
var ErrInconsistentSession = errors.New("report: session answers inconsistent with checklist position")

// Format selects the output dialect.
type Format int

const (
	// MarkdownV2 escapes free text for Telegram's MarkdownV2 parse mode.
	MarkdownV2 Format = iota
	// Plain emits the same layout without markup, for terminals and files.
	Plain
)

const timeLayout = "2006-01-02 15:04 MST"

// markdownV2Reserved lists every character MarkdownV2 requires to be escaped
// outside of entities.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!\\"

// Escape prefixes every MarkdownV2 reserved character in s with a backslash.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CheckStatic reports an error when s contains a MarkdownV2 reserved
// character. Prompts and option labels are rendered unescaped, so they must
// pass this check for the report to be accepted by Telegram.
func CheckStatic(s string) error {
	if i := strings.IndexAny(s, markdownV2Reserved); i >= 0 {
		return fmt.Errorf("%q contains %q, which MarkdownV2 reserves", s, s[i])
	}
	return nil
}

// Render produces the report for sess over cl. Sessions that are not yet
// completed render the answers recorded so far. Checklist prompts and option
// labels are static configuration and are emitted as-is; the display name,
// remarks and generated header values are escaped in MarkdownV2.
func Render(sess *session.Session, cl *checklist.Checklist, format Format) (string, error) {
	if err := verify(sess, cl); err != nil {
		return "", err
	}

	esc := func(s string) string { return s }
	bold := func(s string) string { return s }
	if format == MarkdownV2 {
		esc = Escape
		bold = func(s string) string { return "*" + s + "*" }
	}

	var b strings.Builder

	b.WriteString("📊 " + bold("Inspection Report") + "\n\n")

	name := sess.DisplayName
	if name == "" {
		name = "Unknown"
	}
	fmt.Fprintf(&b, "%s %s\n", bold("Inspector:"), esc(name))
	fmt.Fprintf(&b, "%s %s\n", bold("Started:"), esc(formatTime(sess.CreatedAt)))
	if sess.Phase() == session.PhaseCompleted {
		fmt.Fprintf(&b, "%s %s\n", bold("Completed:"), esc(formatTime(sess.CompletedAt)))
	} else {
		fmt.Fprintf(&b, "%s %s\n", bold("Status:"), esc(fmt.Sprintf("in progress, %d of %d answered", len(sess.Answers), cl.Len())))
	}
	fmt.Fprintf(&b, "%s %s\n", bold("Reference:"), esc(sess.ID))

	for i, ans := range sess.Answers {
		item, _ := cl.Item(i)
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s\n", bold(esc(fmt.Sprintf("Q%d.", i+1))), item.Prompt)
		fmt.Fprintf(&b, "Answer: %s\n", ans.Option)
		fmt.Fprintf(&b, "Remark: %s\n", esc(remarkText(ans.Remark)))
	}

	return b.String(), nil
}

// verify enforces len(answers) == currentIndex <= len(checklist).
func verify(sess *session.Session, cl *checklist.Checklist) error {
	if sess == nil || cl == nil {
		return fmt.Errorf("%w: nil session or checklist", ErrInconsistentSession)
	}
	n := len(sess.Answers)
	if n > cl.Len() {
		return fmt.Errorf("%w: %d answers for %d items", ErrInconsistentSession, n, cl.Len())
	}
	if sess.CurrentIndex() != n {
		return fmt.Errorf("%w: index %d with %d answers", ErrInconsistentSession, sess.CurrentIndex(), n)
	}
	if sess.Phase() == session.PhaseCompleted && n != cl.Len() {
		return fmt.Errorf("%w: completed with %d of %d answers", ErrInconsistentSession, n, cl.Len())
	}
	return nil
}

func remarkText(r string) string {
	if r == "" {
		return "(none)"
	}
	return r
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(timeLayout)
}
