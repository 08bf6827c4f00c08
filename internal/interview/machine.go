package interview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/session"
)

var (
	// ErrSessionNotFound is returned for non-start events from a user with no
	// session. Callers answer it with a prompt to start over.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCorruptSession marks a session whose state contradicts its answers.
	// It is a defect, not user error.
	ErrCorruptSession = errors.New("session state is inconsistent")
)

// Outcome classifies what a transition did.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// Reasons reported with OutcomeIgnored.
const (
	ReasonEmptyName        = "empty_name"
	ReasonUnexpectedText   = "unexpected_text"
	ReasonUnexpectedOption = "unexpected_option"
	ReasonUnknownOption    = "unknown_option"
	ReasonStaleOption      = "stale_option"
	ReasonCompleted        = "already_completed"
)

// Config selects the conversation variant.
type Config struct {
	// RequireName adds a name-capture step before the first question.
	RequireName bool
	// AskRemarks enables the remark prompt after each answer. When false every
	// answer records RemarkSentinel.
	AskRemarks bool
	// SkipRemarkFor lists option labels that record RemarkSentinel instead of
	// prompting for a remark.
	SkipRemarkFor []string
	// RemarkSentinel is stored for answers whose remark was skipped.
	RemarkSentinel string
	// ReplyWhenCompleted answers events on a completed session with a hint
	// instead of staying silent.
	ReplyWhenCompleted bool
}

// DefaultConfig asks for a name and a remark after every answer.
func DefaultConfig() Config {
	return Config{
		RequireName:        true,
		AskRemarks:         true,
		RemarkSentinel:     "N/A",
		ReplyWhenCompleted: true,
	}
}

// Texts sent by the machine. Question prompts come from the checklist.
const (
	PromptAskName          = "Welcome to the inspection. Please send your name to begin."
	PromptAskRemark        = "You selected %s. Please send a remark for this item."
	PromptCompleted        = "All questions answered. Preparing your report..."
	PromptAlreadyCompleted = "This inspection is already completed. Send /start to begin a new one."
	PromptStartOver        = "No inspection in progress. Send /start to begin."
)

// Result is the outcome of one transition. Session is the next state; it is
// a fresh copy and never aliases the input.
type Result struct {
	Session *session.Session
	Actions []Action
	Outcome Outcome
	Reason  string
}

// Machine runs the interview over a fixed checklist. It holds no per-user
// state and is safe for concurrent use.
type Machine struct {
	checklist *checklist.Checklist
	cfg       Config
	skip      map[string]bool
}

// NewMachine creates a Machine for cl.
func NewMachine(cl *checklist.Checklist, cfg Config) (*Machine, error) {
	if cl == nil || cl.Len() == 0 {
		return nil, checklist.ErrEmpty
	}
	skip := make(map[string]bool, len(cfg.SkipRemarkFor))
	for _, label := range cfg.SkipRemarkFor {
		skip[label] = true
	}
	return &Machine{checklist: cl, cfg: cfg, skip: skip}, nil
}

// Checklist returns the machine's checklist.
func (m *Machine) Checklist() *checklist.Checklist {
	return m.checklist
}

// Config returns the machine's configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Transition computes the next session and the actions to deliver. sess may
// be nil when the store has no session for the user; only EventStart is valid
// then. Invalid input never fails: it yields OutcomeIgnored and the session
// unchanged. Errors are reserved for ErrSessionNotFound and ErrCorruptSession.
func (m *Machine) Transition(sess *session.Session, ev Event) (Result, error) {
	if ev.Kind == EventStart {
		return m.start(sess, ev), nil
	}
	if sess == nil {
		return Result{}, ErrSessionNotFound
	}
	if err := m.check(sess); err != nil {
		return Result{}, err
	}

	next := sess.Clone()
	switch st := next.State.(type) {
	case session.AwaitingName:
		if ev.Kind != EventText {
			return ignored(next, ReasonUnexpectedOption), nil
		}
		name := strings.TrimSpace(ev.Text)
		if name == "" {
			return ignored(next, ReasonEmptyName), nil
		}
		next.DisplayName = name
		next.State = session.AwaitingAnswer{Index: 0}
		next.UpdatedAt = ev.At
		return applied(next, m.question(next.UserID, 0)), nil

	case session.AwaitingAnswer:
		if ev.Kind != EventOption {
			return ignored(next, ReasonUnexpectedText), nil
		}
		if ev.Item >= 0 && ev.Item != st.Index {
			return ignored(next, ReasonStaleOption), nil
		}
		item, _ := m.checklist.Item(st.Index)
		if !item.HasOption(ev.Text) {
			return ignored(next, ReasonUnknownOption), nil
		}
		next.UpdatedAt = ev.At
		if !m.cfg.AskRemarks || m.skip[ev.Text] {
			return m.record(next, st.Index, ev.Text, m.cfg.RemarkSentinel, ev), nil
		}
		next.State = session.AwaitingRemark{Index: st.Index, Option: ev.Text}
		return applied(next, SendText(next.UserID, fmt.Sprintf(PromptAskRemark, ev.Text))), nil

	case session.AwaitingRemark:
		if ev.Kind != EventText {
			return ignored(next, ReasonUnexpectedOption), nil
		}
		next.UpdatedAt = ev.At
		return m.record(next, st.Index, st.Option, strings.TrimSpace(ev.Text), ev), nil

	case session.Completed:
		res := ignored(next, ReasonCompleted)
		if m.cfg.ReplyWhenCompleted {
			res.Actions = []Action{SendText(next.UserID, PromptAlreadyCompleted)}
		}
		return res, nil
	}

	return Result{}, fmt.Errorf("%w: unknown state %T", ErrCorruptSession, sess.State)
}

// start resets the session for ev.UserID, keeping the id of a session the
// store has just created for it.
func (m *Machine) start(sess *session.Session, ev Event) Result {
	var next *session.Session
	if sess != nil && sess.UserID == ev.UserID {
		next = sess.Clone()
		next.DisplayName = ""
		next.Answers = nil
		next.CreatedAt = ev.At
		next.CompletedAt = time.Time{}
		next.UpdatedAt = ev.At
	} else {
		next = session.New(ev.UserID, m.cfg.RequireName, ev.At)
	}

	if m.cfg.RequireName {
		next.State = session.AwaitingName{}
		return applied(next, SendText(next.UserID, PromptAskName))
	}

	next.State = session.AwaitingAnswer{Index: 0}
	next.DisplayName = strings.TrimSpace(ev.Text)
	return applied(next, m.question(next.UserID, 0))
}

// record appends an answer for item index and moves to the next question or
// completes the session.
func (m *Machine) record(next *session.Session, index int, option, remark string, ev Event) Result {
	next.Answers = append(next.Answers, session.Answer{Option: option, Remark: remark})

	if index+1 < m.checklist.Len() {
		next.State = session.AwaitingAnswer{Index: index + 1}
		return applied(next, m.question(next.UserID, index+1))
	}

	next.State = session.Completed{}
	next.CompletedAt = ev.At
	return applied(next, SendText(next.UserID, PromptCompleted))
}

func (m *Machine) question(userID string, index int) Action {
	item, _ := m.checklist.Item(index)
	return SendChoice(userID, index, item.Prompt, item.Options)
}

// check verifies len(answers) == currentIndex and that the index is in range.
func (m *Machine) check(sess *session.Session) error {
	n := m.checklist.Len()
	switch st := sess.State.(type) {
	case session.AwaitingName:
		if len(sess.Answers) != 0 {
			return fmt.Errorf("%w: %d answers before name capture", ErrCorruptSession, len(sess.Answers))
		}
	case session.AwaitingAnswer:
		if st.Index < 0 || st.Index >= n || len(sess.Answers) != st.Index {
			return fmt.Errorf("%w: index %d with %d answers", ErrCorruptSession, st.Index, len(sess.Answers))
		}
	case session.AwaitingRemark:
		if st.Index < 0 || st.Index >= n || len(sess.Answers) != st.Index {
			return fmt.Errorf("%w: index %d with %d answers", ErrCorruptSession, st.Index, len(sess.Answers))
		}
	case session.Completed:
		if len(sess.Answers) != n {
			return fmt.Errorf("%w: completed with %d of %d answers", ErrCorruptSession, len(sess.Answers), n)
		}
	case nil:
		return fmt.Errorf("%w: nil state", ErrCorruptSession)
	}
	return nil
}

func applied(next *session.Session, actions ...Action) Result {
	return Result{Session: next, Actions: actions, Outcome: OutcomeApplied}
}

func ignored(next *session.Session, reason string) Result {
	return Result{Session: next, Outcome: OutcomeIgnored, Reason: reason}
}
