package interview

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laksh02009/Telegram-bot/internal/checklist"
	"github.com/laksh02009/Telegram-bot/internal/session"
)

var at = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

func newMachine(t *testing.T, cfg Config, prompts ...string) *Machine {
	t.Helper()
	items := make([]checklist.Item, len(prompts))
	for i, p := range prompts {
		items[i] = checklist.Item{Prompt: p}
	}
	cl, err := checklist.New(items)
	require.NoError(t, err)
	m, err := NewMachine(cl, cfg)
	require.NoError(t, err)
	return m
}

// step applies ev and returns the result, failing the test on error.
func step(t *testing.T, m *Machine, sess *session.Session, ev Event) Result {
	t.Helper()
	res, err := m.Transition(sess, ev)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	return res
}

func TestScenarioWithoutName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	m := newMachine(t, cfg, "Q1", "Q2")

	res := step(t, m, nil, Start("u1", "", at))
	require.Len(t, res.Actions, 1)
	assert.Equal(t, ActionSendChoice, res.Actions[0].Kind)
	assert.Equal(t, "Q1", res.Actions[0].Text)
	assert.Equal(t, []string{"Yes", "No"}, res.Actions[0].Options)
	assert.Equal(t, session.PhaseAwaitingAnswer, res.Session.Phase())

	res = step(t, m, res.Session, Option("u1", "Yes", at))
	require.Len(t, res.Actions, 1)
	assert.Equal(t, ActionSendText, res.Actions[0].Kind)
	assert.Equal(t, fmt.Sprintf(PromptAskRemark, "Yes"), res.Actions[0].Text)
	assert.Equal(t, session.AwaitingRemark{Index: 0, Option: "Yes"}, res.Session.State)

	res = step(t, m, res.Session, Text("u1", "ok", at))
	require.Len(t, res.Actions, 1)
	assert.Equal(t, ActionSendChoice, res.Actions[0].Kind)
	assert.Equal(t, "Q2", res.Actions[0].Text)
	assert.Equal(t, 1, res.Actions[0].Item)

	res = step(t, m, res.Session, Option("u1", "No", at))
	assert.Equal(t, session.PhaseAwaitingRemark, res.Session.Phase())

	done := at.Add(3 * time.Minute)
	res = step(t, m, res.Session, Text("u1", "broken", done))
	assert.Equal(t, session.PhaseCompleted, res.Session.Phase())
	assert.Equal(t, []session.Answer{
		{Option: "Yes", Remark: "ok"},
		{Option: "No", Remark: "broken"},
	}, res.Session.Answers)
	assert.Equal(t, done, res.Session.CompletedAt)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, PromptCompleted, res.Actions[0].Text)
}

func TestPrematureOptionWhileAwaitingName(t *testing.T) {
	m := newMachine(t, DefaultConfig(), "Q1")

	res := step(t, m, nil, Start("u1", "", at))
	require.Len(t, res.Actions, 1)
	assert.Equal(t, SendText("u1", PromptAskName), res.Actions[0])

	before := res.Session
	res = step(t, m, before, Option("u1", "Yes", at))
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, ReasonUnexpectedOption, res.Reason)
	assert.Empty(t, res.Actions)
	assert.Equal(t, session.PhaseAwaitingName, res.Session.Phase())
	assert.Equal(t, before, res.Session)

	res = step(t, m, res.Session, Text("u1", "  Ravi  ", at))
	assert.Equal(t, "Ravi", res.Session.DisplayName)
	assert.Equal(t, session.AwaitingAnswer{Index: 0}, res.Session.State)
}

func TestRestartDiscardsProgress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	m := newMachine(t, cfg, "Q1", "Q2")

	res := step(t, m, nil, Start("u1", "", at))
	res = step(t, m, res.Session, Option("u1", "Yes", at))
	res = step(t, m, res.Session, Text("u1", "first", at))
	require.Len(t, res.Session.Answers, 1)

	later := at.Add(time.Hour)
	res = step(t, m, res.Session, Start("u1", "", later))
	assert.Empty(t, res.Session.Answers)
	assert.Equal(t, 0, res.Session.CurrentIndex())
	assert.Equal(t, session.AwaitingAnswer{Index: 0}, res.Session.State)
	assert.Equal(t, later, res.Session.CreatedAt)
}

func TestStartUsesNameHintWhenNameNotRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	m := newMachine(t, cfg, "Q1")

	res := step(t, m, nil, Start("u1", "Meera", at))
	assert.Equal(t, "Meera", res.Session.DisplayName)

	cfg.RequireName = true
	m = newMachine(t, cfg, "Q1")
	res = step(t, m, nil, Start("u1", "Meera", at))
	assert.Empty(t, res.Session.DisplayName)
}

func TestNotFound(t *testing.T) {
	m := newMachine(t, DefaultConfig(), "Q1")

	for _, ev := range []Event{Text("u1", "hi", at), Option("u1", "Yes", at)} {
		_, err := m.Transition(nil, ev)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
}

func TestMalformedEventsAreIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	m := newMachine(t, cfg, "Q1", "Q2")

	awaitingAnswer := step(t, m, nil, Start("u1", "", at)).Session
	awaitingRemark := step(t, m, awaitingAnswer, Option("u1", "No", at)).Session

	tests := []struct {
		name   string
		sess   *session.Session
		ev     Event
		reason string
	}{
		{"text while awaiting answer", awaitingAnswer, Text("u1", "yes please", at), ReasonUnexpectedText},
		{"unknown option", awaitingAnswer, Option("u1", "Maybe", at), ReasonUnknownOption},
		{"stale option", awaitingAnswer, OptionFor("u1", 1, "Yes", at), ReasonStaleOption},
		{"option while awaiting remark", awaitingRemark, Option("u1", "Yes", at), ReasonUnexpectedOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := step(t, m, tt.sess, tt.ev)
			assert.Equal(t, OutcomeIgnored, res.Outcome)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Empty(t, res.Actions)
			assert.Equal(t, tt.sess.Phase(), res.Session.Phase())
			assert.Equal(t, tt.sess.CurrentIndex(), res.Session.CurrentIndex())
		})
	}
}

func TestEmptyNameIgnoredEmptyRemarkAccepted(t *testing.T) {
	m := newMachine(t, DefaultConfig(), "Q1")

	sess := step(t, m, nil, Start("u1", "", at)).Session
	res := step(t, m, sess, Text("u1", "   ", at))
	assert.Equal(t, ReasonEmptyName, res.Reason)
	assert.Equal(t, session.PhaseAwaitingName, res.Session.Phase())

	sess = step(t, m, sess, Text("u1", "Lee", at)).Session
	sess = step(t, m, sess, Option("u1", "Yes", at)).Session
	res = step(t, m, sess, Text("u1", "", at))
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, session.PhaseCompleted, res.Session.Phase())
	assert.Equal(t, "", res.Session.Answers[0].Remark)
}

func TestCompletedSessionIsTerminal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	m := newMachine(t, cfg, "Q1")

	sess := step(t, m, nil, Start("u1", "", at)).Session
	sess = step(t, m, sess, Option("u1", "No", at)).Session
	sess = step(t, m, sess, Text("u1", "cable cut", at)).Session
	require.Equal(t, session.PhaseCompleted, sess.Phase())

	res := step(t, m, sess, Option("u1", "Yes", at))
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, []Action{SendText("u1", PromptAlreadyCompleted)}, res.Actions)
	assert.Equal(t, sess, res.Session)

	cfg.ReplyWhenCompleted = false
	quiet := newMachine(t, cfg, "Q1")
	res = step(t, quiet, sess, Text("u1", "hello", at))
	assert.Empty(t, res.Actions)
}

func TestSkipRemarkForOption(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	cfg.SkipRemarkFor = []string{"Yes"}
	m := newMachine(t, cfg, "Q1", "Q2")

	sess := step(t, m, nil, Start("u1", "", at)).Session
	res := step(t, m, sess, Option("u1", "Yes", at))
	assert.Equal(t, session.AwaitingAnswer{Index: 1}, res.Session.State)
	assert.Equal(t, []session.Answer{{Option: "Yes", Remark: "N/A"}}, res.Session.Answers)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, "Q2", res.Actions[0].Text)

	res = step(t, m, res.Session, Option("u1", "No", at))
	assert.Equal(t, session.PhaseAwaitingRemark, res.Session.Phase())
}

func TestRemarksDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	cfg.AskRemarks = false
	m := newMachine(t, cfg, "Q1")

	sess := step(t, m, nil, Start("u1", "", at)).Session
	res := step(t, m, sess, Option("u1", "No", at))
	assert.Equal(t, session.PhaseCompleted, res.Session.Phase())
	assert.Equal(t, "N/A", res.Session.Answers[0].Remark)
}

func TestMultiOptionItems(t *testing.T) {
	cl, err := checklist.New([]checklist.Item{{Prompt: "Floor", Options: []string{"Clean", "Dirty", "Blocked"}}})
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.RequireName = false
	m, err := NewMachine(cl, cfg)
	require.NoError(t, err)

	res := step(t, m, nil, Start("u1", "", at))
	assert.Equal(t, []string{"Clean", "Dirty", "Blocked"}, res.Actions[0].Options)

	res = step(t, m, res.Session, Option("u1", "Yes", at))
	assert.Equal(t, ReasonUnknownOption, res.Reason)

	res = step(t, m, res.Session, OptionFor("u1", 0, "Blocked", at))
	assert.Equal(t, session.AwaitingRemark{Index: 0, Option: "Blocked"}, res.Session.State)
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireName = false
	m := newMachine(t, cfg, "Q1", "Q2")

	sess := step(t, m, nil, Start("u1", "", at)).Session
	sess = step(t, m, sess, Option("u1", "Yes", at)).Session
	snapshot := sess.Clone()

	_ = step(t, m, sess, Text("u1", "fine", at))
	assert.Equal(t, snapshot, sess)
}

func TestCorruptSessionIsReported(t *testing.T) {
	m := newMachine(t, DefaultConfig(), "Q1", "Q2")

	tests := []*session.Session{
		{UserID: "u1", State: session.AwaitingAnswer{Index: 1}},
		{UserID: "u1", State: session.AwaitingRemark{Index: 5, Option: "Yes"}, Answers: make([]session.Answer, 5)},
		{UserID: "u1", State: session.Completed{}, Answers: make([]session.Answer, 1)},
		{UserID: "u1", State: session.AwaitingName{}, Answers: make([]session.Answer, 1)},
		{UserID: "u1"},
	}
	for i, sess := range tests {
		_, err := m.Transition(sess, Text("u1", "x", at))
		assert.ErrorIs(t, err, ErrCorruptSession, "case %d", i)
	}
}

// TestRandomEventSequencesKeepInvariants drives the machine with random
// events and checks the answer/index invariants after every step.
func TestRandomEventSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	labels := []string{"Yes", "No", "Maybe", ""}

	for _, requireName := range []bool{true, false} {
		for _, skip := range [][]string{nil, {"Yes"}} {
			cfg := DefaultConfig()
			cfg.RequireName = requireName
			cfg.SkipRemarkFor = skip
			m := newMachine(t, cfg, "Q1", "Q2", "Q3")
			n := m.Checklist().Len()

			var sess *session.Session
			for i := 0; i < 5000; i++ {
				var ev Event
				switch r := rng.Intn(10); {
				case r == 0:
					ev = Start("u", "", at)
				case r < 5:
					ev = Text("u", fmt.Sprintf("t%d", i), at)
				case r < 8:
					ev = Option("u", labels[rng.Intn(len(labels))], at)
				default:
					ev = OptionFor("u", rng.Intn(n+1), labels[rng.Intn(2)], at)
				}

				res, err := m.Transition(sess, ev)
				if sess == nil && ev.Kind != EventStart {
					require.ErrorIs(t, err, ErrSessionNotFound)
					continue
				}
				require.NoError(t, err)

				next := res.Session
				if res.Outcome == OutcomeIgnored {
					assert.Equal(t, sess.Phase(), next.Phase())
					assert.Equal(t, sess.CurrentIndex(), next.CurrentIndex())
				}
				require.Equal(t, len(next.Answers), next.CurrentIndex(), "step %d", i)
				require.Equal(t, next.Phase() == session.PhaseCompleted, next.CurrentIndex() == n, "step %d", i)
				sess = next
			}
		}
	}
}
