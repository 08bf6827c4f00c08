// Package session holds per-user interview state and the stores that keep it.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Phase names the discrete stage of a conversation.
type Phase string

const (
	PhaseAwaitingName   Phase = "awaiting_name"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseAwaitingRemark Phase = "awaiting_remark"
	PhaseCompleted      Phase = "completed"
)

// State is the closed set of conversation states. Only the types in this
// package implement it, so a session is always in exactly one of them.
type State interface {
	Phase() Phase
	isState()
}

// AwaitingName waits for the inspector's display name.
type AwaitingName struct{}

// AwaitingAnswer waits for an option to be selected for item Index.
type AwaitingAnswer struct {
	Index int
}

// AwaitingRemark holds the selected Option for item Index until the remark
// text arrives.
type AwaitingRemark struct {
	Index  int
	Option string
}

// Completed is terminal: every checklist item has an answer.
type Completed struct{}

func (AwaitingName) Phase() Phase   { return PhaseAwaitingName }
func (AwaitingAnswer) Phase() Phase { return PhaseAwaitingAnswer }
func (AwaitingRemark) Phase() Phase { return PhaseAwaitingRemark }
func (Completed) Phase() Phase      { return PhaseCompleted }

func (AwaitingName) isState()   {}
func (AwaitingAnswer) isState() {}
func (AwaitingRemark) isState() {}
func (Completed) isState()      {}

// Answer is one resolved checklist item.
type Answer struct {
	Option string
	Remark string
}

// Session is one user's in-progress or completed interview.
type Session struct {
	ID          string // unique per interview run, quoted in reports
	UserID      string
	DisplayName string
	State       State
	Answers     []Answer
	CreatedAt   time.Time
	CompletedAt time.Time
	UpdatedAt   time.Time
}

// New returns a fresh session for userID. It starts in AwaitingName when
// requireName is set and at the first question otherwise.
func New(userID string, requireName bool, at time.Time) *Session {
	var st State = AwaitingAnswer{Index: 0}
	if requireName {
		st = AwaitingName{}
	}
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		State:     st,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Phase returns the phase of the current state.
func (s *Session) Phase() Phase {
	if s.State == nil {
		return PhaseAwaitingName
	}
	return s.State.Phase()
}

// CurrentIndex is the item currently pending, or the number of answers once
// the session is completed.
func (s *Session) CurrentIndex() int {
	switch st := s.State.(type) {
	case AwaitingAnswer:
		return st.Index
	case AwaitingRemark:
		return st.Index
	case Completed:
		return len(s.Answers)
	default:
		return 0
	}
}

// Clone returns a deep copy so callers can compute a next state without
// touching the stored value.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = append([]Answer(nil), s.Answers...)
	return &c
}

// Summary provides a high-level view of a session for listing.
type Summary struct {
	UserID      string
	DisplayName string
	Phase       Phase
	Answered    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summarize builds the listing view of s.
func Summarize(s *Session) Summary {
	return Summary{
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Phase:       s.Phase(),
		Answered:    len(s.Answers),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
