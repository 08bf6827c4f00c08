// Package bot connects the interview state machine to a session store and a
// transport. It owns the per-user ordering guarantee: events for one user are
// processed one at a time in arrival order, while different users proceed in
// parallel.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/laksh02009/Telegram-bot/internal/interview"
	"github.com/laksh02009/Telegram-bot/internal/log"
	"github.com/laksh02009/Telegram-bot/internal/metrics"
	"github.com/laksh02009/Telegram-bot/internal/report"
	"github.com/laksh02009/Telegram-bot/internal/session"
)

// PromptInternalError is sent when a session cannot be processed because of a
// defect or a store failure.
const PromptInternalError = "Something went wrong with your inspection. Send /start to begin again."

// Sender delivers outbound actions. Transports implement it.
type Sender interface {
	Send(ctx context.Context, action interview.Action) error
}

// Options configure a Bot.
type Options struct {
	// RetainCompleted keeps completed sessions in the store after the report
	// is sent. When false they are removed.
	RetainCompleted bool
	// Events receives audit events. Nil discards them.
	Events log.Recorder
	// Metrics records counters. Nil disables metrics.
	Metrics metrics.Recorder
	// Now stamps events that arrive without a time. Defaults to time.Now.
	Now func() time.Time
}

// Bot processes inbound events for all users.
type Bot struct {
	machine *interview.Machine
	store   session.Store
	opts    Options
	lanes   *lanes
}

// New creates a Bot.
func New(machine *interview.Machine, store session.Store, opts Options) *Bot {
	if opts.Events == nil {
		opts.Events = log.Discard{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bot{
		machine: machine,
		store:   store,
		opts:    opts,
		lanes:   newLanes(),
	}
}

// Handle processes ev after every earlier event for the same user and returns
// the actions to deliver. The returned actions are always safe to send, even
// when err is non-nil: user-facing problems become text actions and err only
// reports internal failures for logging. If ctx ends before ev reaches the
// front of its user's queue, ev is dropped and ctx.Err() returned; once
// processing has started it runs to completion and its actions are returned.
func (b *Bot) Handle(ctx context.Context, ev interview.Event) ([]interview.Action, error) {
	type outcome struct {
		actions []interview.Action
		err     error
	}
	done := make(chan outcome, 1)
	var state atomic.Int32 // jobQueued, jobRunning or jobAbandoned

	b.lanes.submit(ev.UserID, func() {
		if ctx.Err() != nil || !state.CompareAndSwap(jobQueued, jobRunning) {
			done <- outcome{err: ctx.Err()}
			return
		}
		actions, err := b.process(ev)
		done <- outcome{actions: actions, err: err}
	})

	select {
	case out := <-done:
		return out.actions, out.err
	case <-ctx.Done():
		if state.CompareAndSwap(jobQueued, jobAbandoned) {
			return nil, ctx.Err()
		}
		out := <-done
		return out.actions, out.err
	}
}

const (
	jobQueued int32 = iota
	jobRunning
	jobAbandoned
)

// deliveryTimeout bounds delivery of one event's actions once the event has
// been processed, independent of the caller's context.
const deliveryTimeout = 30 * time.Second

// HandleAndDeliver handles ev and sends the resulting actions through s in
// order. Delivery failures are logged and counted; the first one is returned.
func (b *Bot) HandleAndDeliver(ctx context.Context, ev interview.Event, s Sender) error {
	actions, err := b.Handle(ctx, ev)
	if err != nil {
		log.Errorf("[bot] user %s: %v", ev.UserID, err)
	}

	sendErr := b.deliver(ctx, actions, s)
	if len(actions) == 0 && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return sendErr
}

// Dispatch queues ev behind earlier events for the same user and returns
// immediately. The resulting actions are delivered through s from the user's
// lane, so replies to one user leave in the order their events arrived.
// Events still queued when ctx ends are dropped; an event already being
// processed is finished and its replies delivered.
func (b *Bot) Dispatch(ctx context.Context, ev interview.Event, s Sender) {
	b.lanes.submit(ev.UserID, func() {
		if ctx.Err() != nil {
			log.Warnf("[bot] user %s: dropped %s event: %v", ev.UserID, ev.Kind, ctx.Err())
			return
		}
		actions, err := b.process(ev)
		if err != nil {
			log.Errorf("[bot] user %s: %v", ev.UserID, err)
		}
		b.deliver(ctx, actions, s)
	})
}

// deliver sends actions in order. It detaches from ctx's cancellation so a
// processed event's replies still go out during shutdown.
func (b *Bot) deliver(ctx context.Context, actions []interview.Action, s Sender) error {
	if len(actions) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	var first error
	for _, a := range actions {
		if err := s.Send(ctx, a); err != nil {
			b.opts.Metrics.IncDeliveryFailure(actionKind(a))
			log.Warnf("[bot] deliver to %s failed: %v", a.UserID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// process runs one event. It is only ever called from the user's lane. A
// panic while processing aborts this event only.
func (b *Bot) process(ev interview.Event) (actions []interview.Action, err error) {
	began := time.Now()
	if ev.At.IsZero() {
		ev.At = b.opts.Now()
	}

	var res interview.Result
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic processing %s event: %v", ev.Kind, r)
			}
		}()
		res, err = b.step(ev)
	}()

	outcome := string(res.Outcome)
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		outcome = "not_found"
		b.audit(log.LogEvent{Event: log.EventEventIgnored, UserID: ev.UserID, Reason: "session_not_found"})
		err = nil
		res.Actions = []interview.Action{interview.SendText(ev.UserID, interview.PromptStartOver)}
	case err != nil:
		outcome = "error"
		b.audit(log.LogEvent{Event: log.EventSessionFailed, UserID: ev.UserID, Error: err.Error()})
		res.Actions = []interview.Action{interview.SendText(ev.UserID, PromptInternalError)}
	}

	b.opts.Metrics.ObserveEvent(ev.Kind.String(), outcome)
	b.opts.Metrics.ObserveTransition(time.Since(began))
	return res.Actions, err
}

// step loads the session, applies the transition and persists the result.
func (b *Bot) step(ev interview.Event) (interview.Result, error) {
	var (
		prev *session.Session
		err  error
	)
	if ev.Kind == interview.EventStart {
		prev, err = b.store.Create(ev.UserID, ev.At)
	} else {
		prev, err = b.store.Get(ev.UserID)
	}
	if err != nil {
		return interview.Result{}, fmt.Errorf("load session: %w", err)
	}

	res, err := b.machine.Transition(prev, ev)
	if err != nil {
		return res, err
	}

	if res.Outcome == interview.OutcomeIgnored {
		log.Debugf("[bot] user %s: ignored %s event (%s)", ev.UserID, ev.Kind, res.Reason)
		b.audit(log.LogEvent{Event: log.EventEventIgnored, UserID: ev.UserID, SessionID: res.Session.ID, Phase: string(res.Session.Phase()), Reason: res.Reason})
		return res, nil
	}

	b.auditTransition(ev, prev, res.Session)

	if res.Session.Phase() != session.PhaseCompleted {
		if err := b.store.Put(res.Session); err != nil {
			return interview.Result{}, fmt.Errorf("save session: %w", err)
		}
		return res, nil
	}

	text, err := report.Render(res.Session, b.machine.Checklist(), report.MarkdownV2)
	if err != nil {
		return interview.Result{}, fmt.Errorf("render report for %s: %w", res.Session.ID, err)
	}
	res.Actions = append(res.Actions, interview.Action{
		Kind:     interview.ActionSendText,
		UserID:   res.Session.UserID,
		Text:     text,
		Item:     -1,
		Markdown: true,
	})
	b.opts.Metrics.IncCompleted()

	if b.opts.RetainCompleted {
		err = b.store.Put(res.Session)
	} else {
		err = b.store.Remove(res.Session.UserID)
	}
	if err != nil {
		return interview.Result{}, fmt.Errorf("save completed session: %w", err)
	}
	return res, nil
}

func (b *Bot) auditTransition(ev interview.Event, prev, next *session.Session) {
	base := log.LogEvent{UserID: next.UserID, SessionID: next.ID, Phase: string(next.Phase())}

	switch {
	case ev.Kind == interview.EventStart:
		base.Event = log.EventSessionStarted
		b.audit(base)
	case prev.Phase() == session.PhaseAwaitingName:
		base.Event = log.EventNameCaptured
		b.audit(base)
	}

	if len(next.Answers) > len(prev.Answers) && ev.Kind != interview.EventStart {
		i := len(next.Answers) - 1
		e := base
		e.Event = log.EventAnswerRecorded
		e.Item = i
		e.Option = next.Answers[i].Option
		b.audit(e)
	}

	if next.Phase() == session.PhaseCompleted {
		e := base
		e.Event = log.EventSessionCompleted
		e.Answered = len(next.Answers)
		e.DurationMs = next.CompletedAt.Sub(next.CreatedAt).Milliseconds()
		b.audit(e)
	}
}

func (b *Bot) audit(e log.LogEvent) {
	if err := b.opts.Events.Append(e); err != nil {
		log.Warnf("[bot] audit log: %v", err)
	}
}

// Report renders the stored session for userID. Incomplete sessions render
// the answers recorded so far.
func (b *Bot) Report(userID string, format report.Format) (string, error) {
	sess, err := b.store.Get(userID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return "", fmt.Errorf("user %s: %w", userID, interview.ErrSessionNotFound)
	}
	return report.Render(sess, b.machine.Checklist(), format)
}

// Pending returns the number of users with events queued or in flight.
func (b *Bot) Pending() int {
	return b.lanes.active()
}

func actionKind(a interview.Action) string {
	if a.Kind == interview.ActionSendChoice {
		return "choice"
	}
	return "text"
}
