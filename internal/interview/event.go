// Package interview implements the per-user inspection conversation as a pure
// state machine: (session, event) in, (session', actions) out.
package interview

import "time"

// EventKind distinguishes the inbound events a transport can deliver.
type EventKind int

const (
	EventStart  EventKind = iota // user asked to (re)start the inspection
	EventText                    // user sent free text
	EventOption                  // user pressed an option button
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventText:
		return "text"
	case EventOption:
		return "option"
	default:
		return "unknown"
	}
}

// Event is a transport-neutral inbound event.
//
// For EventStart, Text carries an optional display-name hint. For EventOption,
// Text is the selected label and Item is the checklist index the button was
// attached to, or -1 when the transport cannot tell.
type Event struct {
	Kind   EventKind
	UserID string
	Text   string
	Item   int
	At     time.Time
}

// Start builds a start event.
func Start(userID, nameHint string, at time.Time) Event {
	return Event{Kind: EventStart, UserID: userID, Text: nameHint, Item: -1, At: at}
}

// Text builds a free-text event.
func Text(userID, text string, at time.Time) Event {
	return Event{Kind: EventText, UserID: userID, Text: text, Item: -1, At: at}
}

// Option builds an option event whose originating item is unknown.
func Option(userID, label string, at time.Time) Event {
	return Event{Kind: EventOption, UserID: userID, Text: label, Item: -1, At: at}
}

// OptionFor builds an option event bound to checklist item index item.
func OptionFor(userID string, item int, label string, at time.Time) Event {
	return Event{Kind: EventOption, UserID: userID, Text: label, Item: item, At: at}
}

// ActionKind distinguishes outbound actions.
type ActionKind int

const (
	ActionSendText ActionKind = iota
	ActionSendChoice
)

// Action is something the transport must deliver to UserID. Options is only
// set for ActionSendChoice and preserves display order. Markdown marks text
// already escaped for the transport's markup dialect.
type Action struct {
	Kind     ActionKind
	UserID   string
	Text     string
	Options  []string
	Item     int
	Markdown bool
}

// SendText builds a plain text action.
func SendText(userID, text string) Action {
	return Action{Kind: ActionSendText, UserID: userID, Text: text, Item: -1}
}

// SendChoice builds a question with option buttons for checklist item item.
func SendChoice(userID string, item int, text string, options []string) Action {
	return Action{
		Kind:    ActionSendChoice,
		UserID:  userID,
		Text:    text,
		Options: append([]string(nil), options...),
		Item:    item,
	}
}
