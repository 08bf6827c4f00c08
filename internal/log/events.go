// Package log provides the process logger and the JSONL audit event log.
// This file appends interview events to events.jsonl.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventSessionStarted   = "session_started"
	EventNameCaptured     = "name_captured"
	EventAnswerRecorded   = "answer_recorded"
	EventSessionCompleted = "session_completed"
	EventEventIgnored     = "event_ignored"
	EventSessionSwept     = "session_swept"
	EventSessionFailed    = "session_failed"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time       time.Time `json:"time"`
	Event      string    `json:"event"`
	UserID     string    `json:"user_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Item       int       `json:"item,omitempty"`
	Option     string    `json:"option,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	Answered   int       `json:"answered,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// Recorder is anything that can append audit events.
type Recorder interface {
	Append(event LogEvent) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Append(LogEvent) error { return nil }

// EventLog writes append-only JSONL events to a log file.
type EventLog struct {
	path string
	mu   sync.Mutex
}

// NewEventLog creates an EventLog that writes to events.jsonl inside dir.
// Creates dir if it does not already exist. Does not truncate an existing
// log file.
func NewEventLog(dir string) (*EventLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &EventLog{
		path: filepath.Join(dir, "events.jsonl"),
	}, nil
}

// Path returns the file the log appends to.
func (l *EventLog) Path() string {
	return l.path
}

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// Thread-safe via mutex.
func (l *EventLog) Append(event LogEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *EventLog) ReadAll() ([]LogEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
