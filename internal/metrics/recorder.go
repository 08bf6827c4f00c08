// Package metrics provides metrics recording for interview traffic.
package metrics

import "time"

// Recorder defines the interface for recording interview metrics.
type Recorder interface {
	// ObserveEvent counts one inbound event by kind and transition outcome.
	ObserveEvent(kind, outcome string)

	// ObserveTransition records how long one event took to process,
	// including store access.
	ObserveTransition(duration time.Duration)

	// IncCompleted counts a finished inspection.
	IncCompleted()

	// IncDeliveryFailure counts an outbound action the transport could not send.
	IncDeliveryFailure(kind string)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveEvent(_, _ string)          {}
func (n *NoopRecorder) ObserveTransition(_ time.Duration) {}
func (n *NoopRecorder) IncCompleted()                     {}
func (n *NoopRecorder) IncDeliveryFailure(_ string)       {}
