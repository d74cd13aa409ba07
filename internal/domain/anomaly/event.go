package anomaly

import "time"

// Source identifies which command produced a detection event.
type Source string

const (
	// SourceMonitor marks events recorded by the live monitor loop.
	SourceMonitor Source = "monitor"
	// SourceAnalyze marks events recorded by a one-shot log analysis.
	SourceAnalyze Source = "analyze"
)

// Analysis is the verdict for a single journal entry.
type Analysis struct {
	// IsAnomaly reports whether the entry deserves attention.
	IsAnomaly bool
	// Reason explains the verdict in one human-readable sentence.
	Reason string
}

// Event records one confirmed anomaly detection.
type Event struct {
	// ID uniquely identifies the event.
	ID string
	// Timestamp is when the anomaly was detected, in UTC.
	Timestamp time.Time
	// Source is the command that produced the event.
	Source Source
	// Entry is the raw journal line that triggered the detection.
	Entry string
	// Reason is the verdict explanation at detection time.
	Reason string
}

// Clone returns a copy of the event to avoid leaking internal references.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}

	cloned := *e

	return &cloned
}
