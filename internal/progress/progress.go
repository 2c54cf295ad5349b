// Package progress carries structured run progress from the matching stages
// to whoever is watching: the log, a terminal, or a browser over SSE.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase names a stage of a run as shown to the user.
type Phase string

const (
	PhaseSearching Phase = "searching"
	PhaseMatching  Phase = "matching"
	PhaseCleaning  Phase = "cleaning unmatched terms"
	PhaseExport    Phase = "export"
)

// Severity grades an event for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one progress update.
type Event struct {
	Phase    Phase     `json:"phase"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}

// Reporter receives progress events. Implementations must not block for long:
// stages emit synchronously between blocking external calls.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// Nop discards every event.
var Nop Reporter = ReporterFunc(func(Event) {})

// Emit stamps and sends an event. A nil reporter is treated as Nop.
func Emit(r Reporter, phase Phase, sev Severity, msg string) {
	if r == nil {
		return
	}
	r.Report(Event{Phase: phase, Message: msg, Severity: sev, Time: time.Now().UTC()})
}

// Multi fans an event out to every reporter in order.
func Multi(rs ...Reporter) Reporter {
	return ReporterFunc(func(e Event) {
		for _, r := range rs {
			if r != nil {
				r.Report(e)
			}
		}
	})
}

// Logger mirrors events to zap.
func Logger(log *zap.Logger) Reporter {
	return ReporterFunc(func(e Event) {
		fields := []zap.Field{zap.String("phase", string(e.Phase))}
		switch e.Severity {
		case SeverityError:
			log.Error(e.Message, fields...)
		case SeverityWarning:
			log.Warn(e.Message, fields...)
		default:
			log.Info(e.Message, fields...)
		}
	})
}

// Recorder keeps every event in memory. Used by tests and by the server to
// replay history to late subscribers.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report appends e.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the recorded messages for one phase.
func (r *Recorder) Messages(phase Phase) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Phase == phase {
			out = append(out, e.Message)
		}
	}
	return out
}
