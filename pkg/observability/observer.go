// Package observability carries form lifecycle events to logs and metrics.
// Level values align with OpenTelemetry SeverityNumbers so events can be
// forwarded to collectors without translation.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ZerologLevel maps this level to the corresponding zerolog.Level.
func (l Level) ZerologLevel() zerolog.Level {
	switch {
	case l <= 4:
		return zerolog.TraceLevel
	case l <= 8:
		return zerolog.DebugLevel
	case l <= 12:
		return zerolog.InfoLevel
	case l <= 16:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// EventType identifies the kind of event ("form.state.changed",
// "form.submit.completed", ...).
type EventType string

// Event types emitted by forms and rule validators.
const (
	EventStateChanged    EventType = "form.state.changed"
	EventValidated       EventType = "form.validated"
	EventValidatorFailed EventType = "form.validator.failed"
	EventSubmitStarted   EventType = "form.submit.started"
	EventSubmitCompleted EventType = "form.submit.completed"
	EventSubmitFailed    EventType = "form.submit.failed"
	EventReset           EventType = "form.reset"
	EventPersistLoaded   EventType = "form.persist.loaded"
	EventPersistFailed   EventType = "form.persist.failed"
	EventActivityFailed  EventType = "form.activity.failed"
	EventRuleEvaluated   EventType = "rules.evaluated"
)

// Keys used in Event.Data by the events above.
const (
	KeyFormID     = "form_id"
	KeyPath       = "path"
	KeyViolations = "violations"
	KeyDuration   = "duration"
	KeyEngine     = "engine"
	KeyExpr       = "expr"
	KeyError      = "error"
	KeyStorageKey = "storage_key"
)

// Event is an observability event. Fields map to OTel LogRecord fields:
// Type to EventName, Level to SeverityNumber, Source to InstrumentationScope
// and Data to Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events for logging, tracing, or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	if f != nil {
		f(ctx, event)
	}
}
