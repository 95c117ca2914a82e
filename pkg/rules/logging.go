package rules

import (
	"context"
	"time"

	"github.com/goliatone/go-formstate/pkg/observability"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Path     string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ObserverLogger forwards evaluation events to an observability.Observer.
// Failed evaluations are reported at warning level.
func ObserverLogger(obs observability.Observer) EvaluatorLogger {
	if obs == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		level := observability.LevelVerbose
		data := map[string]any{
			observability.KeyEngine:   event.Engine,
			observability.KeyExpr:     event.Expr,
			observability.KeyPath:     event.Path,
			observability.KeyDuration: event.Duration,
		}
		if event.Err != nil {
			level = observability.LevelWarning
			data[observability.KeyError] = event.Err
		}
		obs.OnEvent(context.Background(), observability.Event{
			Type:      observability.EventRuleEvaluated,
			Level:     level,
			Timestamp: time.Now(),
			Source:    "rules",
			Data:      data,
		})
	})
}
