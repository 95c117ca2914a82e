package formstate

import (
	"context"
	"time"

	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/observability"
)

const eventSource = "formstate"

func (f *Form) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data[observability.KeyFormID] = f.id
	f.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    eventSource,
		Data:      data,
	})
}

func (f *Form) eventInput() activity.FormEventInput {
	return activity.FormEventInput{FormID: f.id}
}

func (f *Form) emitActivity(event activity.Event) {
	f.emitActivityContext(context.Background(), event)
}

// emitActivityContext forwards event to the activity hooks. Hook failures are
// reported to the observer and never fail the mutation that caused them.
func (f *Form) emitActivityContext(ctx context.Context, event activity.Event) {
	if !f.activity.Enabled() {
		return
	}
	if err := f.activity.Emit(ctx, event); err != nil {
		f.emit(ctx, observability.EventActivityFailed, observability.LevelWarning, map[string]any{
			"verb":                 event.Verb,
			observability.KeyError: err,
		})
	}
}
