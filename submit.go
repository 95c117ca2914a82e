package formstate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/observability"
)

// SubmitHandler receives a read-only snapshot of the form.
type SubmitHandler func(ctx context.Context, snapshot Snapshot) error

// Submit runs the configured handler with the current snapshot. The submitting
// flag is set for the duration of the call and reset when the handler returns,
// fails or panics. The handler's error is returned unchanged. A handler that
// never returns leaves the flag set.
func (f *Form) Submit(ctx context.Context) error {
	handler := f.cfg.submit
	if handler == nil {
		return ErrNoSubmitHandler
	}
	if ctx == nil {
		ctx = context.Background()
	}

	submissionID := uuid.NewString()
	f.submitting.SetState(true)
	defer f.submitting.SetState(false)

	f.emit(ctx, observability.EventSubmitStarted, observability.LevelInfo, map[string]any{
		"submission_id": submissionID,
	})

	snapshot := f.Snapshot()
	start := time.Now()
	err := handler(ctx, snapshot)
	elapsed := time.Since(start)

	input := f.eventInput()
	input.SubmissionID = submissionID
	input.Duration = elapsed
	input.Violations = len(snapshot.Errors)

	if err != nil {
		f.emit(ctx, observability.EventSubmitFailed, observability.LevelWarning, map[string]any{
			"submission_id":           submissionID,
			observability.KeyDuration: elapsed,
			observability.KeyError:    err,
		})
		input.Err = err
		f.emitActivityContext(ctx, activity.BuildSubmitFailedEvent(input))
		return err
	}

	f.emit(ctx, observability.EventSubmitCompleted, observability.LevelInfo, map[string]any{
		"submission_id":           submissionID,
		observability.KeyDuration: elapsed,
	})
	f.emitActivityContext(ctx, activity.BuildSubmittedEvent(input))
	return nil
}

// IsSubmitting reports whether a submit handler is running.
func (f *Form) IsSubmitting() bool {
	return f.submitting.State()
}

// SubscribeSubmitting registers fn to receive every change of the submitting
// flag.
func (f *Form) SubscribeSubmitting(fn func(bool)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return f.submitting.Subscribe(fn)
}
