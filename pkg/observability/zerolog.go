package observability

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologObserver emits events to a zerolog.Logger.
type ZerologObserver struct {
	logger zerolog.Logger
}

// NewZerologObserver creates a ZerologObserver around logger.
func NewZerologObserver(logger zerolog.Logger) *ZerologObserver {
	return &ZerologObserver{logger: logger}
}

func (o *ZerologObserver) OnEvent(_ context.Context, event Event) {
	entry := o.logger.WithLevel(event.Level.ZerologLevel())
	if entry == nil {
		return
	}
	entry = entry.Str("source", event.Source)
	if !event.Timestamp.IsZero() {
		entry = entry.Time("event_time", event.Timestamp)
	}
	for k, v := range event.Data {
		if err, ok := v.(error); ok {
			entry = entry.AnErr(k, err)
			continue
		}
		entry = entry.Interface(k, v)
	}
	entry.Msg(string(event.Type))
}
