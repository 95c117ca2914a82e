package activity

import (
	"strings"
	"time"
)

// Verbs emitted for form lifecycle changes.
const (
	VerbFieldUpdated  = "form.field.updated"
	VerbStateReplaced = "form.state.replaced"
	VerbReset         = "form.reset"
	VerbReinitialized = "form.reinitialized"
	VerbSubmitted     = "form.submitted"
	VerbSubmitFailed  = "form.submit.failed"
)

// Object types used by form events.
const (
	ObjectForm  = "form"
	ObjectField = "form.field"
)

// FormEventInput describes the common fields for form lifecycle events.
type FormEventInput struct {
	FormID         string
	Path           string
	OldValue       any
	NewValue       any
	Violations     int
	SubmissionID   string
	Err            error
	Duration       time.Duration
	ActorID        string
	UserID         string
	TenantID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// BuildFieldUpdatedEvent describes a write to a single field. The object id is
// "<form id>:<path>" so sinks can group changes per field.
func BuildFieldUpdatedEvent(input FormEventInput) Event {
	event := buildFormEvent(VerbFieldUpdated, ObjectField, input)
	if input.Path != "" {
		event.ObjectID = fieldObjectID(input.FormID, input.Path)
	}
	return event
}

// BuildStateReplacedEvent describes a whole-tree replacement.
func BuildStateReplacedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbStateReplaced, ObjectForm, input)
}

// BuildResetEvent describes a reset to the retained initial value.
func BuildResetEvent(input FormEventInput) Event {
	return buildFormEvent(VerbReset, ObjectForm, input)
}

// BuildReinitializedEvent describes a replacement of the retained initial value.
func BuildReinitializedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbReinitialized, ObjectForm, input)
}

// BuildSubmittedEvent describes a submit whose handler returned without error.
func BuildSubmittedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbSubmitted, ObjectForm, input)
}

// BuildSubmitFailedEvent describes a submit whose handler returned an error.
func BuildSubmitFailedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbSubmitFailed, ObjectForm, input)
}

func buildFormEvent(verb, objectType string, input FormEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.FormID != "" {
		set("form_id", input.FormID)
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if input.Violations > 0 {
		set("violations", input.Violations)
	}
	if input.SubmissionID != "" {
		set("submission_id", input.SubmissionID)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}
	if input.Duration > 0 {
		set("duration_ms", input.Duration.Milliseconds())
	}

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.FormID)
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func fieldObjectID(formID, path string) string {
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return path
	}
	return formID + ":" + path
}
