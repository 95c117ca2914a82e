package formstate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-formstate/layering"
	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/observability"
	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/persist"
	"github.com/goliatone/go-formstate/pkg/tree"
)

type failingKV struct {
	loadErr error
	saveErr error
}

func (kv failingKV) Load(context.Context, string) (string, bool, error) {
	return "", false, kv.loadErr
}

func (kv failingKV) Save(context.Context, string, string) error {
	return kv.saveErr
}

type eventRecorder struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *eventRecorder) OnEvent(_ context.Context, event observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count(typ observability.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Type == typ {
			n++
		}
	}
	return n
}

func TestPersistenceRestoresSnapshot(t *testing.T) {
	kv := persist.NewMemoryKV()
	first := MustNew(nestedSeed(), WithStorage(kv, "draft"))
	if err := first.SetFieldValue(path.MustParse("a.b.c"), "saved"); err != nil {
		t.Fatalf("set: %v", err)
	}

	recorder := &eventRecorder{}
	second := MustNew(nestedSeed(), WithStorage(kv, "draft"), WithObserver(recorder))
	if value, _ := tree.Get(second.State(), path.MustParse("a.b.c")).StringValue(); value != "saved" {
		t.Fatalf("expected restored value, got %q", value)
	}
	if !second.WasModified() {
		t.Fatalf("expected restored draft to differ from the initial value")
	}
	if recorder.count(observability.EventPersistLoaded) != 1 {
		t.Fatalf("expected persist loaded event")
	}
	if second.StorageKey() != "draft" {
		t.Fatalf("unexpected storage key %q", second.StorageKey())
	}

	second.Reset()
	third := MustNew(nestedSeed(), WithStorage(kv, "draft"))
	if third.WasModified() {
		t.Fatalf("expected reset state to be persisted")
	}
}

func TestPersistenceWithYAMLCodec(t *testing.T) {
	kv := persist.NewMemoryKV()
	form := MustNew(map[string]any{"numbers": []any{1, 2}}, WithStorage(kv, "yaml"), WithCodec(persist.YAMLCodec{}))
	if err := form.SetFieldValue(path.MustParse("numbers.2"), 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	restored := MustNew(nil, WithStorage(kv, "yaml"), WithCodec(persist.YAMLCodec{}))
	if !tree.Equal(restored.State(), form.State()) {
		t.Fatalf("expected yaml round trip, got %v want %v", restored.State(), form.State())
	}
}

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	recorder := &eventRecorder{}
	kv := failingKV{loadErr: errors.New("offline"), saveErr: errors.New("disk full")}
	form, err := New(nestedSeed(), WithStorage(kv, "draft"), WithObserver(recorder))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := form.SetFieldValue(path.MustParse("a.b.c"), "x"); err != nil {
		t.Fatalf("expected save failure to be swallowed, got %v", err)
	}
	if value, _ := tree.Get(form.State(), path.MustParse("a.b.c")).StringValue(); value != "x" {
		t.Fatalf("expected in-memory mutation to stick")
	}
	if got := recorder.count(observability.EventPersistFailed); got != 2 {
		t.Fatalf("expected load and save failures to be reported, got %d", got)
	}
}

func TestNoStorageKeyDisablesPersistence(t *testing.T) {
	kv := persist.NewMemoryKV()
	form := MustNew(nestedSeed(), WithStorage(kv, ""))
	if err := form.SetFieldValue(path.MustParse("a.b.c"), "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if kv.Keys() != 0 || form.StorageKey() != "" {
		t.Fatalf("expected persistence to be disabled")
	}
}

func TestLayeredSeedProvidesStorageKey(t *testing.T) {
	kv := persist.NewMemoryKV()
	defaults := layering.Layer{
		Scope: layering.Scope{Key: "signup", Level: layering.ScopeLevelGlobal},
		Root:  tree.MustFrom(map[string]any{"country": "US", "newsletter": true}),
	}
	user := layering.Layer{
		Scope: layering.Scope{Key: "signup", Level: layering.ScopeLevelUser, User: "u1"},
		Root:  tree.MustFrom(map[string]any{"country": "DE"}),
	}
	form := MustNew(map[string]any{"name": ""}, WithLayeredSeed(defaults, user), WithStorage(kv, ""))

	if form.StorageKey() != "user/u1/signup" {
		t.Fatalf("unexpected storage key %q", form.StorageKey())
	}
	want := tree.MustFrom(map[string]any{"name": "", "country": "DE", "newsletter": true})
	if !tree.Equal(form.State(), want) {
		t.Fatalf("want %v got %v", want, form.State())
	}
	if form.WasModified() {
		t.Fatalf("expected layered seed to be the initial value")
	}
}

func TestObserverAndActivityEvents(t *testing.T) {
	recorder := &eventRecorder{}
	capture := &activity.CaptureHook{}
	form := MustNew(nestedSeed(),
		WithID("signup"),
		WithObserver(recorder),
		WithActivityHooks(capture, nil),
		WithValidator(requireString("a.b.c", "required")),
		WithSubmitHandler(func(context.Context, Snapshot) error { return nil }),
	)

	if err := form.SetFieldValue(path.MustParse("a.b.c"), "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := form.SetState(nestedSeed()); err != nil {
		t.Fatalf("set state: %v", err)
	}
	form.Reset()
	if err := form.Reinitialize(nestedSeed()); err != nil {
		t.Fatalf("reinitialize: %v", err)
	}
	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	wantVerbs := []string{
		activity.VerbFieldUpdated,
		activity.VerbStateReplaced,
		activity.VerbReset,
		activity.VerbReinitialized,
		activity.VerbSubmitted,
	}
	verbs := capture.Verbs()
	if len(verbs) != len(wantVerbs) {
		t.Fatalf("want %v got %v", wantVerbs, verbs)
	}
	for i := range wantVerbs {
		if verbs[i] != wantVerbs[i] {
			t.Fatalf("verb %d: want %s got %s", i, wantVerbs[i], verbs[i])
		}
	}
	field := capture.Events[0]
	if field.ObjectID != "signup:a.b.c" || field.Metadata["old_value"] != "" || field.Metadata["new_value"] != "x" {
		t.Fatalf("unexpected field event %+v", field)
	}
	if field.Channel != "forms" {
		t.Fatalf("expected default channel, got %q", field.Channel)
	}

	if recorder.count(observability.EventSubmitStarted) != 1 || recorder.count(observability.EventSubmitCompleted) != 1 {
		t.Fatalf("expected submit events")
	}
	if recorder.count(observability.EventReset) != 1 {
		t.Fatalf("expected reset event")
	}
	if recorder.count(observability.EventStateChanged) != 4 {
		t.Fatalf("expected one state change per mutation, got %d", recorder.count(observability.EventStateChanged))
	}
	for _, event := range recorder.events {
		if event.Data[observability.KeyFormID] != "signup" || event.Source != "formstate" {
			t.Fatalf("expected form id and source on every event, got %+v", event)
		}
	}
}

func TestActivityFailureIsReported(t *testing.T) {
	recorder := &eventRecorder{}
	hook := &activity.CaptureHook{Err: errors.New("sink down")}
	form := MustNew(nestedSeed(), WithObserver(recorder), WithActivityHooks(hook))
	if err := form.SetFieldValue(path.MustParse("a.b.c"), "x"); err != nil {
		t.Fatalf("expected activity failure to be swallowed, got %v", err)
	}
	if recorder.count(observability.EventActivityFailed) != 1 {
		t.Fatalf("expected activity failure event")
	}

	disabled := &activity.CaptureHook{}
	quiet := MustNew(nestedSeed(), WithActivityHooks(disabled), WithActivityConfig(activity.Config{Enabled: false}))
	_ = quiet.SetFieldValue(path.MustParse("a.b.c"), "x")
	if len(disabled.Events) != 0 {
		t.Fatalf("expected disabled emitter to skip hooks")
	}
}
