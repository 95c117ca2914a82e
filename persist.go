package formstate

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/observability"
	"github.com/goliatone/go-formstate/pkg/persist"
	"github.com/goliatone/go-formstate/pkg/tree"
)

func (f *Form) persistenceEnabled() bool {
	return f.cfg.kv != nil && f.storageKey != ""
}

// restore loads the persisted snapshot. Failures are reported and treated as
// a missing snapshot.
func (f *Form) restore(ctx context.Context) (*tree.Node, bool) {
	if !f.persistenceEnabled() {
		return nil, false
	}
	root, ok, err := persist.LoadTree(ctx, f.cfg.kv, f.cfg.codec, f.storageKey)
	if err != nil {
		f.emit(ctx, observability.EventPersistFailed, observability.LevelWarning, map[string]any{
			observability.KeyStorageKey: f.storageKey,
			observability.KeyError:      err,
		})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	f.emit(ctx, observability.EventPersistLoaded, observability.LevelInfo, map[string]any{
		observability.KeyStorageKey: f.storageKey,
	})
	return root, true
}

// save writes root to storage. Failures are reported and swallowed.
func (f *Form) save(ctx context.Context, root *tree.Node) {
	if !f.persistenceEnabled() {
		return
	}
	if err := persist.SaveTree(ctx, f.cfg.kv, f.cfg.codec, f.storageKey, root); err != nil {
		f.emit(ctx, observability.EventPersistFailed, observability.LevelWarning, map[string]any{
			observability.KeyStorageKey: f.storageKey,
			observability.KeyError:      err,
		})
	}
}
