// Package layering composes a form's seed value from scoped layers, for
// example system defaults under tenant presets under a user's saved draft.
package layering

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-formstate/pkg/tree"
)

// ScopeLevel identifies the precedence of a layer. Higher levels override
// lower levels when layering.
type ScopeLevel int

const (
	// ScopeLevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	ScopeLevelUnknown ScopeLevel = iota
	// ScopeLevelGlobal represents the weakest layer (system defaults).
	ScopeLevelGlobal
	// ScopeLevelGroup represents a group-level override (team, tenant).
	ScopeLevelGroup
	// ScopeLevelUser represents the strongest layer containing per-user data.
	ScopeLevelUser
)

func (l ScopeLevel) String() string {
	switch l {
	case ScopeLevelGlobal:
		return "global"
	case ScopeLevelGroup:
		return "group"
	case ScopeLevelUser:
		return "user"
	default:
		return "unknown"
	}
}

// ParseScopeLevel converts a string into a ScopeLevel. Matching ignores case;
// unrecognised values map to ScopeLevelUnknown.
func ParseScopeLevel(value string) ScopeLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "global":
		return ScopeLevelGlobal
	case "group":
		return ScopeLevelGroup
	case "user":
		return ScopeLevelUser
	default:
		return ScopeLevelUnknown
	}
}

// Scope names a layer within a chain.
type Scope struct {
	Key   string     // form key (e.g. "signup")
	Level ScopeLevel // precedence category
	User  string     // user identifier when Level == ScopeLevelUser
	Group string     // group identifier when Level == ScopeLevelGroup
}

// Identifier returns a stable slug usable as a persistence key
// (e.g. "user/123/signup").
func (s Scope) Identifier() string {
	switch s.Level {
	case ScopeLevelUser:
		return fmt.Sprintf("user/%s/%s", s.User, s.Key)
	case ScopeLevelGroup:
		return fmt.Sprintf("group/%s/%s", s.Group, s.Key)
	case ScopeLevelGlobal:
		return fmt.Sprintf("global/%s", s.Key)
	default:
		return fmt.Sprintf("unknown/%s", s.Key)
	}
}

// ScopeChain describes the ordered layering sequence from strongest to weakest.
type ScopeChain struct {
	ordered []Scope
}

// NewScopeChain constructs a chain, dropping unknown levels and duplicates by
// Identifier. Stronger levels sort first; peers keep their relative order.
func NewScopeChain(scopes ...Scope) ScopeChain {
	filtered := make([]Scope, 0, len(scopes))
	seen := map[string]struct{}{}

	for _, scope := range scopes {
		if scope.Level == ScopeLevelUnknown {
			continue
		}
		id := scope.Identifier()
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		filtered = append(filtered, scope)
	}

	slices.SortStableFunc(filtered, compareLevel)
	return ScopeChain{ordered: filtered}
}

// Ordered returns the layering sequence from strongest (index 0) to weakest.
func (c ScopeChain) Ordered() []Scope {
	out := make([]Scope, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Strongest returns the first scope in the chain (zero scope if empty).
func (c ScopeChain) Strongest() Scope {
	if len(c.ordered) == 0 {
		return Scope{}
	}
	return c.ordered[0]
}

// Weakest returns the final scope in the chain (zero scope if empty).
func (c ScopeChain) Weakest() Scope {
	if len(c.ordered) == 0 {
		return Scope{}
	}
	return c.ordered[len(c.ordered)-1]
}

func compareLevel(a, b Scope) int {
	switch {
	case a.Level == b.Level:
		return 0
	case a.Level > b.Level:
		return -1
	default:
		return 1
	}
}

// Layer pairs a scope with the partial tree it contributes.
type Layer struct {
	Scope Scope
	Root  *tree.Node
}

// Compose orders layers by precedence and deep-merges them, strongest first.
// Layers with an unknown level are ignored. The second return value is the
// strongest scope that contributed, which callers use as the storage key.
func Compose(layers ...Layer) (*tree.Node, Scope) {
	filtered := make([]Layer, 0, len(layers))
	for _, layer := range layers {
		if layer.Scope.Level == ScopeLevelUnknown {
			continue
		}
		filtered = append(filtered, layer)
	}
	if len(filtered) == 0 {
		return nil, Scope{}
	}
	slices.SortStableFunc(filtered, func(a, b Layer) int {
		return compareLevel(a.Scope, b.Scope)
	})

	roots := make([]*tree.Node, len(filtered))
	for i, layer := range filtered {
		roots[i] = layer.Root
	}
	return tree.MergeLayers(roots...), filtered[0].Scope
}
