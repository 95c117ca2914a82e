package formstate

import (
	"github.com/goliatone/go-formstate/layering"
	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/observability"
	"github.com/goliatone/go-formstate/pkg/persist"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Option configures a Form.
type Option func(*formConfig)

type formConfig struct {
	id            string
	validators    []validation.Validator
	submit        SubmitHandler
	kv            persist.KV
	storageKey    string
	codec         persist.Codec
	layers        []layering.Layer
	observer      observability.Observer
	activityHooks activity.Hooks
	activityCfg   *activity.Config
}

func applyOptions(opts []Option) formConfig {
	cfg := formConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithID sets the form identifier used in events and metrics. Forms without
// an explicit ID get a random UUID.
func WithID(id string) Option {
	return func(cfg *formConfig) {
		cfg.id = id
	}
}

// WithValidator adds a validator. Validators run in the order they were added
// and their results are concatenated.
func WithValidator(v validation.Validator) Option {
	return func(cfg *formConfig) {
		if v != nil {
			cfg.validators = append(cfg.validators, v)
		}
	}
}

// WithSubmitHandler sets the handler invoked by Submit.
func WithSubmitHandler(fn SubmitHandler) Option {
	return func(cfg *formConfig) {
		cfg.submit = fn
	}
}

// WithStorage persists the state tree under key after every mutation and
// restores it on construction. An empty key disables persistence unless a
// layered seed supplies one.
func WithStorage(kv persist.KV, key string) Option {
	return func(cfg *formConfig) {
		cfg.kv = kv
		cfg.storageKey = key
	}
}

// WithCodec selects the serialisation used for storage. JSON is the default.
func WithCodec(codec persist.Codec) Option {
	return func(cfg *formConfig) {
		cfg.codec = codec
	}
}

// WithLayeredSeed merges scoped layers over the initial value. When storage is
// configured without a key, the strongest layer's identifier is used as the key.
func WithLayeredSeed(layers ...layering.Layer) Option {
	return func(cfg *formConfig) {
		cfg.layers = append(cfg.layers, layers...)
	}
}

// WithObserver sets the observer receiving lifecycle events.
func WithObserver(obs observability.Observer) Option {
	return func(cfg *formConfig) {
		cfg.observer = obs
	}
}

// WithActivityHooks attaches activity hooks. Nil entries are dropped.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *formConfig) {
		cfg.activityHooks = append(cfg.activityHooks, normalized...)
	}
}

// WithActivityConfig overrides the activity emitter defaults. Without it the
// emitter is enabled whenever hooks are configured.
func WithActivityConfig(c activity.Config) Option {
	return func(cfg *formConfig) {
		cfg.activityCfg = &c
	}
}

func cloneActivityHooks(hooks []activity.ActivityHook) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func (cfg formConfig) validator() validation.Validator {
	switch len(cfg.validators) {
	case 0:
		return nil
	case 1:
		return cfg.validators[0]
	default:
		return validation.All(cfg.validators...)
	}
}

func (cfg formConfig) observerOrDefault() observability.Observer {
	if cfg.observer != nil {
		return cfg.observer
	}
	return observability.NoOpObserver{}
}

func (cfg formConfig) activityEmitter() *activity.Emitter {
	c := activity.Config{Enabled: true}
	if cfg.activityCfg != nil {
		c = *cfg.activityCfg
	}
	return activity.NewEmitter(cfg.activityHooks, c)
}
