package deref

import (
	"fmt"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

// Option is a function that configures a deref operation
type Option func(*derefConfig) error

// derefConfig holds configuration for a deref operation
type derefConfig struct {
	baseDir       string
	failOnMissing bool
	loaders       []loader.Loader
	logger        Logger

	// Resource limits (0 means use default)
	maxRefDepth        int
	maxCachedDocuments int

	mergeAdditionalProperties bool
	removeIDs                 bool
}

// DerefWithOptions dereferences doc using functional options.
//
// Example:
//
//	result, err := deref.DerefWithOptions(doc,
//	    deref.WithBaseDir("schemas"),
//	    deref.WithFailOnMissing(true),
//	)
func DerefWithOptions(doc any, opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("deref: invalid options: %w", err)
	}

	d := &Dereferencer{
		BaseDir:                   cfg.baseDir,
		FailOnMissing:             cfg.failOnMissing,
		Loaders:                   cfg.loaders,
		Logger:                    cfg.logger,
		MaxRefDepth:               cfg.maxRefDepth,
		MaxCachedDocuments:        cfg.maxCachedDocuments,
		MergeAdditionalProperties: cfg.mergeAdditionalProperties,
		RemoveIDs:                 cfg.removeIDs,
	}
	return d.Deref(doc)
}

func applyOptions(opts ...Option) (*derefConfig, error) {
	cfg := &derefConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithBaseDir sets the directory used to resolve relative external targets
// of the top-level document.
func WithBaseDir(dir string) Option {
	return func(cfg *derefConfig) error {
		if dir == "" {
			return &dereferrors.ConfigError{Option: "BaseDir", Message: "must not be empty"}
		}
		cfg.baseDir = dir
		return nil
	}
}

// WithFailOnMissing makes unresolvable references fatal.
func WithFailOnMissing(enabled bool) Option {
	return func(cfg *derefConfig) error {
		cfg.failOnMissing = enabled
		return nil
	}
}

// WithLoaders replaces the default loader set. Loaders are matched in order.
// Passing no loaders disables external references.
func WithLoaders(loaders ...loader.Loader) Option {
	return func(cfg *derefConfig) error {
		for i, l := range loaders {
			if l == nil {
				return &dereferrors.ConfigError{Option: "Loaders", Message: fmt.Sprintf("loader %d is nil", i)}
			}
		}
		cfg.loaders = append([]loader.Loader{}, loaders...)
		return nil
	}
}

// WithLogger sets the logger for the operation.
func WithLogger(logger Logger) Option {
	return func(cfg *derefConfig) error {
		if logger == nil {
			return &dereferrors.ConfigError{Option: "Logger", Message: "must not be nil"}
		}
		cfg.logger = logger
		return nil
	}
}

// WithMaxRefDepth sets the maximum nested reference depth.
func WithMaxRefDepth(depth int) Option {
	return func(cfg *derefConfig) error {
		if depth <= 0 {
			return &dereferrors.ConfigError{Option: "MaxRefDepth", Value: depth, Message: "must be positive"}
		}
		cfg.maxRefDepth = depth
		return nil
	}
}

// WithMaxCachedDocuments sets the maximum number of external documents per call.
func WithMaxCachedDocuments(count int) Option {
	return func(cfg *derefConfig) error {
		if count <= 0 {
			return &dereferrors.ConfigError{Option: "MaxCachedDocuments", Value: count, Message: "must be positive"}
		}
		cfg.maxCachedDocuments = count
		return nil
	}
}

// WithMergeAdditionalProperties merges reference node siblings into object targets.
func WithMergeAdditionalProperties(enabled bool) Option {
	return func(cfg *derefConfig) error {
		cfg.mergeAdditionalProperties = enabled
		return nil
	}
}

// WithRemoveIDs strips $id keys from the result.
func WithRemoveIDs(enabled bool) Option {
	return func(cfg *derefConfig) error {
		cfg.removeIDs = enabled
		return nil
	}
}
