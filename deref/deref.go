package deref

import (
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

const (
	// RefKey is the reserved key marking a reference node.
	RefKey = "$ref"

	// DefaultMaxRefDepth is the default maximum depth of nested $ref resolution.
	// It bounds chains of references that resolve to further references.
	DefaultMaxRefDepth = 100

	// DefaultMaxCachedDocuments is the default maximum number of distinct
	// external documents loaded during one Deref call.
	DefaultMaxCachedDocuments = 100
)

// Dereferencer replaces $ref nodes in a document with the values they point to.
//
// A Dereferencer only holds configuration. Every call to Deref builds its own
// resolution state and external document cache, so a Dereferencer may be
// reused and shared between goroutines.
type Dereferencer struct {
	// BaseDir is the base location for relative external targets in the
	// top-level document. Defaults to the current working directory.
	BaseDir string
	// FailOnMissing makes an unresolvable reference fatal instead of leaving
	// the reference node in place.
	FailOnMissing bool
	// Loaders are consulted in order to classify and load external targets.
	// A nil slice means the default loader set (a FileLoader); an empty,
	// non-nil slice disables external references.
	Loaders []loader.Loader
	// Logger receives debug and warning output. Defaults to NopLogger.
	Logger Logger
	// MaxRefDepth is the maximum nested reference depth (0 uses DefaultMaxRefDepth).
	MaxRefDepth int
	// MaxCachedDocuments is the maximum number of external documents per call
	// (0 uses DefaultMaxCachedDocuments).
	MaxCachedDocuments int
	// MergeAdditionalProperties merges the sibling keys of a reference node into
	// the resolved value when it is an object. Existing keys of the resolved
	// value win.
	MergeAdditionalProperties bool
	// RemoveIDs strips string-valued $id keys from the result.
	RemoveIDs bool
}

// Result contains the outcome of a successful Deref call.
type Result struct {
	// Document is the dereferenced document.
	Document any
	// Missing lists references that could not be resolved, in the order
	// they were first encountered. Their nodes are left unchanged in Document.
	Missing []string
	// Stats summarizes the work performed.
	Stats Stats
}

// HasMissing reports whether any reference was left unresolved.
func (r *Result) HasMissing() bool {
	return len(r.Missing) > 0
}

// Stats counts reference resolution work done by one Deref call.
type Stats struct {
	// References is the number of reference nodes encountered.
	References int `json:"references"`
	// Local is the number of local references substituted.
	Local int `json:"local"`
	// External is the number of external references substituted.
	External int `json:"external"`
	// Loads is the number of loader invocations.
	Loads int `json:"loads"`
	// CacheHits is the number of external references served from the cache.
	CacheHits int `json:"cache_hits"`
}

// New creates a Dereferencer with default settings.
func New() *Dereferencer {
	return &Dereferencer{}
}

// Deref returns a dereferenced copy of doc. The caller's document is never
// modified.
//
// Circular references, fatal loader failures, resource limits and, with
// FailOnMissing, missing references abort the call with an error and no
// document. Otherwise unresolved references are reported in Result.Missing.
func (d *Dereferencer) Deref(doc any) (*Result, error) {
	root, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	id, err := fingerprint(root)
	if err != nil {
		return nil, err
	}

	if err := checkLocalCircular(root); err != nil {
		return nil, err
	}

	e := d.newEngine(frame{id: id, root: root, base: d.baseDir()})
	e.logger.Debug("dereferencing document", "document", id)

	out, err := e.resolve(deepCopy(root), 0)
	if err != nil {
		e.state.fail(err)
	}
	if e.state.err != nil {
		return nil, e.state.err
	}

	if d.RemoveIDs {
		removeIDs(out)
	}
	e.logger.Debug("dereferenced document",
		"document", id,
		"references", e.stats.References,
		"cached_documents", e.cache.len(),
		"missing", len(e.state.missing),
	)

	return &Result{
		Document: out,
		Missing:  e.state.missingRefs(),
		Stats:    e.stats,
	}, nil
}

func (d *Dereferencer) newEngine(top frame) *engine {
	logger := d.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	loaders := d.Loaders
	if loaders == nil {
		loaders = DefaultLoaders()
	}
	maxDepth := d.MaxRefDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxRefDepth
	}
	maxDocs := d.MaxCachedDocuments
	if maxDocs <= 0 {
		maxDocs = DefaultMaxCachedDocuments
	}
	return &engine{
		loaders:       loaders,
		logger:        logger,
		failOnMissing: d.FailOnMissing,
		merge:         d.MergeAdditionalProperties,
		maxDepth:      maxDepth,
		cache:         newDocumentCache(maxDocs),
		state:         newState(top),
	}
}

func (d *Dereferencer) baseDir() string {
	if d.BaseDir == "" {
		return "."
	}
	return d.BaseDir
}

// DefaultLoaders returns the loader set used when none is configured.
func DefaultLoaders() []loader.Loader {
	return []loader.Loader{loader.NewFileLoader()}
}
