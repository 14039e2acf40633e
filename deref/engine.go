package deref

import (
	"errors"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
	"github.com/jamesseanwright/json-schema-deref-sync/pointer"
)

// engine performs one Deref call.
type engine struct {
	loaders       []loader.Loader
	logger        Logger
	failOnMissing bool
	merge         bool
	maxDepth      int

	cache *documentCache
	state *state
	stats Stats
}

// resolve walks node depth-first and returns it with every reference
// substituted. node must be owned by the caller: containers are updated in
// place. depth counts nested reference resolutions.
func (e *engine) resolve(node any, depth int) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := refOf(v); ok {
			return e.resolveRef(v, ref, depth)
		}
		for _, k := range sortedKeys(v) {
			resolved, err := e.resolve(v[k], depth)
			if err != nil {
				return nil, err
			}
			v[k] = resolved
		}
		return v, nil

	case []any:
		for i, item := range v {
			resolved, err := e.resolve(item, depth)
			if err != nil {
				return nil, err
			}
			v[i] = resolved
		}
		return v, nil

	default:
		return node, nil
	}
}

func (e *engine) resolveRef(node map[string]any, ref string, depth int) (any, error) {
	if e.state.aborted() {
		return node, nil
	}
	if depth >= e.maxDepth {
		return nil, e.state.fail(&dereferrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(e.maxDepth),
			Actual:       int64(depth + 1),
			Message:      "references nested too deeply",
		})
	}
	e.stats.References++

	c := classify(ref, e.loaders)
	switch c.kind {
	case refLocal:
		return e.resolveLocal(node, ref, c, depth)
	case refExternal:
		return e.resolveExternal(node, ref, c, depth)
	default:
		e.logger.Debug("skipping unsupported reference", "ref", ref)
		if e.failOnMissing {
			return e.missing(node, ref, c.refType(), nil)
		}
		return node, nil
	}
}

// resolveLocal substitutes a pointer into the current document. The pointer
// is looked up in the unmodified document, never in the partial result.
func (e *engine) resolveLocal(node map[string]any, ref string, c classification, depth int) (any, error) {
	cur := e.state.current()
	if pointer.IsRoot(c.pointer) {
		return nil, e.state.fail(&dereferrors.ReferenceError{
			Ref:        ref,
			RefType:    c.refType(),
			IsCircular: true,
			Chain:      []string{e.state.localMarker(ref)},
			Message:    "reference to document root",
		})
	}

	if err := e.state.enter(e.state.localMarker(ref), ref, c.refType()); err != nil {
		return nil, err
	}
	defer e.state.leave()

	target, ok := pointer.Resolve(cur.root, c.pointer)
	if !ok {
		return e.missing(node, ref, c.refType(), nil)
	}

	resolved, err := e.resolve(deepCopy(target), depth+1)
	if err != nil {
		return nil, err
	}
	e.stats.Local++
	e.logger.Debug("resolved local reference", "ref", ref, "document", cur.id, "depth", depth)
	return e.substitute(node, resolved, depth)
}

// resolveExternal substitutes a value from an external document, loading
// and fully dereferencing the document on first use.
func (e *engine) resolveExternal(node map[string]any, ref string, c classification, depth int) (any, error) {
	l := c.loader
	loc, err := l.Locate(c.target, e.state.current().base)
	if err != nil {
		return e.loadFailure(node, ref, c, err)
	}

	if err := e.state.enter(e.state.externalMarker(loc.ID), ref, c.refType()); err != nil {
		return nil, err
	}
	defer e.state.leave()

	doc, hit := e.cache.get(loc.ID)
	if hit {
		e.stats.CacheHits++
		e.logger.Debug("external document cache hit", "ref", ref, "document", loc.ID)
	} else {
		if err := e.cache.reserve(loc.ID); err != nil {
			return nil, e.state.fail(err)
		}

		e.stats.Loads++
		raw, err := l.Load(loc)
		if err != nil {
			e.cache.release(loc.ID)
			return e.loadFailure(node, ref, c, err)
		}
		raw, err = normalize(raw)
		if err != nil {
			e.cache.release(loc.ID)
			return e.loadFailure(node, ref, c, &dereferrors.LoaderError{Kind: l.Kind(), Target: loc.ID, Cause: err})
		}
		e.logger.Debug("loaded external document", "ref", ref, "document", loc.ID, "loader", l.Kind())

		e.state.pushFrame(frame{id: loc.ID, root: raw, base: loc.Base})
		doc, err = e.resolve(deepCopy(raw), depth+1)
		e.state.popFrame()
		if err != nil {
			return nil, err
		}
		e.cache.put(loc.ID, doc)
	}

	target := doc
	if c.hasPointer && !pointer.IsRoot(c.pointer) {
		var ok bool
		target, ok = pointer.Resolve(doc, c.pointer)
		if !ok {
			return e.missing(node, ref, c.refType(), nil)
		}
	}

	e.stats.External++
	return e.substitute(node, deepCopy(target), depth)
}

// loadFailure handles a loader error: fatal loader errors abort the call,
// anything else counts as a missing reference.
func (e *engine) loadFailure(node map[string]any, ref string, c classification, err error) (any, error) {
	var loaderErr *dereferrors.LoaderError
	if errors.As(err, &loaderErr) && loaderErr.Fatal {
		return nil, e.state.fail(err)
	}
	if !errors.Is(err, loader.ErrNotFound) {
		e.logger.Warn("failed to load external reference", "ref", ref, "loader", c.refType(), "error", err)
	}
	return e.missing(node, ref, c.refType(), err)
}

// missing records an unresolvable reference. The node is kept unchanged
// unless strict mode turns it into a fatal error.
func (e *engine) missing(node map[string]any, ref, refType string, cause error) (any, error) {
	e.state.addMissing(ref)
	if e.failOnMissing {
		return nil, e.state.fail(&dereferrors.ReferenceError{
			Ref:       ref,
			RefType:   refType,
			IsMissing: true,
			Cause:     cause,
		})
	}
	e.logger.Warn("missing reference", "ref", ref, "type", refType)
	return node, nil
}

// substitute returns the value replacing node. With merging enabled, the
// resolved sibling keys of node are added to object values that lack them.
func (e *engine) substitute(node map[string]any, resolved any, depth int) (any, error) {
	obj, ok := resolved.(map[string]any)
	if !e.merge || !ok {
		return resolved, nil
	}
	for _, k := range sortedKeys(node) {
		if k == RefKey {
			continue
		}
		if _, exists := obj[k]; exists {
			continue
		}
		val, err := e.resolve(node[k], depth)
		if err != nil {
			return nil, err
		}
		obj[k] = val
	}
	return obj, nil
}
