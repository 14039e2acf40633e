package deref

import (
	"errors"
	"sort"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
	"github.com/jamesseanwright/json-schema-deref-sync/internal/dag"
	"github.com/jamesseanwright/json-schema-deref-sync/internal/pathutil"
	"github.com/jamesseanwright/json-schema-deref-sync/pointer"
)

// localRef is a local reference found by the static scan.
type localRef struct {
	// from is the pointer of the reference node
	from string
	// to is the pointer the reference targets
	to  string
	ref string
}

// checkLocalCircular rejects documents whose local references form a cycle.
// It runs before any external loading and sees only local references of doc.
//
// A document is rejected when a reference targets the root, when a reference
// targets one of its own descendants, or when the graph of references closes
// a cycle. A reference node at the root itself is replaced whole, so its
// target being a descendant of the root is not a cycle. Besides from -> to, the graph has an edge from each target to
// every reference nested inside it, since substituting the target also
// resolves those.
func checkLocalCircular(doc any) error {
	refs := collectLocalRefs(doc)
	g := dag.New()

	for _, r := range refs {
		if pointer.IsRoot(r.to) {
			return staticCircularError(r, "reference to document root", nil)
		}
		if !pointer.IsRoot(r.from) && pointer.IsPrefix(r.from, r.to) {
			return staticCircularError(r, "reference to its own descendant", []string{r.from, r.to})
		}
		if err := addRefEdge(g, r, r.from, r.to); err != nil {
			return err
		}
		for _, nested := range refs {
			if nested.from != r.to && pointer.IsPrefix(r.to, nested.from) {
				if err := addRefEdge(g, r, r.to, nested.from); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func addRefEdge(g *dag.Graph, r localRef, from, to string) error {
	err := g.AddEdge(from, to)
	var cycleErr *dag.CycleError
	if errors.As(err, &cycleErr) {
		return staticCircularError(r, "local reference cycle", cycleErr.Path)
	}
	return err
}

func staticCircularError(r localRef, msg string, chain []string) error {
	return &dereferrors.ReferenceError{
		Ref:        r.ref,
		RefType:    refLocal.String(),
		IsCircular: true,
		Chain:      chain,
		Message:    msg,
	}
}

// collectLocalRefs scans doc depth-first in key order. Sibling values of
// reference nodes are scanned too.
func collectLocalRefs(doc any) []localRef {
	path := pathutil.Acquire()
	defer pathutil.Release(path)

	var refs []localRef
	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case map[string]any:
			if ref, ok := refOf(v); ok && len(ref) > 0 && ref[0] == '#' {
				refs = append(refs, localRef{from: path.String(), to: pointer.Format(pointer.Parse(ref)), ref: ref})
			}
			for _, k := range sortedKeys(v) {
				if k == RefKey {
					continue
				}
				path.Push(k)
				walk(v[k])
				path.Pop()
			}
		case []any:
			for i, item := range v {
				path.PushIndex(i)
				walk(item)
				path.Pop()
			}
		}
	}
	walk(doc)
	return refs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
