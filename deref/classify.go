package deref

import (
	"strings"

	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

type refKind int

const (
	refUnsupported refKind = iota
	refLocal
	refExternal
)

func (k refKind) String() string {
	switch k {
	case refLocal:
		return "local"
	case refExternal:
		return "external"
	default:
		return "unsupported"
	}
}

// classification is a reference string split into its parts.
type classification struct {
	kind refKind
	// target is the text before the first "#"; empty for local references
	target string
	// pointer is the text after the first "#"
	pointer string
	// hasPointer is false when the reference has no "#"
	hasPointer bool
	// loader handles external references
	loader loader.Loader
}

// refType names the reference kind in errors and logs.
func (c classification) refType() string {
	if c.loader != nil {
		return c.loader.Kind()
	}
	return c.kind.String()
}

// classify splits ref on its first "#" and decides how it resolves.
// Local references start with "#". External targets go to the first
// loader that matches them; anything else is unsupported.
func classify(ref string, loaders []loader.Loader) classification {
	target, ptr, hasPointer := strings.Cut(ref, "#")
	c := classification{target: target, pointer: ptr, hasPointer: hasPointer}

	if target == "" {
		if hasPointer {
			c.kind = refLocal
		}
		return c
	}

	for _, l := range loaders {
		if l.Match(target) {
			c.kind = refExternal
			c.loader = l
			return c
		}
	}
	return c
}

// refOf reports the $ref string of a reference node.
func refOf(node map[string]any) (string, bool) {
	ref, ok := node[RefKey].(string)
	return ref, ok
}
