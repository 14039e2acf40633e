// Package deref resolves $ref indirection in JSON-Schema-like documents,
// producing a self-contained copy in which every reference node is replaced
// by the value it points to.
//
// # Overview
//
// Documents use the JSON data model: nil, bool, numbers, string, []any and
// map[string]any. A map holding a string "$ref" key is a reference node and
// is replaced as a whole by its target; sibling keys are dropped unless
// MergeAdditionalProperties is enabled.
//
// Two reference styles are supported:
//
//   - Local references ("#/definitions/Pet") are JSON Pointers into the
//     document that contains them. They are looked up in that document's
//     unmodified content, not in the partially dereferenced result.
//   - External references ("common.yaml#/definitions/Tag") name a document
//     served by a [loader.Loader], optionally followed by a pointer into it.
//     The default loader set reads YAML and JSON files relative to BaseDir.
//
// Other references (for example http URLs without a matching loader) are
// left untouched, and reported as missing only in strict mode.
//
// # Quick Start
//
//	result, err := deref.DerefWithOptions(doc, deref.WithBaseDir("schemas"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, ref := range result.Missing {
//		fmt.Println("unresolved:", ref)
//	}
//
// Or with a reusable Dereferencer:
//
//	d := deref.New()
//	d.BaseDir = "schemas"
//	d.FailOnMissing = true
//	result, err := d.Deref(doc)
//
// # Circular References
//
// Circular references are always fatal and match
// [dereferrors.ErrCircularReference]. Local cycles in the input are rejected
// by a static scan before anything is loaded. Cycles that pass through
// external documents are detected while resolving, by tracking the chain of
// references currently being resolved.
//
// # Caching
//
// Each external document is loaded and dereferenced at most once per Deref
// call; further references to it are served from a cache that lives only
// for that call. Loading the same file in two calls always reads it again.
package deref
