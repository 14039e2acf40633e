// Package derefsync resolves JSON Reference ($ref) nodes in JSON Schema
// documents, producing a self-contained copy of each document.
//
// # Overview
//
// The module is organized into a few packages:
//
//   - deref: the dereferencing engine, its options and resolution statistics
//   - loader: pluggable sources for external documents (files, Jsonnet, a SQLite schema registry)
//   - pointer: JSON Pointer parsing, formatting and resolution
//   - dereferrors: structured error types shared by all packages
//
// The jsonderef command (cmd/jsonderef) exposes the engine as a CLI and as
// a Model Context Protocol server.
//
// # Quick Start
//
//	result, err := deref.DerefWithOptions(doc,
//	    deref.WithBaseDir("schemas"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, ref := range result.Missing {
//	    log.Printf("unresolved: %s", ref)
//	}
//
// # Version
//
// [Version], [Commit] and [BuildTime] report the build metadata injected at
// release time.
package derefsync
