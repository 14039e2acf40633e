// Package loader provides the external document loaders used by the deref
// engine.
//
// A [Loader] turns the target part of a reference string (everything before
// the first "#") into a raw document. The engine decides which loader handles
// a target by asking each configured loader's Match method in order, so more
// specific loaders should be listed before general ones:
//
//	loaders := []loader.Loader{
//	    loader.NewRegistryLoader(db),
//	    loader.NewJsonnetLoader(),
//	    loader.NewFileLoader(),
//	}
//
// Loaders signal a plain miss by returning an error wrapping [ErrNotFound].
// Any other failure should be a *dereferrors.LoaderError; setting its Fatal
// field aborts dereferencing regardless of strict mode.
package loader

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"
)

// DefaultMaxFileSize is the default maximum size (in bytes) of an external
// document read by the file based loaders.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB

// ErrNotFound indicates the loader has no document for a target.
var ErrNotFound = errors.New("document not found")

// Location identifies a loadable external document.
type Location struct {
	// ID is the canonical identity of the document, e.g. an absolute path.
	// Documents with equal IDs are loaded once per dereference call.
	ID string
	// Base is the context used to locate relative targets found inside
	// the document, e.g. its directory.
	Base string
}

// Loader loads external documents for one kind of reference target.
type Loader interface {
	// Kind names the reference kind handled by the loader, e.g. "file".
	Kind() string
	// Match reports whether the loader handles target.
	Match(target string) bool
	// Locate canonicalizes target relative to base.
	Locate(target, base string) (Location, error)
	// Load returns the raw document at loc.
	Load(loc Location) (any, error)
}

// DecodeDocument parses YAML or JSON content into the generic data model.
// JSON is decoded as YAML, which is a superset of it.
func DecodeDocument(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// hasScheme reports whether target starts with a URI scheme.
// Single letter schemes are treated as Windows drive letters.
func hasScheme(target string) bool {
	i := strings.IndexByte(target, ':')
	if i < 2 {
		return false
	}
	for j, c := range target[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

func notFound(target string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, target)
}

// Standard returns the loader set used by the jsonderef command and MCP
// server: Jsonnet files, then plain files, then the schema registry when db
// is non-nil. root confines both file based loaders.
func Standard(root string, db *sql.DB) []Loader {
	loaders := []Loader{
		&JsonnetLoader{Root: root, MaxFileSize: DefaultMaxFileSize},
		&FileLoader{Root: root, MaxFileSize: DefaultMaxFileSize},
	}
	if db != nil {
		loaders = append(loaders, NewRegistryLoader(db))
	}
	return loaders
}
