package loader

import (
	"errors"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/go-jsonnet"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

// JsonnetLoader evaluates .jsonnet and .libsonnet files and uses the
// resulting JSON as the external document.
type JsonnetLoader struct {
	// Root, when set, confines loading to files inside this directory.
	// It applies to imports made by the evaluated file as well.
	Root string
	// MaxFileSize limits the size of the source file and of each import.
	// Zero means DefaultMaxFileSize.
	MaxFileSize int64
	// JPaths are extra library search paths for imports, tried after the
	// directory of the importing file. They are subject to Root.
	JPaths []string
	// ExtVars are external string variables available through std.extVar.
	ExtVars map[string]string
}

// NewJsonnetLoader creates a JsonnetLoader with default limits.
func NewJsonnetLoader() *JsonnetLoader {
	return &JsonnetLoader{MaxFileSize: DefaultMaxFileSize}
}

// Kind implements Loader.
func (l *JsonnetLoader) Kind() string { return "jsonnet" }

// Match implements Loader.
func (l *JsonnetLoader) Match(target string) bool {
	if target == "" || (hasScheme(target) && !strings.HasPrefix(target, fileScheme)) {
		return false
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".jsonnet", ".libsonnet":
		return true
	}
	return false
}

// Locate implements Loader.
func (l *JsonnetLoader) Locate(target, base string) (Location, error) {
	return locateFile(l.Kind(), l.Root, target, base)
}

// Load implements Loader. Imports inside the file resolve relative to it.
func (l *JsonnetLoader) Load(loc Location) (any, error) {
	data, err := readFile(l.Kind(), loc.ID, l.MaxFileSize)
	if err != nil {
		return nil, err
	}

	imp := newJsonnetImporter(l)
	imp.contents[loc.ID] = jsonnet.MakeContentsRaw(data)

	vm := jsonnet.MakeVM()
	vm.Importer(imp)
	for k, v := range l.ExtVars {
		vm.ExtVar(k, v)
	}

	out, err := vm.EvaluateFile(loc.ID)
	if imp.fatal != nil {
		return nil, imp.fatal
	}
	if err != nil {
		return nil, &dereferrors.LoaderError{Kind: l.Kind(), Target: loc.ID, Message: "failed to evaluate jsonnet", Cause: err}
	}

	var doc any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return nil, &dereferrors.LoaderError{Kind: l.Kind(), Target: loc.ID, Message: "failed to decode jsonnet output", Cause: err}
	}
	return doc, nil
}

// jsonnetImporter reads imports through the loader's path rules: relative
// to the importing file, then each JPath, never outside Root.
type jsonnetImporter struct {
	l        *JsonnetLoader
	contents map[string]jsonnet.Contents
	// fatal is the first path traversal seen; the VM flattens importer
	// errors into strings, so Load reports it from here.
	fatal error
}

func newJsonnetImporter(l *JsonnetLoader) *jsonnetImporter {
	return &jsonnetImporter{l: l, contents: make(map[string]jsonnet.Contents)}
}

// Import implements jsonnet.Importer.
func (i *jsonnetImporter) Import(importedFrom, importedPath string) (jsonnet.Contents, string, error) {
	dirs := make([]string, 0, len(i.l.JPaths)+1)
	dirs = append(dirs, filepath.Dir(importedFrom))
	dirs = append(dirs, i.l.JPaths...)

	for _, dir := range dirs {
		loc, err := locateFile(i.l.Kind(), i.l.Root, importedPath, dir)
		if err != nil {
			var loaderErr *dereferrors.LoaderError
			if errors.As(err, &loaderErr) && loaderErr.Fatal && i.fatal == nil {
				i.fatal = err
			}
			return jsonnet.Contents{}, "", err
		}
		if c, ok := i.contents[loc.ID]; ok {
			return c, loc.ID, nil
		}
		data, err := readFile(i.l.Kind(), loc.ID, i.l.MaxFileSize)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return jsonnet.Contents{}, "", err
		}
		c := jsonnet.MakeContentsRaw(data)
		i.contents[loc.ID] = c
		return c, loc.ID, nil
	}
	return jsonnet.Contents{}, "", notFound(importedPath)
}
