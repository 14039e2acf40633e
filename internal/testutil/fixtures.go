// Package testutil provides test fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// WriteFiles writes each name -> content pair below a fresh temporary
// directory, creating intermediate directories, and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create fixture directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", name, err)
		}
	}
	return dir
}

// WriteTempYAML marshals doc to YAML in dir/name and returns the path.
func WriteTempYAML(t *testing.T, dir, name string, doc any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal document to YAML: %v", err)
	}
	return writeFile(t, dir, name, data)
}

// WriteTempJSON marshals doc to indented JSON in dir/name and returns the path.
func WriteTempJSON(t *testing.T, dir, name string, doc any) string {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal document to JSON: %v", err)
	}
	return writeFile(t, dir, name, data)
}

// DecodeJSON parses a JSON literal into the generic data model,
// failing the test on malformed input.
func DecodeJSON(t *testing.T, src string) any {
	t.Helper()

	var doc any
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("Failed to decode JSON fixture: %v", err)
	}
	return doc
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	return path
}
