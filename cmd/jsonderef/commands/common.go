package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"

	"github.com/jamesseanwright/json-schema-deref-sync/internal/fileutil"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

// Output format constants
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", format, FormatJSON, FormatYAML)
	}
	return nil
}

// readDocument decodes the input document and returns the directory its
// relative references resolve against.
func readDocument(path string, stdin io.Reader) (any, string, error) {
	var data []byte
	var err error
	base := "."
	if path == StdinFilePath {
		data, err = io.ReadAll(io.LimitReader(stdin, loader.DefaultMaxFileSize+1))
	} else {
		data, err = os.ReadFile(path)
		base = filepath.Dir(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading input: %w", err)
	}
	if int64(len(data)) > loader.DefaultMaxFileSize {
		return nil, "", fmt.Errorf("input exceeds maximum size of %d bytes", loader.DefaultMaxFileSize)
	}

	doc, err := loader.DecodeDocument(data)
	if err != nil {
		return nil, "", fmt.Errorf("parsing input: %w", err)
	}
	return doc, base, nil
}

// encodeDocument marshals doc in the given format with a trailing newline.
func encodeDocument(doc any, format string) ([]byte, error) {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling to %s: %w", format, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	return fileutil.WriteFile(path, data)
}
