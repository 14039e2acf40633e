package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

const fileScheme = "file://"

// FileLoader loads YAML or JSON documents from the local filesystem.
// It handles plain paths and file:// URIs.
type FileLoader struct {
	// Root, when set, confines loading to files inside this directory.
	// Targets escaping it fail with a fatal path traversal error.
	Root string
	// MaxFileSize limits the size of a loaded file. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// NewFileLoader creates a FileLoader with default limits and no root.
func NewFileLoader() *FileLoader {
	return &FileLoader{MaxFileSize: DefaultMaxFileSize}
}

// Kind implements Loader.
func (l *FileLoader) Kind() string { return "file" }

// Match implements Loader.
func (l *FileLoader) Match(target string) bool {
	if target == "" {
		return false
	}
	if strings.HasPrefix(target, fileScheme) {
		return true
	}
	return !hasScheme(target)
}

// Locate implements Loader. Relative targets are joined onto base; the
// returned ID is the cleaned absolute path and Base is its directory.
func (l *FileLoader) Locate(target, base string) (Location, error) {
	return locateFile(l.Kind(), l.Root, target, base)
}

// Load implements Loader.
func (l *FileLoader) Load(loc Location) (any, error) {
	data, err := readFile(l.Kind(), loc.ID, l.MaxFileSize)
	if err != nil {
		return nil, err
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, &dereferrors.LoaderError{
			Kind:    l.Kind(),
			Target:  loc.ID,
			Message: "failed to parse external file",
			Cause:   err,
		}
	}
	return doc, nil
}

// locateFile resolves a file target against base and enforces root.
func locateFile(kind, root, target, base string) (Location, error) {
	path, err := filePath(target)
	if err != nil {
		return Location{}, &dereferrors.LoaderError{Kind: kind, Target: target, Message: "invalid file URI", Cause: err}
	}
	if !filepath.IsAbs(path) {
		if base == "" {
			base = "."
		}
		path = filepath.Join(base, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Location{}, &dereferrors.LoaderError{Kind: kind, Target: target, Message: "failed to resolve file path", Cause: err}
	}

	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return Location{}, &dereferrors.LoaderError{Kind: kind, Target: target, Message: "failed to resolve root directory", Cause: err}
		}
		// filepath.Rel also fails for paths on different volumes
		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return Location{}, &dereferrors.LoaderError{
				Kind:            kind,
				Target:          target,
				Fatal:           true,
				IsPathTraversal: true,
			}
		}
	}

	return Location{ID: absPath, Base: filepath.Dir(absPath)}, nil
}

// filePath strips the file:// scheme, decoding the URI path.
func filePath(target string) (string, error) {
	if !strings.HasPrefix(target, fileScheme) {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(u.Path), nil
}

// readFile reads path, mapping a missing file to ErrNotFound and enforcing maxSize.
// At most maxSize+1 bytes are read.
func readFile(kind, path string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(path)
		}
		return nil, &dereferrors.LoaderError{Kind: kind, Target: path, Message: "failed to read external file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, &dereferrors.LoaderError{Kind: kind, Target: path, Message: "failed to read external file", Cause: err}
	}
	if int64(len(data)) > maxSize {
		return nil, &dereferrors.LoaderError{
			Kind:    kind,
			Target:  path,
			Message: fmt.Sprintf("exceeds maximum size limit (%d bytes)", maxSize),
		}
	}
	return data, nil
}
