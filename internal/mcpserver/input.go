package mcpserver

import (
	"errors"
	"fmt"

	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

// docInput represents the two ways a schema can be provided to a tool.
// Exactly one of File or Content must be set.
type docInput struct {
	File    string
	Content string
}

// load decodes the document and returns it with the directory its relative
// references resolve against. The directory is empty for inline content
// unless JSONDEREF_BASE_DIR is set.
func (s docInput) load() (any, string, error) {
	count := 0
	if s.File != "" {
		count++
	}
	if s.Content != "" {
		count++
	}
	if count != 1 {
		return nil, "", fmt.Errorf("exactly one of file or content must be provided (got %d)", count)
	}

	if s.Content != "" {
		if int64(len(s.Content)) > cfg.MaxInlineSize {
			return nil, "", fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set JSONDEREF_MAX_INLINE_SIZE to increase",
				len(s.Content), cfg.MaxInlineSize)
		}
		doc, err := loader.DecodeDocument([]byte(s.Content))
		if err != nil {
			return nil, "", fmt.Errorf("parsing content: %w", err)
		}
		return doc, cfg.BaseDir, nil
	}

	files := &loader.FileLoader{Root: cfg.FileRoot, MaxFileSize: loader.DefaultMaxFileSize}
	loc, err := files.Locate(s.File, cfg.BaseDir)
	if err != nil {
		return nil, "", err
	}
	doc, err := files.Load(loc)
	if errors.Is(err, loader.ErrNotFound) {
		return nil, "", fmt.Errorf("file not found: %s", s.File)
	}
	if err != nil {
		return nil, "", err
	}
	return doc, loc.Base, nil
}
