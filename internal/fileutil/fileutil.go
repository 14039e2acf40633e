// Package fileutil holds file helpers shared by the command line tools.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// OwnerReadWrite is the file permission mode for dereferenced output
// files, which may embed private schema content (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// WriteFile writes data to path with OwnerReadWrite permissions.
// Existing symlinks and directories at path are refused.
func WriteFile(path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	info, err := os.Lstat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("checking output path: %w", err)
	case info.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("refusing to write output through symlink %s", abs)
	case info.IsDir():
		return fmt.Errorf("output path %s is a directory", abs)
	}

	if err := os.WriteFile(abs, data, OwnerReadWrite); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
