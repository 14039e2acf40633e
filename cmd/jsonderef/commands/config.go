package commands

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = ".jsonderef.toml"

// fileConfig holds deref settings from a TOML file. Command line flags
// override it.
type fileConfig struct {
	BaseDir                   string `toml:"base_dir"`
	FailOnMissing             bool   `toml:"fail_on_missing"`
	MergeAdditionalProperties bool   `toml:"merge_additional_properties"`
	RemoveIDs                 bool   `toml:"remove_ids"`
	MaxRefDepth               int    `toml:"max_ref_depth"`
	MaxCachedDocuments        int    `toml:"max_cached_documents"`
	FileRoot                  string `toml:"file_root"`
	Registry                  string `toml:"registry"`
}

// loadConfigFile reads path. A missing file is an error only when the path
// was given explicitly. Relative paths in the file resolve against its directory.
func loadConfigFile(path string, explicit bool) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, &dereferrors.ConfigError{Option: "config", Value: path, Message: "cannot read config file", Cause: err}
	}

	var c fileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, &dereferrors.ConfigError{Option: "config", Value: path, Message: "invalid TOML", Cause: err}
	}

	dir := filepath.Dir(path)
	c.BaseDir = relativeTo(dir, c.BaseDir)
	c.FileRoot = relativeTo(dir, c.FileRoot)
	if c.Registry != ":memory:" {
		c.Registry = relativeTo(dir, c.Registry)
	}
	return &c, nil
}

func relativeTo(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
