package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/jamesseanwright/json-schema-deref-sync/deref"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Engine defaults.
	BaseDir            string
	FailOnMissing      bool
	MaxRefDepth        int
	MaxCachedDocuments int

	// Input limits.
	MaxInlineSize int64

	// Loader settings.
	FileRoot string
	Registry string
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from JSONDEREF_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		BaseDir:            os.Getenv("JSONDEREF_BASE_DIR"),
		FailOnMissing:      envBool("JSONDEREF_FAIL_ON_MISSING", false),
		MaxRefDepth:        envInt("JSONDEREF_MAX_REF_DEPTH", deref.DefaultMaxRefDepth),
		MaxCachedDocuments: envInt("JSONDEREF_MAX_CACHED_DOCUMENTS", deref.DefaultMaxCachedDocuments),
		MaxInlineSize:      int64(envInt("JSONDEREF_MAX_INLINE_SIZE", loader.DefaultMaxFileSize)),
		FileRoot:           os.Getenv("JSONDEREF_FILE_ROOT"),
		Registry:           os.Getenv("JSONDEREF_REGISTRY"),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}
