// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes schema dereferencing as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"database/sql"
	"log/slog"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	derefsync "github.com/jamesseanwright/json-schema-deref-sync"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

const serverInstructions = `jsonderef MCP server: resolves $ref nodes in JSON Schema documents and returns a self-contained copy.

Configuration: defaults are configurable via JSONDEREF_* environment variables set in your MCP client config.

Key settings:
- JSONDEREF_BASE_DIR (default: working directory) - base for relative refs in inline content
- JSONDEREF_FAIL_ON_MISSING (default: false) - make unresolvable refs an error by default
- JSONDEREF_MAX_REF_DEPTH (default: 100) - maximum nested $ref depth
- JSONDEREF_MAX_CACHED_DOCUMENTS (default: 100) - maximum external documents per call
- JSONDEREF_MAX_INLINE_SIZE (default: 10MiB) - maximum size of inline content
- JSONDEREF_FILE_ROOT - confine file and jsonnet refs to this directory
- JSONDEREF_REGISTRY - SQLite schema registry serving registry:<name> refs

Circular references are always reported as errors.`

// registryDB is the schema registry opened by Run, or nil.
var registryDB *sql.DB

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	if cfg.Registry != "" {
		db, err := loader.OpenRegistry(cfg.Registry)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		registryDB = db
		slog.Debug("opened schema registry", "path", cfg.Registry)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "jsonderef", Version: derefsync.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "deref",
		Description: "Dereference a JSON Schema document: replace every $ref with the value it points to, loading external files, .jsonnet files and registry:<name> documents as needed. Provide exactly one of file or content. Returns the dereferenced document, the list of references that could not be resolved, and resolution stats. Use strict=true to fail on unresolvable references. Use format=yaml to receive the document as YAML text.",
	}, handleDeref)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
