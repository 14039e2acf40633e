package commands

import (
	"github.com/spf13/cobra"

	"github.com/jamesseanwright/json-schema-deref-sync/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server for AI assistant integration.

The server communicates over stdio and exposes a single "deref" tool.
Defaults are read from JSONDEREF_* environment variables.

MCP client configuration:
  {
    "mcpServers": {
      "jsonderef": {
        "command": "/path/to/jsonderef",
        "args": ["mcp"],
        "env": {"JSONDEREF_FILE_ROOT": "/path/to/schemas"}
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mcpserver.Run(cmd.Context())
		},
	}
}
