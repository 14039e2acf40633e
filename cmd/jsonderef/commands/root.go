// Package commands provides the cobra command tree for jsonderef.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the jsonderef command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsonderef",
		Short: "Resolve $ref nodes in JSON Schema documents",
		Long: `jsonderef replaces every $ref in a JSON Schema document with the value it
points to and writes a self-contained copy.

Local references ("#/definitions/Pet") resolve within the document. External
references load files (JSON or YAML), .jsonnet files and registry:<name>
documents from a SQLite schema registry. Circular references are errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(newDerefCmd(), newMCPCmd(), newVersionCmd())
	return root
}

// newLogger writes to the command's stderr. Only errors are shown unless
// --verbose is set.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelError
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
