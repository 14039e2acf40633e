package commands

import (
	"github.com/spf13/cobra"

	derefsync "github.com/jamesseanwright/json-schema-deref-sync"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("jsonderef %s (commit %s, built %s)\n",
				derefsync.Version(), derefsync.Commit(), derefsync.BuildTime())
		},
	}
}
