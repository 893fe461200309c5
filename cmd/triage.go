// File: cmd/triage.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lister-cli/internal/triage"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Partition the catalog and refresh the browser-check queue",
	Long: `Triage splits classified records into terminal failures (kept in the
catalog for audit) and the ambiguous remainder, which it merges into the
browser-check queue for the verify stage. The merge is additive: queued
entries survive until their record resolves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStores()
		_, err := triage.Run(cmd.Context(), st.catalog, st.queue, st.logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(triageCmd)
}
