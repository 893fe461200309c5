// File: cmd/verify.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lister-cli/internal/browser"
	"github.com/xkilldash9x/lister-cli/internal/verifier"
)

var recheckUnknown bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-probe queued records with a headless browser",
	Long: `Verify renders each queued record in headless Chrome and re-runs the
signal scan on the fully rendered DOM, resolving sites whose markup is
assembled client-side. With --recheck-unknown it instead sweeps the whole
catalog for live records with an unknown auth gate and probes them more
deeply (longer settle, rendered button labels).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStores()

		mgr := browser.NewManager(cmd.Context(), appCfg.Browser, st.logger)
		defer mgr.Shutdown()

		v := verifier.New(appCfg.Verifier, appCfg.Stores.AutosaveEvery, mgr, st.logger)
		var err error
		if recheckUnknown {
			_, err = v.RunRecheck(cmd.Context(), st.catalog)
		} else {
			_, err = v.Run(cmd.Context(), st.catalog, st.queue)
		}
		return err
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&recheckUnknown, "recheck-unknown", false,
		"sweep the catalog for active records with unknown auth instead of the queue")
	rootCmd.AddCommand(verifyCmd)
}
