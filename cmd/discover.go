// File: cmd/discover.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lister-cli/internal/browser"
	"github.com/xkilldash9x/lister-cli/internal/discoverer"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover submission forms for pending plan targets",
	Long: `Discover renders each pending target's submission page and extracts its
forms and fields with stable CSS selectors. Discovery only reads the page;
nothing is filled or clicked. Field lists are replaced wholesale on each
visit because pages change between runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStores()

		mgr := browser.NewManager(cmd.Context(), appCfg.Browser, st.logger)
		defer mgr.Shutdown()

		d := discoverer.New(appCfg.Discovery, appCfg.Stores.AutosaveEvery, mgr, st.logger)
		_, err := d.Run(cmd.Context(), st.plan)
		return err
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
