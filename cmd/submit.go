// File: cmd/submit.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lister-cli/internal/browser"
	"github.com/xkilldash9x/lister-cli/internal/plan"
	"github.com/xkilldash9x/lister-cli/internal/submitter"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Fill and submit discovered forms",
	Long: `Submit runs every discovered target through the policy gates (captcha,
login wall, paid listing), matches its fields against the product profile,
fills the form, and clicks submit. A process-wide rate ceiling applies on
top of the worker pool. Targets the engine is unsure about are deferred to
the manual queue instead of guessed at.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStores()

		profile, err := plan.LoadProfile(appCfg.Profile.Path)
		if err != nil {
			return err
		}

		mgr := browser.NewManager(cmd.Context(), appCfg.Browser, st.logger)
		defer mgr.Shutdown()

		s := submitter.New(appCfg.Submit, appCfg.Matcher, appCfg.Stores.AutosaveEvery, mgr, st.logger)
		_, err = s.Run(cmd.Context(), st.catalog, st.plan, profile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
