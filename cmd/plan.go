// File: cmd/plan.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build the submission plan from the catalog",
	Long: `Plan creates one submission target per live catalog record with a known
submission page, assigning copy variants from the profile pool by
deterministic round robin. The build is additive: existing targets keep
their status and copy across reruns, so the plan is crash-resumable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStores()

		profile, err := plan.LoadProfile(appCfg.Profile.Path)
		if err != nil {
			return err
		}
		if len(profile.Copies) == 0 {
			return fmt.Errorf("profile %s has no copy variants; run the onboarding flow first", appCfg.Profile.Path)
		}

		records, err := st.catalog.Load()
		if err != nil {
			return err
		}
		existing, err := st.plan.Load()
		if err != nil {
			return err
		}

		targets, err := plan.Build(records, existing, profile.Copies)
		if err != nil {
			return err
		}
		if err := st.plan.Save(targets); err != nil {
			return err
		}

		st.logger.Info("Plan built",
			zap.Int("targets", len(targets)),
			zap.Int("added", len(targets)-len(existing)),
			zap.Int("copy_variants", len(profile.Copies)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
