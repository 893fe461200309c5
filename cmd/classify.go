// File: cmd/classify.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lister-cli/internal/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify every catalog record over plain HTTP",
	Long: `Classify probes each directory in the catalog with a cheap HTTP GET and
assigns preliminary liveness, auth, captcha, and pricing attributes.
Anything it cannot resolve is left unknown for the verify stage. The pass
is idempotent: rerunning reclassifies rather than accumulates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStores()
		c := classifier.New(appCfg.Classifier, st.logger)
		_, err := c.Run(cmd.Context(), st.catalog)
		return err
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
