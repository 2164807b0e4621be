package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qualitygate/quality-gate/internal/logging"
)

// Version can be set at build time using ldflags
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "quality-gate",
	Short: "Flag code-quality regressions in changed files",
	Long: `Quality Gate measures cyclomatic complexity and maintainability index
for changed (or all tracked) source files, compares them with the last saved
baseline and writes a Markdown report flagging regressions.

Examples:
  quality-gate                 # check unstaged changes
  quality-gate --staged        # check staged changes
  quality-gate --all           # audit every tracked file
  quality-gate --save          # save a new baseline`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logging.Init(verbose)
	},
	RunE: runGate,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is .qualitygate.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose diagnostics")

	rootCmd.Flags().BoolVar(&stagedOnly, "staged", false, "analyze staged changes only (implies --check)")
	rootCmd.Flags().BoolVar(&saveBaseline, "save", false, "save current metrics as the history baseline")
	rootCmd.Flags().BoolVar(&checkHistory, "check", false, "compare against history and check thresholds")
	rootCmd.Flags().BoolVar(&auditAll, "all", false, "analyze all tracked files (audit mode, implies --check)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quality-gate version %s\n", Version)
		},
	})
}
