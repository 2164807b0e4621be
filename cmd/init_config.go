package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qualitygate/quality-gate/internal/config"
)

const defaultConfigFile = ".qualitygate.yaml"

var forceInit bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a config file with the default thresholds",
	Long: `Write the default configuration to .qualitygate.yaml in the current
directory, or to the path given with --config, so thresholds and report
limits can be tuned per project.`,
	Args: cobra.NoArgs,
	RunE: runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigFile
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	printSystemTo(cmd.OutOrStdout(), "Config written to: %s", path)
	return nil
}
