package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by timetrack.

Only the YAML file is removed. The SQLite database stays in place (see
"timetrack delete"), and environment overrides such as DB_PATH or IMPORT_CSV
keep applying. If no configuration file is active, the command returns an
error.`,
	Example: `
  # Delete active config
  timetrack config delete

  # Delete config at a custom path
  timetrack --configFile ./custom-timetrack.yaml config delete
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteConfigFile(cmd.OutOrStdout(), viper.ConfigFileUsed())
	},
}

func deleteConfigFile(out io.Writer, configPath string) error {
	if configPath == "" {
		return fmt.Errorf("no configuration file found")
	}

	if err := os.Remove(configPath); err != nil {
		return fmt.Errorf("error deleting configuration file: %w", err)
	}

	fmt.Fprintf(out, "Configuration file successfully deleted: %s\n", configPath)
	return nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}
