package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

The template stores the database at ./timetrack.db, serves HTTP imports from
/app/imports and leaves the startup import disabled. If a configuration file is
already in use, no new file is written.`,
	Example: `
  # Create default config at $HOME/.timetrack.yaml
  timetrack config create

  # Create config at a custom path
  timetrack --configFile ./timetrack.yaml config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig(cmd.OutOrStdout())
	},
}

func saveDefaultConfig(out io.Writer) error {
	configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		return err
	}

	if !created {
		fmt.Fprintf(out, "Config file already exists at: %s\n", configPath)
		return nil
	}

	fmt.Fprintf(out, "New config file created at: %s\n", configPath)
	fmt.Fprintln(out, "Set import.csv to run a startup import on \"timetrack serve\".")
	return nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
}
