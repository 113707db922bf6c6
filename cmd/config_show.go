package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timetrack/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Values coming
from the environment are shown as well.`,
	Example: `
  # Show active configuration
  timetrack config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		writeConfigSummary(os.Stdout, viper.ConfigFileUsed(), cfg)
	},
}

func writeConfigSummary(w io.Writer, configPath string, cfg *config.Config) {
	if configPath != "" {
		fmt.Fprintln(w, "Config file loaded from:", configPath)
	} else {
		fmt.Fprintln(w, "No config file loaded, using defaults and environment.")
	}
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "%s: %s\n", config.KeyDatabasePath, cfg.Database.Path)
	fmt.Fprintf(w, "%s: %d\n", config.KeyServerPort, cfg.Server.Port)
	fmt.Fprintf(w, "%s: %s\n", config.KeyServerImportDir, cfg.Server.ImportDir)
	fmt.Fprintf(w, "%s: %s\n", config.KeyImportCSV, cfg.Import.CSV)
	fmt.Fprintf(w, "%s: %s\n", config.KeyImportUsername, cfg.Import.Username)
	fmt.Fprintf(w, "%s: %t\n", config.KeyImportDryRun, cfg.Import.DryRunEnabled())
	fmt.Fprintf(w, "%s: %s\n", config.KeyLogLevel, cfg.Log.Level)
	fmt.Fprintf(w, "%s: %s\n", config.KeyLogFormat, cfg.Log.Format)
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
