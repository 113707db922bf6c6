/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timetrack/config"
	"timetrack/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timetrack",
	Short: "Import, store, serve, and export time entries.",
	Long: `
**********************************************
*                TIMETRACK                   *
**********************************************

This CLI imports time entries from loosely structured spreadsheets (CSV, TSV, Excel)
into a local SQLite database, creating missing owners on the fly and skipping
rows that are invalid or already stored. It can run the same import over HTTP
and export stored entries back to CSV or Excel.

Supported input formats:
- CSV: .csv (UTF-8 or UTF-16 with BOM)
- TSV: .tsv
- Excel: .xlsx, .xlsm
`,
	Example: `
  # Create configuration file
  timetrack config create

  # Preview an import without writing anything
  timetrack import -i ./entries.csv --dry-run

  # Import with a fallback owner for files without a username column
  timetrack import -i ./entries.csv --username alice

  # Run the startup import configured via IMPORT_CSV / IMPORT_USERNAME / IMPORT_DRY_RUN
  timetrack import --from-env

  # Serve the HTTP import trigger
  timetrack serve --port 8080

  # Export one owner's entries
  timetrack export --username alice --output ./alice.csv
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.timetrack.yaml, then ./.timetrack.yaml)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	}
}

func requiresConfig(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	switch cmd.Name() {
	case "import", "serve", "export":
		return true
	default:
		return false
	}
}

// initConfig reads .env, the config file and ENV variables, then sets up
// logging from the result.
func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		logging.Logger().WithError(err).Warn("ignoring unreadable .env file")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".timetrack" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".timetrack")
	}

	// If a config file is found, read it in.
	readErr := viper.ReadInConfig()

	logging.Setup(viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFormat), os.Stderr)

	if readErr != nil {
		if cfgFile != "" || !isConfigNotFound(readErr) {
			logging.Logger().WithError(readErr).Warn("could not read config file")
			return
		}
		logging.Logger().Debug("no config file found, using defaults and environment")
	}
}

func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}
