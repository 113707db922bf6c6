package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage timetrack configuration file values.",
	Long: `Create, edit, display, and delete the timetrack configuration file.

The configuration stores application-wide values:
- database.path
- server.port / server.import_dir
- import.csv / import.username / import.dry_run (startup import)
- log.level / log.format

Every value can be overridden from the environment (DB_PATH, SERVER_PORT,
IMPORT_DIR, IMPORT_CSV, IMPORT_USERNAME, IMPORT_DRY_RUN, LOG_LEVEL, LOG_FORMAT)
or from a .env file in the working directory.`,
	Example: `
  # Create default config in $HOME/.timetrack.yaml
  timetrack config create

  # Show active config and source file
  timetrack config show

  # Open active config in editor (creates example if missing)
  timetrack config edit

  # Delete active config file
  timetrack config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
