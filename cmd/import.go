package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timetrack/config"
	"timetrack/importer"
	"timetrack/storage"
)

var (
	importInput    string
	importFormat   string
	importUsername string
	importDryRun   string
	importDBPath   string
	importFromEnv  bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import time entries from a CSV/TSV/Excel file into SQLite",
	Long: `Read one source file, map each row by header name, and persist valid entries in SQLite.

Headers are matched case- and punctuation-insensitively against known aliases
(username/user/email, subject/title/betreff/task, dateWorked/date/datum, ...).
Rows with missing or invalid data are skipped, rows already stored for the same
owner, subject, day and minutes are skipped as duplicates. Missing owners are
created with a placeholder credential.

When --format is omitted, format is inferred from the file extension.
With --from-env the file, fallback username and dry-run toggle are taken from
import.csv / import.username / import.dry_run (env IMPORT_CSV, IMPORT_USERNAME,
IMPORT_DRY_RUN).`,
	Example: `
  # Import a CSV file
  timetrack import -i ./entries.csv

  # Use a fallback owner for files without a username column
  timetrack import -i ./entries.csv --username alice

  # Preview the run without writing anything
  timetrack import -i ./entries.xlsx --dry-run

  # Run the configured startup import once
  IMPORT_CSV=/app/imports/seed.csv IMPORT_DRY_RUN=yes timetrack import --from-env

  # Import with custom config file and database
  timetrack --configFile ./custom-timetrack.yaml import -i ./entries.tsv --db ./timetrack.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		opts, err := resolveImportOptions(importInput, importFormat, importUsername, importDryRun, importFromEnv, cfg.Import)
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(resolveDBPath(importDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := importer.NewEngine(store).Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Println(formatImportSummary(result, opts.DryRun))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input file path")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|tsv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().StringVarP(&importUsername, "username", "u", "", "Fallback owner for rows without a username")
	importCmd.Flags().StringVar(&importDryRun, "dry-run", "auto", "Dry-run mode: auto|on|off (auto uses import.dry_run)")
	importCmd.Flags().Lookup("dry-run").NoOptDefVal = "on"
	importCmd.Flags().StringVar(&importDBPath, "db", "", "Path to local SQLite database (default: database.path)")
	importCmd.Flags().BoolVar(&importFromEnv, "from-env", false, "Take file, username and dry-run from import.* config / IMPORT_* env")
}

func resolveImportOptions(input, format, username, dryRunMode string, fromEnv bool, cfg config.ImportConfig) (importer.Options, error) {
	path := strings.TrimSpace(input)
	if fromEnv {
		if path != "" {
			return importer.Options{}, fmt.Errorf("--input and --from-env are mutually exclusive")
		}
		path = strings.TrimSpace(cfg.CSV)
		if path == "" {
			return importer.Options{}, fmt.Errorf("no startup import configured: set import.csv or IMPORT_CSV")
		}
		if strings.TrimSpace(username) == "" {
			username = cfg.Username
		}
	}
	if path == "" {
		return importer.Options{}, fmt.Errorf("missing input file: pass --input or use --from-env")
	}

	dryRun, err := resolveDryRunMode(dryRunMode, cfg.DryRunEnabled())
	if err != nil {
		return importer.Options{}, err
	}

	return importer.Options{
		Path:            path,
		Format:          format,
		DefaultUsername: username,
		DryRun:          dryRun,
	}, nil
}

func resolveDryRunMode(mode string, configDefault bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return configDefault, nil
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid dry-run mode %q (supported: auto|on|off)", mode)
	}
}

func resolveDBPath(flagValue string, cfg *config.Config) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.Database.Path
}

func formatImportSummary(result *importer.Result, dryRun bool) string {
	mode := ""
	if dryRun {
		mode = " (dry-run)"
	}
	return fmt.Sprintf("CSV import finished%s: imported=%d skipped=%d errors=%d synced=%d",
		mode,
		result.Imported,
		result.Skipped,
		result.Errors,
		result.SyncedUpdatedAtRows,
	)
}
