package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timetrack/config"
	"timetrack/output"
	"timetrack/storage"
)

var (
	exportFormat   string
	exportMode     string
	exportOutput   string
	exportDBPath   string
	exportUsername string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one owner's time entries from SQLite to CSV/Excel",
	Long: `Export stored time entries of one owner.

Modes:
- raw: one row per entry, using the same column names the importer reads
  (Username, Subject, Description, DateWorked, MinutesWorked, CreatedAt, UpdatedAt)
- daily: per-day totals (minutes, hours, entry and subject counts)

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export raw rows to CSV
  timetrack export --username alice --output ./alice.csv

  # Export raw rows to Excel
  timetrack export --username alice --output ./alice.xlsx

  # Export daily totals to CSV
  timetrack export --username alice --mode daily --output ./alice-daily.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = output.FormatForPath(exportOutput)
		}

		store, err := storage.OpenSQLite(resolveDBPath(exportDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := runExport(cmd.Context(), store, exportUsername, exportMode, format, exportOutput)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportUsername, "username", "u", "", "Owner whose entries are exported")
	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to local SQLite database (default: database.path)")

	_ = exportCmd.MarkFlagRequired("username")
	_ = exportCmd.MarkFlagRequired("output")
}

func runExport(ctx context.Context, store *storage.SQLiteStore, username, mode, format, path string) (string, error) {
	owner, found, err := store.FindOwnerByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("unknown username: %s", username)
	}

	entries, err := store.ListEntriesByOwner(ctx, owner.ID)
	if err != nil {
		return "", err
	}

	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "raw":
		writer, err := output.WriterForFormat(format)
		if err != nil {
			return "", err
		}
		if err := writer.Write(path, owner.Username, entries); err != nil {
			return "", err
		}
		return fmt.Sprintf("Export completed. Rows: %d, Mode: raw, Format: %s, File: %s", len(entries), format, path), nil
	case "daily":
		summaries := output.BuildDailySummaries(entries)
		if err := output.WriteDailySummaries(path, format, summaries); err != nil {
			return "", err
		}
		return fmt.Sprintf("Export completed. Days: %d, Mode: daily, Format: %s, File: %s", len(summaries), format, path), nil
	default:
		return "", fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", mode)
	}
}
