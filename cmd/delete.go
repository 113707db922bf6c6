package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timetrack/config"
)

var (
	deleteDBPath string
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the complete SQLite database file",
	Long: `Destructive database cleanup command.

This command always deletes the complete SQLite database file.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the complete SQLite file (requires interactive confirmation)
  timetrack delete --db ./timetrack.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveDeletePath(deleteDBPath)

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, path)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if err := removeDatabaseFile(path); err != nil {
			return err
		}
		fmt.Printf("Deleted database file: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "Path to local SQLite database (default: database.path)")
}

// resolveDeletePath prefers the --db flag and falls back to database.path.
func resolveDeletePath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return viper.GetString(config.KeyDatabasePath)
}

func confirmDeletePrompt(input io.Reader, output io.Writer, path string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete database file %q? Type Y to confirm: ", path); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}
