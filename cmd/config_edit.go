package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timetrack/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active timetrack config file in your editor.

Editor selection order:
1) $VISUAL
2) $EDITOR
3) vi

If no config file exists yet, the example template is written first. After the
editor exits, the file is validated and the resulting import settings are
printed: whether "timetrack serve" runs a startup import, which directory the
HTTP trigger reads from, and which IMPORT_* variables currently override the
file.`,
	Example: `
  # Edit active config
  timetrack config edit

  # Edit with a specific editor
  EDITOR="code --wait" timetrack config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "No config file found. Created example config at: %s\n", configPath)
		}

		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		return editConfigFile(out, configPath, editor, os.LookupEnv)
	},
}

// editConfigFile runs the editor on configPath, then validates the result
// and reports the import settings it activates.
func editConfigFile(out io.Writer, configPath, editor string, lookupEnv func(string) (string, bool)) error {
	editorCommand, err := buildEditorCommand(editor, configPath)
	if err != nil {
		return err
	}
	editorCommand.Stdin = os.Stdin
	editorCommand.Stdout = os.Stdout
	editorCommand.Stderr = os.Stderr
	if err := editorCommand.Run(); err != nil {
		return fmt.Errorf("opening editor failed: %w", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading edited config failed: %w", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return fmt.Errorf("config validation failed in %s: %w", configPath, err)
	}

	fmt.Fprintf(out, "Configuration saved and validated: %s\n", configPath)
	describeImportSettings(out, cfg, lookupEnv)
	return nil
}

// describeImportSettings prints what the import triggers will do with cfg
// and names every IMPORT_* variable that overrides a file value.
func describeImportSettings(out io.Writer, cfg *config.Config, lookupEnv func(string) (string, bool)) {
	if strings.TrimSpace(cfg.Import.CSV) == "" {
		fmt.Fprintln(out, "Startup import: disabled (import.csv is empty)")
	} else {
		username := cfg.Import.Username
		if strings.TrimSpace(username) == "" {
			username = "<per row>"
		}
		dryRun := "off"
		if cfg.Import.DryRunEnabled() {
			dryRun = "on"
		}
		fmt.Fprintf(out, "Startup import: enabled (import.csv=%s import.username=%s import.dry_run=%s)\n",
			cfg.Import.CSV, username, dryRun)
	}
	fmt.Fprintf(out, "HTTP imports read from: %s\n", cfg.Server.ImportDir)

	if lookupEnv == nil {
		return
	}
	for _, key := range []string{config.KeyImportCSV, config.KeyImportUsername, config.KeyImportDryRun, config.KeyServerImportDir} {
		name := config.EnvVar(key)
		if value, ok := lookupEnv(name); ok {
			fmt.Fprintf(out, "Override: %s=%q replaces %s\n", name, value, key)
		}
	}
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".timetrack.yaml"), nil
}

// ensureConfigFileWithTemplate writes config.ExampleYAML to path unless a
// file already exists there.
func ensureConfigFileWithTemplate(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}

	return true, nil
}

func resolveEditorValue(visual, editor string) string {
	if strings.TrimSpace(visual) != "" {
		return visual
	}
	if strings.TrimSpace(editor) != "" {
		return editor
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}

	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
