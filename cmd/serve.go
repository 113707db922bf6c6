package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"timetrack/config"
	"timetrack/importer"
	"timetrack/internal/logging"
	"timetrack/storage"
	"timetrack/web"
)

var (
	servePort      int
	serveDBPath    string
	serveImportDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP import trigger",
	Long: `Start an HTTP server exposing the import engine.

Endpoints:
- POST /api/imports/time-entries?filename=&username=&dryRun=  import a file from the import directory
- POST /api/imports/uploads                                    import a multipart "file" upload
- GET  /healthz                                                liveness probe
- GET  /metrics                                                prometheus metrics

When import.csv (env IMPORT_CSV) is set, that file is imported once right after
the server starts listening. A failing startup import is logged and the server
keeps running.`,
	Example: `
  # Start server on the configured port
  timetrack serve

  # Start with explicit port, database and import directory
  timetrack serve --port 9090 --db ./timetrack.db --import-dir ./imports

  # Dry-run a seed file on startup
  IMPORT_CSV=./imports/seed.csv IMPORT_DRY_RUN=true timetrack serve
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		store, err := storage.OpenSQLite(resolveDBPath(serveDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		engine := importer.NewEngine(store)
		port := resolveServePort(servePort, cfg)
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           web.NewServer(engine, resolveImportDir(serveImportDir, cfg)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		log := logging.Logger()
		log.Infof("Listening on http://localhost:%d", port)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runStartupImport(ctx, engine, cfg.Import)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			log.Info("Server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default: server.port)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to local SQLite database (default: database.path)")
	serveCmd.Flags().StringVar(&serveImportDir, "import-dir", "", "Directory the file trigger reads from (default: server.import_dir)")
}

// runStartupImport imports import.csv once when it is set. Failures are
// logged and never stop the caller.
func runStartupImport(ctx context.Context, engine web.Importer, cfg config.ImportConfig) *importer.Result {
	path := strings.TrimSpace(cfg.CSV)
	if path == "" {
		return nil
	}

	log := logging.FromContext(ctx).WithField("file", path)
	dryRun := cfg.DryRunEnabled()

	result, err := engine.Run(ctx, importer.Options{
		Path:            path,
		DefaultUsername: cfg.Username,
		DryRun:          dryRun,
	})
	if err != nil {
		log.WithError(err).Error("CSV import failed")
		return nil
	}

	log.Info(formatImportSummary(result, dryRun))
	return result
}

func resolveServePort(flagValue int, cfg *config.Config) int {
	if flagValue > 0 {
		return flagValue
	}
	return cfg.Server.Port
}

func resolveImportDir(flagValue string, cfg *config.Config) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.Server.ImportDir
}
