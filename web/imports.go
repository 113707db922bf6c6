package web

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"timetrack/config"
	"timetrack/importer"
	"timetrack/internal/logging"
)

const maxUploadBytes = 32 << 20

var errOutsideImportDir = errors.New("filename resolves outside the import directory")

type importResponse struct {
	File                string `json:"file"`
	Imported            int    `json:"imported"`
	Skipped             int    `json:"skipped"`
	Errors              int    `json:"errors"`
	SyncedUpdatedAtRows int    `json:"syncedUpdatedAtRows"`
	DryRun              bool   `json:"dryRun"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// handleImportFile imports a file that already sits in the import directory.
func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filename := query.Get("filename")
	if strings.TrimSpace(filename) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing filename",
			Message: "Query parameter filename is required",
		})
		return
	}

	candidate, err := resolveImportPath(s.importDir, filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid filename",
			Message: "Filename must not contain path separators",
		})
		return
	}

	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "File not found", Path: candidate})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Import failed", Message: err.Error()})
		return
	}

	s.runImport(w, r, candidate, candidate)
}

// handleImportUpload imports a multipart "file" upload through a temp file.
func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid upload", Message: err.Error()})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid upload", Message: "missing file upload"})
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", tempUploadPattern(header.Filename))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Import failed", Message: fmt.Sprintf("create temp upload: %v", err)})
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Import failed", Message: fmt.Sprintf("save upload: %v", err)})
		return
	}
	if err := tmp.Close(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Import failed", Message: fmt.Sprintf("close upload temp file: %v", err)})
		return
	}

	s.runImport(w, r, tmpPath, filepath.Base(header.Filename))
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, path, reported string) {
	username := r.FormValue("username")
	dryRun := config.IsTruthy(r.FormValue("dryRun"))

	result, err := s.engine.Run(r.Context(), importer.Options{
		Path:            path,
		DefaultUsername: username,
		DryRun:          dryRun,
	})
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("CSV import failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Import failed", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		File:                reported,
		Imported:            result.Imported,
		Skipped:             result.Skipped,
		Errors:              result.Errors,
		SyncedUpdatedAtRows: result.SyncedUpdatedAtRows,
		DryRun:              dryRun,
	})
}

// resolveImportPath joins filename onto baseDir and rejects anything that
// lands outside it. Absolute filenames are taken as they are.
func resolveImportPath(baseDir, filename string) (string, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve import dir: %w", err)
	}

	candidate := filepath.Clean(filename)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(base, candidate)
	}

	rel, err := filepath.Rel(base, candidate)
	if err != nil {
		return "", errOutsideImportDir
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideImportDir
	}
	return candidate, nil
}

func tempUploadPattern(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "upload-*"
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "upload"
	}
	if ext == "" {
		return stem + "-*"
	}
	return stem + "-*" + ext
}
