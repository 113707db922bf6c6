package output

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"timetrack/importer"
	"timetrack/storage"
	"timetrack/worklog"
)

func sampleEntries() []worklog.Entry {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return []worklog.Entry{
		{
			Subject:       "Report",
			Description:   "Quarterly, final",
			DateWorked:    day(2024, 5, 1),
			MinutesWorked: 90,
			CreatedAt:     created,
			UpdatedAt:     created,
		},
		{
			Subject:       "Review",
			DateWorked:    day(2024, 5, 2),
			MinutesWorked: 30,
			CreatedAt:     created.Add(24 * time.Hour),
			UpdatedAt:     created.Add(26 * time.Hour),
		},
	}
}

func TestWriterForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: "csv"},
		{format: " CSV "},
		{format: "excel"},
		{format: "xlsx"},
		{format: "json", wantErr: true},
	}

	for _, tc := range tests {
		writer, err := WriterForFormat(tc.format)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("format %q: expected error", tc.format)
			}
			continue
		}
		if err != nil || writer == nil {
			t.Fatalf("format %q: unexpected error %v", tc.format, err)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	if got := FormatForPath("out.XLSX"); got != "excel" {
		t.Fatalf("expected excel, got %s", got)
	}
	if got := FormatForPath("out.csv"); got != "csv" {
		t.Fatalf("expected csv, got %s", got)
	}
	if got := FormatForPath("out"); got != "csv" {
		t.Fatalf("expected csv fallback, got %s", got)
	}
}

func TestCSVWriter_WritesImporterHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.csv")
	if err := (&CSVWriter{}).Write(path, "alice", sampleEntries()); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	for i, header := range EntryHeaders {
		if rows[0][i] != header {
			t.Fatalf("header %d: expected %q, got %q", i, header, rows[0][i])
		}
	}
	want := []string{"alice", "Report", "Quarterly, final", "2024-05-01", "90", "2024-05-01T08:00:00Z", "2024-05-01T08:00:00Z"}
	for i, value := range want {
		if rows[1][i] != value {
			t.Fatalf("column %d: expected %q, got %q", i, value, rows[1][i])
		}
	}
}

func TestExcelWriter_WritesImporterHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.xlsx")
	if err := (&ExcelWriter{}).Write(path, "alice", sampleEntries()); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Username" || rows[2][1] != "Review" || rows[2][4] != "30" {
		t.Fatalf("unexpected workbook rows: %v", rows)
	}
}

func TestCSVWriter_ExportReimportsAsDuplicates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.OpenSQLite(filepath.Join(dir, "timetrack_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	owner, err := store.CreateOwner(ctx, "alice", "hash")
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range sampleEntries() {
		entry.OwnerID = owner.ID
		if _, err := store.InsertEntry(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.ListEntriesByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "export.csv")
	if err := (&CSVWriter{}).Write(path, owner.Username, entries); err != nil {
		t.Fatal(err)
	}

	result, err := importer.NewEngine(store).Run(ctx, importer.Options{Path: path})
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 2 || result.Errors != 0 {
		t.Fatalf("expected every exported row to be a duplicate, got %+v", *result)
	}
}
