package importer

import (
	"fmt"
	"iter"

	"github.com/xuri/excelize/v2"
)

// ExcelSource streams the first sheet of a workbook. Row one holds the
// headers.
type ExcelSource struct {
	file  *excelize.File
	sheet string
}

func openExcel(path string) (*ExcelSource, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		_ = file.Close()
		return nil, fmt.Errorf("excel file has no sheets: %s", path)
	}

	return &ExcelSource{file: file, sheet: sheetName}, nil
}

func (s *ExcelSource) Close() error {
	return s.file.Close()
}

func (s *ExcelSource) Rows() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		rows, err := s.file.Rows(s.sheet)
		if err != nil {
			yield(Record{}, fmt.Errorf("read rows from sheet %s: %w", s.sheet, err))
			return
		}
		defer rows.Close()

		if !rows.Next() {
			if err := rows.Error(); err != nil {
				yield(Record{}, fmt.Errorf("read excel header: %w", err))
			}
			return
		}
		headers, err := rows.Columns()
		if err != nil {
			yield(Record{}, fmt.Errorf("read excel header: %w", err))
			return
		}
		normalizedHeaders := normalizeHeaders(headers)

		rowNumber := 1
		for rows.Next() {
			rowNumber++
			cells, err := rows.Columns()
			if err != nil {
				yield(Record{}, fmt.Errorf("read excel row %d: %w", rowNumber, err))
				return
			}
			if !yield(newRecord(rowNumber, normalizedHeaders, cells), nil) {
				return
			}
		}
		if err := rows.Error(); err != nil {
			yield(Record{}, fmt.Errorf("read excel rows: %w", err))
		}
	}
}
