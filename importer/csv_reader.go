package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVSource reads delimited text with a header line. UTF-8 and UTF-16 input
// with a byte order mark is decoded transparently.
type CSVSource struct {
	file  *os.File
	comma rune
}

func openCSV(path string, comma rune) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %s: %w", path, err)
	}
	return &CSVSource{file: file, comma: comma}, nil
}

func (s *CSVSource) Close() error {
	return s.file.Close()
}

func (s *CSVSource) Rows() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		reader := csv.NewReader(transform.NewReader(s.file, decoder))
		reader.Comma = s.comma
		reader.FieldsPerRecord = -1

		headers, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(Record{}, fmt.Errorf("read csv header: %w", err))
			return
		}
		normalizedHeaders := normalizeHeaders(headers)

		for {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, fmt.Errorf("read csv row: %w", err))
				return
			}

			line, _ := reader.FieldPos(0)
			if !yield(newRecord(line, normalizedHeaders, row), nil) {
				return
			}
		}
	}
}
