package importer

import (
	"strings"
)

// Column aliases per logical field, in lookup order. Keys are already
// normalized with NormalizeHeader.
var (
	OwnerAliases       = []string{"username", "user", "email"}
	SubjectAliases     = []string{"subject", "title", "betreff", "task"}
	DescriptionAliases = []string{"description", "desc", "beschreibung", "notes", "note"}
	DateAliases        = []string{"dateworked", "date", "workdate", "datum", "day"}
	MinutesAliases     = []string{"minutesworked", "minutes", "duration", "dauer", "mins", "zeitmin"}
	CreatedAliases     = []string{"createdat", "created", "erstelltam"}
	UpdatedAliases     = []string{"updatedat", "lastupdated", "modified", "geaendertam"}
)

// Record is one data row keyed by normalized header.
type Record struct {
	RowNumber int
	Values    map[string]string
}

// FirstNonBlank returns the trimmed value of the first key that is present
// and not blank. Keys are normalized before lookup, so raw header spellings
// work as well.
func (r Record) FirstNonBlank(keys ...string) (string, bool) {
	for _, key := range keys {
		value, ok := r.Values[NormalizeHeader(key)]
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}

// Get is FirstNonBlank without the presence flag.
func (r Record) Get(keys ...string) string {
	value, _ := r.FirstNonBlank(keys...)
	return value
}

// NormalizeHeader lower-cases input and drops everything that is not an
// ASCII letter or digit, so "Date Worked", "date_worked" and "DATE-WORKED"
// all become "dateworked".
func NormalizeHeader(input string) string {
	lowered := strings.ToLower(input)
	var b strings.Builder
	b.Grow(len(lowered))
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func normalizeHeaders(headers []string) []string {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = NormalizeHeader(header)
	}
	return normalized
}

// newRecord zips normalized headers with one row of cells. Missing trailing
// cells become empty strings. When two columns normalize to the same key the
// left-most non-blank cell wins.
func newRecord(rowNumber int, headers, row []string) Record {
	values := make(map[string]string, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if existing, ok := values[header]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		values[header] = value
	}
	return Record{RowNumber: rowNumber, Values: values}
}
