// Package contacts loads recipient lists from uploaded CSV or spreadsheet
// files and normalizes them into a fixed set of columns.
package contacts

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Contact is one recipient row. Rows are immutable after loading.
type Contact struct {
	AgencyName string `json:"agency_name"`
	Email      string `json:"email"`
	City       string `json:"city"`
	Website    string `json:"website"`
	Notes      string `json:"notes"`
}

// fieldAgencyName and friends identify normalized columns during header mapping.
const (
	fieldAgencyName = "AgencyName"
	fieldEmail      = "Email"
	fieldCity       = "City"
	fieldWebsite    = "Website"
	fieldNotes      = "Notes"
)

// Load parses an uploaded contact list. The filename's extension selects the
// format: ".csv" is read as comma-separated text, ".xlsx" and ".xlsm" as a
// spreadsheet (first sheet). A malformed file yields an error and no rows.
func Load(r io.Reader, filename string) ([]Contact, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(r)
	case ".xlsx", ".xlsm":
		return LoadSpreadsheet(r)
	case ".xls":
		return nil, fmt.Errorf("contacts: legacy .xls format is not supported, save as .xlsx or .csv")
	default:
		return nil, fmt.Errorf("contacts: unsupported file type %q", filepath.Ext(filename))
	}
}

// LoadCSV parses comma-separated input. The first record is the header row.
func LoadCSV(r io.Reader) ([]Contact, error) {
	reader := csv.NewReader(r)
	// Hand-maintained lists often have ragged rows; missing cells read as
	// empty rather than failing the whole file.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("contacts: parse csv: %w", err)
	}
	return fromRecords(records)
}

// LoadSpreadsheet parses the first sheet of an xlsx workbook.
func LoadSpreadsheet(r io.Reader) ([]Contact, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("contacts: open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("contacts: spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("contacts: read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

// fromRecords maps raw header+rows into normalized contacts, dropping rows
// without an email address.
func fromRecords(records [][]string) ([]Contact, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("contacts: file is empty")
	}

	mapping := mapHeader(records[0])
	if _, ok := mapping[fieldEmail]; !ok {
		// Without an email column every row would be dropped; treat it
		// as a malformed file so the caller can report it.
		return nil, fmt.Errorf("contacts: no email column found in header")
	}

	out := make([]Contact, 0, len(records)-1)
	for _, rec := range records[1:] {
		c := Contact{
			AgencyName: cell(rec, mapping, fieldAgencyName),
			Email:      strings.TrimSpace(cell(rec, mapping, fieldEmail)),
			City:       cell(rec, mapping, fieldCity),
			Website:    cell(rec, mapping, fieldWebsite),
			Notes:      cell(rec, mapping, fieldNotes),
		}
		if c.Email == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// mapHeader resolves raw column names to normalized field names. Matching is
// case-insensitive. When several columns map to the same field, the first
// occurrence wins.
func mapHeader(header []string) map[string]int {
	mapping := make(map[string]int, len(header))
	for i, raw := range header {
		field := normalizeColumn(raw)
		if field == "" {
			continue
		}
		if _, taken := mapping[field]; taken {
			continue
		}
		mapping[field] = i
	}
	return mapping
}

// normalizeColumn returns the normalized field a raw column name maps to, or
// "" when the column is unrecognized. Later rules override earlier ones, so a
// column matching both the email and website rules ends up as Website,
// mirroring the order the rules are applied in.
func normalizeColumn(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	field := ""
	switch name {
	case "agency", "agencyname", "recruiter", "company":
		field = fieldAgencyName
	}
	if strings.Contains(name, "mail") {
		field = fieldEmail
	}
	switch name {
	case "city", "location":
		field = fieldCity
	}
	if strings.Contains(name, "web") {
		field = fieldWebsite
	}
	if name == "notes" {
		field = fieldNotes
	}
	return field
}

func cell(rec []string, mapping map[string]int, field string) string {
	i, ok := mapping[field]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// Filter returns the contacts whose AgencyName, City or Email contains the
// query, case-insensitively. An empty query returns the input unchanged.
func Filter(list []Contact, query string) []Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]Contact, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.AgencyName), q) ||
			strings.Contains(strings.ToLower(c.City), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return out
}
