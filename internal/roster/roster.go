// Package roster imports students from spreadsheet exports.
//
// A roster is a table whose first row names the columns. Column names are
// matched case-insensitively and may appear in any order:
//
//	first_name,last_name,email,birth_date,certn,course_date
//	Jane,Doe,jane@example.com,2001-03-07,1042,2024-01-05
//
// Only first_name and last_name are required. Blank cells leave the
// matching optional field unset.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/aanand-mishra/certificates-api/internal/types"
)

// ErrUnsupportedFormat is returned by Parse for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported roster format: use .csv or .xlsx")

// column aliases → canonical name
var columnAliases = map[string]string{
	"first_name":         "first_name",
	"firstname":          "first_name",
	"last_name":          "last_name",
	"lastname":           "last_name",
	"email":              "email",
	"birth_date":         "birth_date",
	"birthdate":          "birth_date",
	"certn":              "certn",
	"certificate_number": "certn",
	"course_date":        "course_date",
	"coursedate":         "course_date",
}

// RowError reports a problem with one data row. Row is 1-based and counts
// the header, so it matches what a spreadsheet shows.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Parse picks the parser from the file name extension.
func Parse(name string, r io.Reader) ([]types.Student, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseCSV reads a comma separated roster.
func ParseCSV(r io.Reader) ([]types.Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: %w", err)
	}
	return parseRecords(records)
}

// ParseXLSX reads the first worksheet of an Excel workbook.
func ParseXLSX(r io.Reader) ([]types.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ParseXLSX: open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("ParseXLSX: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ParseXLSX: read sheet %q: %w", sheets[0], err)
	}
	return parseRecords(rows)
}

func parseRecords(records [][]string) ([]types.Student, error) {
	if len(records) == 0 {
		return nil, errors.New("roster is empty")
	}

	columns, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	students := make([]types.Student, 0, len(records)-1)

	for i, record := range records[1:] {
		rowNum := i + 2
		if blank(record) {
			continue
		}

		student, err := parseRow(columns, record)
		if err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
		if err := validate.Struct(student); err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
		students = append(students, student)
	}

	return students, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := columnAliases[key]; ok {
			columns[canonical] = i
		}
	}

	for _, required := range []string{"first_name", "last_name"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("roster header is missing column %q", required)
		}
	}
	return columns, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRow(columns map[string]int, record []string) (types.Student, error) {
	cell := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	s := types.Student{
		FirstName: cell("first_name"),
		LastName:  cell("last_name"),
		Email:     cell("email"),
	}

	if v := cell("birth_date"); v != "" {
		d, err := types.ParseDate(v)
		if err != nil {
			return s, fmt.Errorf("birth_date: %w", err)
		}
		s.BirthDate = &d
	}

	if v := cell("certn"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return s, fmt.Errorf("certn: %q is not a whole number", v)
		}
		s.CertificateNumber = &n
	}

	if v := cell("course_date"); v != "" {
		d, err := types.ParseDate(v)
		if err != nil {
			return s, fmt.Errorf("course_date: %w", err)
		}
		s.CourseDate = &d
	}

	return s, nil
}
