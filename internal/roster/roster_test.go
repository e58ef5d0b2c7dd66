package roster

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aanand-mishra/certificates-api/internal/types"
)

const sampleCSV = `First Name,last_name,email,birth_date,certn,course_date
Jane,Doe,jane@example.com,2001-03-07,1042,2024-01-05

John,Roe,,,,
`

func TestParseCSV(t *testing.T) {
	students, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, students, 2)

	jane := students[0]
	assert.Equal(t, "Jane", jane.FirstName)
	assert.Equal(t, "Doe", jane.LastName)
	assert.Equal(t, "jane@example.com", jane.Email)
	require.NotNil(t, jane.BirthDate)
	assert.Equal(t, types.NewDate(2001, 3, 7), *jane.BirthDate)
	require.NotNil(t, jane.CertificateNumber)
	assert.Equal(t, int64(1042), *jane.CertificateNumber)
	require.NotNil(t, jane.CourseDate)
	assert.Equal(t, types.NewDate(2024, 1, 5), *jane.CourseDate)

	john := students[1]
	assert.Nil(t, john.BirthDate)
	assert.Nil(t, john.CertificateNumber)
	assert.Nil(t, john.CourseDate)
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRow int
		wantMsg string
	}{
		{name: "missing header column", input: "first_name,email\nJane,j@x.io\n", wantMsg: `missing column "last_name"`},
		{name: "bad date", input: "first_name,last_name,birth_date\nJane,Doe,yesterday\n", wantRow: 2, wantMsg: "birth_date"},
		{name: "bad certn", input: "first_name,last_name,certn\nJane,Doe,\nJohn,Roe,12a\n", wantRow: 3, wantMsg: "certn"},
		{name: "missing name", input: "first_name,last_name\n,Doe\n", wantRow: 2, wantMsg: "FirstName"},
		{name: "bad email", input: "first_name,last_name,email\nJane,Doe,not-an-email\n", wantRow: 2, wantMsg: "Email"},
		{name: "empty", input: "", wantMsg: "roster is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var rowErr *RowError
			if tt.wantRow > 0 {
				require.True(t, errors.As(err, &rowErr))
				assert.Equal(t, tt.wantRow, rowErr.Row)
			}
		})
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"course_date", "last_name", "first_name", "certn"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-01-05", "Doe", "Jane", "7"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"", "Roe", "John"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	students, err := Parse("roster.XLSX", buf)
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, "Jane", students[0].FirstName)
	require.NotNil(t, students[0].CertificateNumber)
	assert.Equal(t, int64(7), *students[0].CertificateNumber)
	assert.Equal(t, types.NewDate(2024, 1, 5), *students[0].CourseDate)

	assert.Equal(t, "Roe", students[1].LastName)
	assert.Nil(t, students[1].CourseDate)
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse("roster.ods", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
