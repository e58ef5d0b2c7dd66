package certificate

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aanand-mishra/certificates-api/internal/types"
)

const (
	birthDateLayout  = "1/2/2006"
	courseDateLayout = "Jan 2, 2006"
)

// Fields is the text printed for one student. An empty string means the
// field is absent and is not drawn.
type Fields struct {
	StudentName       string
	BirthDate         string
	CertificateNumber string
	CourseDate        string
}

// FieldsFor formats a student record for printing.
//
// Names are upper-cased with full Unicode case mapping ("ß" becomes "SS").
// Dates are printed in UTC so a certificate never shows the previous day
// because of the server's time zone.
func FieldsFor(s types.Student) Fields {
	// A Caser keeps state between calls and must not be shared.
	upper := cases.Upper(language.Und)

	f := Fields{
		StudentName: strings.TrimSpace(
			upper.String(strings.TrimSpace(s.FirstName)) + " " + upper.String(strings.TrimSpace(s.LastName)),
		),
	}

	if s.BirthDate != nil && !s.BirthDate.IsZero() {
		f.BirthDate = s.BirthDate.UTC().Format(birthDateLayout)
	}
	if s.CertificateNumber != nil {
		f.CertificateNumber = strconv.FormatInt(*s.CertificateNumber, 10)
	}
	if s.CourseDate != nil && !s.CourseDate.IsZero() {
		f.CourseDate = s.CourseDate.UTC().Format(courseDateLayout)
	}

	return f
}
