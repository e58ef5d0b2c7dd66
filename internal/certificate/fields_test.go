package certificate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aanand-mishra/certificates-api/internal/types"
)

func TestFieldsFor(t *testing.T) {
	got := FieldsFor(fullStudent(1, "jane", "doe", 1042))

	assert.Equal(t, Fields{
		StudentName:       "JANE DOE",
		BirthDate:         "3/7/2001",
		CertificateNumber: "1042",
		CourseDate:        "Jan 5, 2024",
	}, got)
}

func TestFieldsForAbsentValues(t *testing.T) {
	got := FieldsFor(types.Student{FirstName: "José", LastName: "Groß"})

	assert.Equal(t, "JOSÉ GROSS", got.StudentName)
	assert.Empty(t, got.BirthDate)
	assert.Empty(t, got.CertificateNumber)
	assert.Empty(t, got.CourseDate)
}

func TestFieldsForZeroCertificateNumber(t *testing.T) {
	s := student(1, "a", "b")
	s.CertificateNumber = ptr(int64(0))

	assert.Equal(t, "0", FieldsFor(s).CertificateNumber)
}

func TestFieldsForTrimsNames(t *testing.T) {
	assert.Equal(t, "ANA LIMA", FieldsFor(student(1, "  ana ", " lima")).StudentName)
	assert.Equal(t, "ANA", FieldsFor(student(1, "ana", "")).StudentName)
}
