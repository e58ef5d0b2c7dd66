// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// Handlers and the certificate endpoints depend only on this interface,
// so tests can pass a fake and the backend can change without touching
// the HTTP layer.
package storage

import (
	"errors"

	"github.com/aanand-mishra/certificates-api/internal/types"
)

// ErrNotFound is returned (wrapped) when a student id does not exist.
var ErrNotFound = errors.New("student not found")

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new student record and returns the auto-
	// generated primary-key ID. The ID field of student is ignored.
	CreateStudent(student types.Student) (int64, error)

	// CreateStudents inserts all students or none of them and returns
	// their ids in input order.
	CreateStudents(students []types.Student) ([]int64, error)

	// GetStudentByID fetches a single student by their primary key.
	// Returns an error wrapping ErrNotFound if there is no such student.
	GetStudentByID(id int64) (types.Student, error)

	// GetStudents returns every student in the database.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents() ([]types.Student, error)

	// GetStudentsByIDs returns the requested students in the order the
	// ids were given. Any unknown id fails the whole call with ErrNotFound.
	GetStudentsByIDs(ids []int64) ([]types.Student, error)

	// UpdateStudentByID replaces the fields of an existing student.
	// Returns the updated student record or an error.
	UpdateStudentByID(id int64, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student record permanently.
	DeleteStudentByID(id int64) error
}
