// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/certificates-api/internal/config"
	"github.com/aanand-mishra/certificates-api/internal/storage"
	"github.com/aanand-mishra/certificates-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

const studentColumns = "id, first_name, last_name, email, birth_date, certn, course_date"

// New opens the SQLite database at cfg.StoragePath, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.StoragePath)
}

// Open is New for callers that only have a path (tests, the CLI).
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent — safe to run on every
	// startup.
	//
	// Schema:
	//   birth_date, course_date — YYYY-MM-DD, NULL when unknown
	//   certn                   — certificate number, NULL when not issued
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name  TEXT    NOT NULL,
			last_name   TEXT    NOT NULL,
			email       TEXT    NOT NULL DEFAULT '',
			birth_date  TEXT,
			certn       INTEGER,
			course_date TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// nullable converts the optional student fields into values database/sql
// stores as NULL when absent.
func nullable(student types.Student) (birth, certn, course any) {
	if student.BirthDate != nil {
		birth = student.BirthDate.String()
	}
	if student.CertificateNumber != nil {
		certn = *student.CertificateNumber
	}
	if student.CourseDate != nil {
		course = student.CourseDate.String()
	}
	return birth, certn, course
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		birth   sql.NullString
		certn   sql.NullInt64
		course  sql.NullString
	)

	// The order of variables must match studentColumns.
	if err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&birth,
		&certn,
		&course,
	); err != nil {
		return types.Student{}, err
	}

	if birth.Valid {
		d, err := types.ParseDate(birth.String)
		if err != nil {
			return types.Student{}, fmt.Errorf("student %d: birth_date: %w", student.ID, err)
		}
		student.BirthDate = &d
	}
	if certn.Valid {
		n := certn.Int64
		student.CertificateNumber = &n
	}
	if course.Valid {
		d, err := types.ParseDate(course.String)
		if err != nil {
			return types.Student{}, fmt.Errorf("student %d: course_date: %w", student.ID, err)
		}
		student.CourseDate = &d
	}

	return student, nil
}

// CreateStudent inserts a new row into the students table using a
// prepared statement; values never become part of the SQL text.
func (s *SQLite) CreateStudent(student types.Student) (int64, error) {
	stmt, err := s.Db.Prepare(
		"INSERT INTO students (first_name, last_name, email, birth_date, certn, course_date) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	birth, certn, course := nullable(student)
	result, err := stmt.Exec(student.FirstName, student.LastName, student.Email, birth, certn, course)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return lastID, nil
}

// CreateStudents inserts every student inside one transaction. If any
// insert fails the transaction is rolled back and no row is kept.
func (s *SQLite) CreateStudents(students []types.Student) ([]int64, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return nil, fmt.Errorf("CreateStudents: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO students (first_name, last_name, email, birth_date, certn, course_date) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return nil, fmt.Errorf("CreateStudents: prepare: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(students))
	for i, student := range students {
		birth, certn, course := nullable(student)
		result, err := stmt.Exec(student.FirstName, student.LastName, student.Email, birth, certn, course)
		if err != nil {
			return nil, fmt.Errorf("CreateStudents: student %d: %w", i+1, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("CreateStudents: last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateStudents: commit: %w", err)
	}
	return ids, nil
}

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(id int64) (types.Student, error) {
	stmt, err := s.Db.Prepare("SELECT " + studentColumns + " FROM students WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all student rows ordered by id.
func (s *SQLite) GetStudents() ([]types.Student, error) {
	rows, err := s.Db.Query("SELECT " + studentColumns + " FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// GetStudentsByIDs loads the requested students with a single IN query
// and returns them in request order. Duplicate ids are allowed and
// repeat the student.
func (s *SQLite) GetStudentsByIDs(ids []int64) ([]types.Student, error) {
	if len(ids) == 0 {
		return []types.Student{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.Db.Query(
		"SELECT "+studentColumns+" FROM students WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudentsByIDs: query: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]types.Student, len(ids))
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudentsByIDs: scan row: %w", err)
		}
		byID[student.ID] = student
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudentsByIDs: rows iteration: %w", err)
	}

	students := make([]types.Student, 0, len(ids))
	for _, id := range ids {
		student, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
		}
		students = append(students, student)
	}

	return students, nil
}

// UpdateStudentByID replaces a student's data with the provided values.
// Returns the updated student so the caller can echo it back to the client.
func (s *SQLite) UpdateStudentByID(id int64, student types.Student) (types.Student, error) {
	stmt, err := s.Db.Prepare(
		"UPDATE students SET first_name = ?, last_name = ?, email = ?, birth_date = ?, certn = ?, course_date = ? WHERE id = ?",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	birth, certn, course := nullable(student)
	result, err := stmt.Exec(student.FirstName, student.LastName, student.Email, birth, certn, course, id)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
	}

	// Re-fetch the record so we return exactly what is stored in the DB.
	return s.GetStudentByID(id)
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(id int64) error {
	stmt, err := s.Db.Prepare("DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
	}

	return nil
}
