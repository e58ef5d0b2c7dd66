// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, roster import and the certificate renderer can all
// import types without depending on each other.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Student represents a student record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON
//     (snake_case names match the roster column names).
//
//  2. validate:"..." — rules checked by the go-playground/validator
//     package. "required" means the field must be non-zero / non-empty.
//
// The certificate fields are pointers because they are OPTIONAL: a nil
// pointer means "not known yet" and the renderer simply skips that field.
// A zero value would be ambiguous (certificate number 0 is a real number).
type Student struct {
	ID                int64  `json:"id"`
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name"  validate:"required"`
	Email             string `json:"email,omitempty" validate:"omitempty,email"`
	BirthDate         *Date  `json:"birth_date,omitempty"`
	CertificateNumber *int64 `json:"certn,omitempty" validate:"omitempty,gte=0"`
	CourseDate        *Date  `json:"course_date,omitempty"`
}

// DateLayout is the canonical wire format for Date values.
const DateLayout = "2006-01-02"

// acceptedLayouts are tried in order when parsing a date coming from a
// client or a roster file.
var acceptedLayouts = []string{
	DateLayout,
	time.RFC3339,
	"1/2/2006",
}

// Date is a calendar date without a meaningful time of day.
// It is stored as midnight UTC.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s using the accepted layouts. A timestamp keeps the
// calendar day written in it; its time of day and offset are dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewDate(t.Date()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.UTC().Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", RFC3339 timestamps and US
// "M/D/YYYY" strings.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
