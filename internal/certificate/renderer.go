// Package certificate renders DATE course certificates.
//
// A certificate page is a fixed template PDF with room for three students.
// The renderer copies the template, writes each student's name, birth date,
// certificate number and course date at the coordinates of the student's
// slot, and returns the finished PDF. Absent fields are simply not drawn.
//
//	r := certificate.NewRenderer(templates.FileSource{Path: "date.pdf"}, logger, certificate.DefaultOptions())
//	docs, err := r.RenderBatch(ctx, students) // one PDF per three students
package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/certificates-api/internal/templates"
	"github.com/aanand-mishra/certificates-api/internal/types"
)

var (
	// ErrTooManyStudents is returned by RenderPage for groups larger than
	// SlotsPerPage.
	ErrTooManyStudents = fmt.Errorf("a certificate page holds at most %d students", SlotsPerPage)

	// ErrNoStudents is returned when a page would have nobody on it.
	ErrNoStudents = errors.New("no students to render")

	// ErrUnencodable is returned for text the certificate font cannot
	// print (anything outside Windows-1252).
	ErrUnencodable = errors.New("text cannot be printed in the certificate font")
)

// Options configures the produced documents.
type Options struct {
	// PageSize forces a gofpdf page size name ("Letter", "A4", ...) and
	// scales the template page onto it. Empty keeps the template's own
	// page size.
	PageSize string
	// Compress enables stream compression in the output.
	Compress bool
	// Title is written to the document information dictionary.
	Title string
}

// DefaultOptions returns the options used in production.
func DefaultOptions() Options {
	return Options{
		Compress: true,
		Title:    "DATE Certificate",
	}
}

// Document is one rendered PDF together with the students printed on it.
type Document struct {
	// Index is the 0-based position of the batch in the request.
	Index    int
	Students []types.Student
	Data     []byte
}

// Renderer draws students onto copies of the certificate template.
// It keeps no per-call state and is safe for concurrent use as long as
// its Source is.
type Renderer struct {
	source templates.Source
	log    *slog.Logger
	opts   Options
}

// NewRenderer returns a Renderer. A nil logger discards log output.
func NewRenderer(source templates.Source, log *slog.Logger, opts Options) *Renderer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Renderer{source: source, log: log, opts: opts}
}

// Batch splits items into consecutive groups of at most size elements.
func Batch[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end])
	}
	return groups
}

// RenderBatch renders students three to a page and returns one document
// per page, in input order. The template is loaded once per call. Any
// failure aborts the whole call; no partial result is returned.
func (r *Renderer) RenderBatch(ctx context.Context, students []types.Student) ([]Document, error) {
	if len(students) == 0 {
		return []Document{}, nil
	}

	tpl, err := r.loadTemplate(ctx)
	if err != nil {
		return nil, err
	}

	groups := Batch(students, SlotsPerPage)
	docs := make([]Document, 0, len(groups))

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := r.renderGroup(tpl, group)
		if err != nil {
			return nil, fmt.Errorf("certificate: batch %d: %w", i+1, err)
		}

		docs = append(docs, Document{Index: i, Students: group, Data: data})
	}

	r.log.Info("rendered certificate batch",
		slog.Int("students", len(students)),
		slog.Int("documents", len(docs)))

	return docs, nil
}

// RenderPage renders one page for up to SlotsPerPage students.
func (r *Renderer) RenderPage(ctx context.Context, group []types.Student) ([]byte, error) {
	if len(group) == 0 {
		return nil, ErrNoStudents
	}
	if len(group) > SlotsPerPage {
		return nil, ErrTooManyStudents
	}

	tpl, err := r.loadTemplate(ctx)
	if err != nil {
		return nil, err
	}
	return r.renderGroup(tpl, group)
}

// RenderSingle renders the certificate of one student using the
// single-student layout.
func (r *Renderer) RenderSingle(ctx context.Context, student types.Student) ([]byte, error) {
	tpl, err := r.loadTemplate(ctx)
	if err != nil {
		return nil, err
	}

	c, err := newCanvas(tpl, r.opts)
	if err != nil {
		return nil, err
	}

	drawn, err := c.place(FieldsFor(student), SinglePlacements())
	if err != nil {
		return nil, fmt.Errorf("certificate: student %d: %w", student.ID, err)
	}
	r.log.Debug("rendered single certificate",
		slog.Int64("student_id", student.ID),
		slog.Int("fields", drawn))

	return c.output()
}

func (r *Renderer) loadTemplate(ctx context.Context) ([]byte, error) {
	tpl, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("certificate: load template: %w", err)
	}
	return tpl, nil
}

// renderGroup puts group[i] into slot i+1 of a fresh template copy.
func (r *Renderer) renderGroup(tpl []byte, group []types.Student) ([]byte, error) {
	c, err := newCanvas(tpl, r.opts)
	if err != nil {
		return nil, err
	}

	for i, student := range group {
		slot := i + 1
		drawn, err := c.place(FieldsFor(student), SlotPlacements(slot))
		if err != nil {
			return nil, fmt.Errorf("certificate: slot %d: %w", slot, err)
		}
		r.log.Debug("placed student",
			slog.Int64("student_id", student.ID),
			slog.Int("slot", slot),
			slog.Int("fields", drawn))
	}

	return c.output()
}
