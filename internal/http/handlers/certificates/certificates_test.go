package certificates

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/certificates-api/internal/certificate"
	"github.com/aanand-mishra/certificates-api/internal/output"
	"github.com/aanand-mishra/certificates-api/internal/storage/sqlite"
	"github.com/aanand-mishra/certificates-api/internal/templates"
	"github.com/aanand-mishra/certificates-api/internal/types"
)

// fakeRenderer batches like the real renderer but writes the student names
// instead of drawing a PDF.
type fakeRenderer struct {
	err     error
	batches [][]types.Student
}

func (f *fakeRenderer) RenderBatch(_ context.Context, students []types.Student) ([]certificate.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var docs []certificate.Document
	for i, group := range certificate.Batch(students, certificate.SlotsPerPage) {
		f.batches = append(f.batches, group)
		var names []string
		for _, s := range group {
			names = append(names, s.FirstName)
		}
		docs = append(docs, certificate.Document{
			Index:    i,
			Students: group,
			Data:     []byte("%PDF-fake " + strings.Join(names, ",")),
		})
	}
	return docs, nil
}

func (f *fakeRenderer) RenderSingle(_ context.Context, s types.Student) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-single " + s.FirstName), nil
}

type memorySink struct {
	saved map[string][]byte
}

func (m *memorySink) Save(_ context.Context, name string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = data
	return "mem://" + name, nil
}

type fixture struct {
	router   *http.ServeMux
	renderer *fakeRenderer
	sink     *memorySink
	ids      []int64
}

func newFixture(t *testing.T, students int) *fixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{renderer: &fakeRenderer{}, sink: &memorySink{}}
	for i := 1; i <= students; i++ {
		id, err := db.CreateStudent(types.Student{FirstName: fmt.Sprintf("S%d", i), LastName: "Test"})
		require.NoError(t, err)
		f.ids = append(f.ids, id)
	}

	f.router = http.NewServeMux()
	f.router.HandleFunc("POST /api/certificates/date", Date(db, f.renderer, f.sink))
	f.router.HandleFunc("GET /api/students/{id}/certificate", Single(db, f.renderer))
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestDateSinglePageReturnsPDF(t *testing.T) {
	f := newFixture(t, 3)

	rec := f.do(http.MethodPost, "/api/certificates/date", `{"student_ids":[3,1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "-01.pdf")
	assert.Equal(t, "%PDF-fake S3,S1,S2", rec.Body.String())
}

func TestDateSeveralPagesReturnsZip(t *testing.T) {
	f := newFixture(t, 7)

	rec := f.do(http.MethodPost, "/api/certificates/date", `{"student_ids":[1,2,3,4,5,6,7]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	assert.True(t, strings.HasSuffix(zr.File[2].Name, "-03.pdf"))

	require.Len(t, f.renderer.batches, 3)
	assert.Len(t, f.renderer.batches[2], 1)
}

func TestDateInlineStudents(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(http.MethodPost, "/api/certificates/date",
		`{"students":[{"first_name":"Jane","last_name":"Doe","course_date":"2024-01-05"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "%PDF-fake Jane", rec.Body.String())
}

func TestDateStore(t *testing.T) {
	f := newFixture(t, 4)

	rec := f.do(http.MethodPost, "/api/certificates/date?store=true", `{"student_ids":[1,2,3,4]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got StoredBatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Documents, 2)
	assert.Equal(t, []int64{1, 2, 3}, got.Documents[0].StudentIDs)
	assert.Equal(t, []int64{4}, got.Documents[1].StudentIDs)
	assert.Equal(t, "mem://"+output.BatchName(got.BatchID, 1), got.Documents[1].Location)
	assert.Len(t, f.sink.saved, 2)
}

func TestDateBadRequests(t *testing.T) {
	f := newFixture(t, 1)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "empty body", body: "", code: http.StatusBadRequest},
		{name: "nothing selected", body: `{}`, code: http.StatusBadRequest},
		{name: "both selected", body: `{"student_ids":[1],"students":[{"first_name":"a","last_name":"b"}]}`, code: http.StatusBadRequest},
		{name: "invalid inline student", body: `{"students":[{"first_name":"a"}]}`, code: http.StatusBadRequest},
		{name: "non positive id", body: `{"student_ids":[0]}`, code: http.StatusBadRequest},
		{name: "unknown id", body: `{"student_ids":[1,99]}`, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/certificates/date", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"status":"error"`)
		})
	}
	assert.Empty(t, f.renderer.batches)
}

func TestDateTemplateUnavailable(t *testing.T) {
	f := newFixture(t, 1)
	f.renderer.err = fmt.Errorf("certificate: load template: %w", templates.ErrTemplateUnavailable)

	rec := f.do(http.MethodPost, "/api/certificates/date", `{"student_ids":[1]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDateUnprintableName(t *testing.T) {
	f := newFixture(t, 1)
	f.renderer.err = fmt.Errorf("certificate: slot 1: %w", certificate.ErrUnencodable)

	rec := f.do(http.MethodPost, "/api/certificates/date", `{"student_ids":[1]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "certificate font")

	rec = f.do(http.MethodGet, "/api/students/1/certificate", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSingle(t *testing.T) {
	f := newFixture(t, 2)

	rec := f.do(http.MethodGet, "/api/students/2/certificate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-single S2", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "date-certificate-student-2.pdf")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/students/9/certificate", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/students/x/certificate", "").Code)
}
