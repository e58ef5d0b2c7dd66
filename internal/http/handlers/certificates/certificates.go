// Package certificates contains the HTTP handlers that render DATE
// certificates for stored or inline students.
//
// Like the student handlers, every handler is built by a factory that
// captures its dependencies:
//
//	router.HandleFunc("POST /api/certificates/date", certificates.Date(storage, renderer, sink))
package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/certificates-api/internal/certificate"
	"github.com/aanand-mishra/certificates-api/internal/output"
	"github.com/aanand-mishra/certificates-api/internal/storage"
	"github.com/aanand-mishra/certificates-api/internal/templates"
	"github.com/aanand-mishra/certificates-api/internal/types"
	"github.com/aanand-mishra/certificates-api/internal/utils/response"
)

// Renderer is the part of *certificate.Renderer the handlers use.
type Renderer interface {
	RenderBatch(ctx context.Context, students []types.Student) ([]certificate.Document, error)
	RenderSingle(ctx context.Context, student types.Student) ([]byte, error)
}

// DateRequest selects the students to print. Exactly one of the two
// fields must be set: ids of stored students, or inline student records.
// A request holds at most 300 students.
type DateRequest struct {
	StudentIDs []int64         `json:"student_ids" validate:"omitempty,max=300,dive,gt=0"`
	Students   []types.Student `json:"students"    validate:"omitempty,max=300,dive"`
}

// StoredDocument describes one certificate PDF saved to the output sink.
type StoredDocument struct {
	Index      int     `json:"index"`
	Location   string  `json:"location"`
	StudentIDs []int64 `json:"student_ids,omitempty"`
}

// StoredBatch is the response of a request with ?store=true.
type StoredBatch struct {
	BatchID   string           `json:"batch_id"`
	Documents []StoredDocument `json:"documents"`
}

// renderStatus maps a rendering error to an HTTP status code. A template
// that cannot be fetched is an upstream problem, not ours.
func renderStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, templates.ErrTemplateUnavailable), errors.Is(err, templates.ErrNotPDF):
		return http.StatusBadGateway
	case errors.Is(err, certificate.ErrUnencodable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (DateRequest, bool) {
	var req DateRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return req, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return req, false
	}

	if err := validator.New().Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return req, false
	}

	switch {
	case len(req.StudentIDs) == 0 && len(req.Students) == 0:
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("either student_ids or students is required")))
		return req, false
	case len(req.StudentIDs) > 0 && len(req.Students) > 0:
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("student_ids and students are mutually exclusive")))
		return req, false
	}

	return req, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Date handles POST /api/certificates/date
//
// Request body (JSON), either:
//
//	{ "student_ids": [3, 1, 2, 7] }
//	{ "students": [{ "first_name": "Jane", "last_name": "Doe", "certn": 1 }] }
//
// Students are printed three per page in request order.
//
// Responses:
//
//	200 application/pdf  — one page worth of students
//	200 application/zip  — several PDFs, one per three students
//	201 application/json — with ?store=true, the saved document locations
//	400 bad request / validation, 404 unknown student id,
//	422 name not printable in the certificate font, 502 template unavailable
//
// ─────────────────────────────────────────────────────────────────────────────
func Date(store storage.Storage, renderer Renderer, sink output.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		students := req.Students
		if len(req.StudentIDs) > 0 {
			var err error
			students, err = store.GetStudentsByIDs(req.StudentIDs)
			if err != nil {
				slog.Error("error loading students for certificates", slog.String("error", err.Error()))
				response.WriteJSON(w, renderStatus(err), response.GeneralError(err))
				return
			}
		}

		batchID := output.NewBatchID()
		log := slog.With(slog.String("batch_id", batchID))
		log.Info("rendering date certificates", slog.Int("students", len(students)))

		docs, err := renderer.RenderBatch(r.Context(), students)
		if err != nil {
			log.Error("error rendering certificates", slog.String("error", err.Error()))
			response.WriteJSON(w, renderStatus(err), response.GeneralError(err))
			return
		}

		files := make([]output.File, len(docs))
		for i, doc := range docs {
			files[i] = output.File{Name: output.BatchName(batchID, doc.Index), Data: doc.Data}
		}

		if persist, _ := strconv.ParseBool(r.URL.Query().Get("store")); persist {
			stored, err := saveDocuments(r.Context(), sink, batchID, docs, files)
			if err != nil {
				log.Error("error storing certificates", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			log.Info("certificates stored", slog.Int("documents", len(stored.Documents)))
			response.WriteJSON(w, http.StatusCreated, stored)
			return
		}

		if len(files) == 1 {
			response.WriteFile(w, http.StatusOK, response.ContentTypePDF, files[0].Name, files[0].Data)
			return
		}

		archive, err := output.Zip(files, time.Now())
		if err != nil {
			log.Error("error zipping certificates", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		response.WriteFile(w, http.StatusOK, response.ContentTypeZip,
			"date-certificates-"+batchID+".zip", archive)
	}
}

func saveDocuments(ctx context.Context, sink output.Sink, batchID string, docs []certificate.Document, files []output.File) (StoredBatch, error) {
	if sink == nil {
		return StoredBatch{}, errors.New("certificate storage is not configured")
	}

	locations, err := output.SaveAll(ctx, sink, files)
	if err != nil {
		return StoredBatch{}, err
	}

	batch := StoredBatch{BatchID: batchID, Documents: make([]StoredDocument, len(docs))}
	for i, doc := range docs {
		ids := make([]int64, 0, len(doc.Students))
		for _, s := range doc.Students {
			if s.ID != 0 {
				ids = append(ids, s.ID)
			}
		}
		batch.Documents[i] = StoredDocument{Index: doc.Index, Location: locations[i], StudentIDs: ids}
	}
	return batch, nil
}

// Single handles GET /api/students/{id}/certificate and returns the
// single-student certificate of a stored student as a PDF download.
func Single(store storage.Storage, renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid id: must be an integer")))
			return
		}
		slog.Info("rendering single certificate", slog.Int64("id", id))

		student, err := store.GetStudentByID(id)
		if err != nil {
			response.WriteJSON(w, renderStatus(err), response.GeneralError(err))
			return
		}

		data, err := renderer.RenderSingle(r.Context(), student)
		if err != nil {
			slog.Error("error rendering certificate",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, renderStatus(err), response.GeneralError(err))
			return
		}

		response.WriteFile(w, http.StatusOK, response.ContentTypePDF, output.StudentName(id), data)
	}
}
