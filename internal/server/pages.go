package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/render"
)

// writePage renders into a buffer first so a template error never leaves
// a half-written page behind.
func (s *Server) writePage(w http.ResponseWriter, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.logger.Error("rendering page", "err", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/forms", http.StatusFound)
}

// handleFormsPage handles GET /forms.
func (s *Server) handleFormsPage(w http.ResponseWriter, r *http.Request) {
	forms, err := s.forms.ListForms(r.Context())
	status, msg := http.StatusOK, ""
	if err != nil {
		s.logger.Error("fetching forms", "err", err)
		status, msg = http.StatusBadGateway, msgFetchFormsFailed
	}
	s.writePage(w, status, func(b *bytes.Buffer) error {
		return s.pages.IndexPage(b, forms, msg)
	})
}

// loadForm fetches {id} or writes an error page.
func (s *Server) loadForm(w http.ResponseWriter, r *http.Request) (*model.FormDefinition, bool) {
	def, err := s.forms.GetForm(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("fetching form", "id", r.PathValue("id"), "err", err)
		s.writePage(w, http.StatusBadGateway, func(b *bytes.Buffer) error {
			return s.pages.IndexPage(b, nil, msgFetchFormFailed)
		})
		return nil, false
	}
	return def, true
}

// handleFormPage handles GET /forms/{id}.
func (s *Server) handleFormPage(w http.ResponseWriter, r *http.Request) {
	def, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	c := render.NewCapture(def)
	s.writePage(w, http.StatusOK, func(b *bytes.Buffer) error {
		return s.pages.FormPage(b, def.Name, c, "")
	})
}

// handleSubmitFormPage handles POST /forms/{id}. Answers are kept on the
// page whenever the submission does not go through.
func (s *Server) handleSubmitFormPage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	def, ok := s.loadForm(w, r)
	if !ok {
		return
	}

	c := render.NewCapture(def)
	if err := render.CaptureForm(c, r.PostForm); err != nil {
		s.writePage(w, http.StatusBadRequest, func(b *bytes.Buffer) error {
			return s.pages.FormPage(b, def.Name, c, err.Error())
		})
		return
	}

	err := c.Submit(r.Context(), s.forms)
	var missing *render.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		s.writePage(w, http.StatusBadRequest, func(b *bytes.Buffer) error {
			return s.pages.FormPage(b, def.Name, c, missing.Error())
		})
		return
	case err != nil:
		s.logger.Error("submitting form", "form_id", def.ID, "err", err)
		s.writePage(w, http.StatusBadGateway, func(b *bytes.Buffer) error {
			return s.pages.FormPage(b, def.Name, c, "")
		})
		return
	}

	s.publish(r.Context(), events.TopicRecordSubmitted, events.RecordSubmitted{
		FormID:      def.ID,
		SubmittedAt: time.Now().UTC(),
	})
	s.writePage(w, http.StatusOK, func(b *bytes.Buffer) error {
		return s.pages.FormPage(b, def.Name, c, "")
	})
}

// handleRecordsPage handles GET /forms/{id}/data.
func (s *Server) handleRecordsPage(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("id")
	records, err := s.forms.ListSourceRecords(r.Context(), formID)
	status, msg := http.StatusOK, ""
	if err != nil {
		s.logger.Error("fetching form data", "form_id", formID, "err", err)
		status, msg = http.StatusBadGateway, model.UserMessage(err, msgFetchRecordsFailed)
	}
	s.writePage(w, status, func(b *bytes.Buffer) error {
		return s.pages.RecordsPage(b, formID, records, msg)
	})
}
