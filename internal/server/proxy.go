package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/formapi"
)

// Messages returned by the proxy routes.
const (
	msgFetchFormsFailed   = "Failed to fetch forms"
	msgFormIDRequired     = "Form ID is required"
	msgFetchFormFailed    = "Failed to fetch form"
	msgCreateFormFailed   = "Failed to create form"
	msgMissingFormID      = "Missing formId parameter"
	msgFetchRecordsFailed = "Failed to fetch form data"
	msgMissingFields      = "Missing required fields"
	msgSubmitFailed       = "Failed to submit form"
	msgInternal           = "Internal server error"
)

// forwardJSON forwards a request and returns the upstream body when the
// call succeeded with a JSON body. The returned error is nil only then.
func (s *Server) forwardJSON(r *http.Request, method, path string, body []byte) (*formapi.Response, error) {
	resp, err := s.forms.Forward(r.Context(), method, path, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, &formapi.APIError{StatusCode: resp.StatusCode, Message: resp.Message()}
	}
	if !json.Valid(resp.Body) {
		return resp, errInvalidUpstreamJSON
	}
	return resp, nil
}

var errInvalidUpstreamJSON = errors.New("form service returned invalid JSON")

// handleListForms handles GET /api/forms/list.
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	resp, err := s.forwardJSON(r, http.MethodGet, formapi.FormsPath(), nil)
	if err != nil {
		s.logger.Error("fetching forms", "err", err)
		writeError(w, http.StatusBadRequest, msgFetchFormsFailed)
		return
	}
	writeRaw(w, http.StatusOK, resp.Body)
}

// handleGetForm handles GET /api/forms?id=.
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, msgFormIDRequired)
		return
	}
	resp, err := s.forwardJSON(r, http.MethodGet, formapi.FormPath(id), nil)
	if err != nil {
		s.logger.Error("fetching form", "id", id, "err", err)
		writeError(w, http.StatusBadRequest, msgFetchFormFailed)
		return
	}
	writeRaw(w, http.StatusOK, resp.Body)
}

// handleCreateForm handles POST /api/forms. The body is forwarded as is.
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		s.logger.Error("creating form", "err", "invalid JSON body")
		writeError(w, http.StatusBadRequest, msgCreateFormFailed)
		return
	}
	resp, err := s.forwardJSON(r, http.MethodPost, formapi.FormsPath(), body)
	if err != nil {
		s.logger.Error("creating form", "err", err)
		writeError(w, http.StatusBadRequest, msgCreateFormFailed)
		return
	}
	s.publish(r.Context(), events.TopicFormCreated, events.FormCreated{
		Form:      json.RawMessage(resp.Body),
		Source:    "proxy",
		CreatedAt: time.Now().UTC(),
	})
	writeRaw(w, http.StatusCreated, resp.Body)
}

// handleListSourceRecords handles GET /api/source-records?formId=.
func (s *Server) handleListSourceRecords(w http.ResponseWriter, r *http.Request) {
	formID := r.URL.Query().Get("formId")
	if formID == "" {
		writeMessage(w, http.StatusBadRequest, msgMissingFormID)
		return
	}
	resp, err := s.forms.Forward(r.Context(), http.MethodGet, formapi.SourceRecordsPath(formID), nil)
	if err != nil {
		s.logger.Error("fetching form data", "form_id", formID, "err", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	s.passThrough(w, resp, http.StatusOK, msgFetchRecordsFailed)
}

// handleCreateSourceRecord handles POST /api/source-records. Only formId
// and sourceData are forwarded, both required to be truthy.
func (s *Server) handleCreateSourceRecord(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		s.logger.Error("submitting form", "err", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	// Arrays and scalars carry neither field.
	var in map[string]json.RawMessage
	_ = json.Unmarshal(raw, &in)
	if !truthy(in["formId"]) || !truthy(in["sourceData"]) {
		writeMessage(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	body, err := json.Marshal(struct {
		FormID     json.RawMessage `json:"formId"`
		SourceData json.RawMessage `json:"sourceData"`
	}{in["formId"], in["sourceData"]})
	if err != nil {
		s.logger.Error("submitting form", "err", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	resp, err := s.forms.Forward(r.Context(), http.MethodPost, formapi.SourceRecordsPath(""), body)
	if err != nil {
		s.logger.Error("submitting form", "err", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if s.passThrough(w, resp, http.StatusCreated, msgSubmitFailed) {
		var formID string
		_ = json.Unmarshal(in["formId"], &formID)
		s.publish(r.Context(), events.TopicRecordSubmitted, events.RecordSubmitted{
			FormID:      formID,
			Record:      json.RawMessage(resp.Body),
			SubmittedAt: time.Now().UTC(),
		})
	}
}

// passThrough answers with the upstream body on success, or the upstream
// status and message (fallback when absent) on failure. It reports whether
// the upstream call succeeded.
func (s *Server) passThrough(w http.ResponseWriter, resp *formapi.Response, okStatus int, fallback string) bool {
	if !resp.OK() {
		msg := resp.Message()
		if msg == "" {
			msg = fallback
		}
		s.logger.Warn("form service rejected request", "status", resp.StatusCode, "message", msg)
		writeMessage(w, resp.StatusCode, msg)
		return false
	}
	if !json.Valid(resp.Body) {
		s.logger.Error("form service returned invalid JSON", "status", resp.StatusCode)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return false
	}
	writeRaw(w, okStatus, resp.Body)
	return true
}

// truthy reports whether a JSON value is present and not one of the falsy
// values null, false, 0 or "".
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}
