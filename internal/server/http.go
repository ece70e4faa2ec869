package server

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request bodies accepted by the API.
const maxBodyBytes = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/forms/list", s.handleListForms)
	mux.HandleFunc("GET /api/forms", s.handleGetForm)
	mux.HandleFunc("POST /api/forms", s.handleCreateForm)
	mux.HandleFunc("GET /api/source-records", s.handleListSourceRecords)
	mux.HandleFunc("POST /api/source-records", s.handleCreateSourceRecord)

	mux.HandleFunc("GET /api/palette", s.handlePalette)
	mux.HandleFunc("GET /api/builder/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/builder/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/builder/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PATCH /api/builder/sessions/{id}", s.handlePatchSession)
	mux.HandleFunc("DELETE /api/builder/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/builder/sessions/{id}/drop", s.handleDrop)
	mux.HandleFunc("POST /api/builder/sessions/{id}/pointer", s.handlePointer)
	mux.HandleFunc("PATCH /api/builder/sessions/{id}/fields/{fieldId}", s.handlePatchField)
	mux.HandleFunc("DELETE /api/builder/sessions/{id}/fields/{fieldId}", s.handleDeleteField)
	mux.HandleFunc("POST /api/builder/sessions/{id}/publish", s.handlePublish)

	mux.HandleFunc("GET /api/events/stream", s.handleEventStream)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /forms", s.handleFormsPage)
	mux.HandleFunc("GET /forms/{id}", s.handleFormPage)
	mux.HandleFunc("POST /forms/{id}", s.handleSubmitFormPage)
	mux.HandleFunc("GET /forms/{id}/data", s.handleRecordsPage)

	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.recoverPanics(s.logRequests(mux))
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeRaw writes an already encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError writes a JSON error response under the "error" key.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeMessage writes a JSON error response under the "message" key, the
// shape the source-record routes answer with.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
