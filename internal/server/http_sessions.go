package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/formapi"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/presence"
)

// lookupSession resolves {id} or writes a 404.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.get(r.Context(), r.PathValue("id"))
	if errors.Is(err, errSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		s.logger.Error("loading builder session", "session", r.PathValue("id"), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return sess, true
}

// touched marks sess as changed by event and saves it. A failed save is
// logged; the cached session stays authoritative. Must be called with
// sess.mu held.
func (s *Server) touched(ctx context.Context, sess *session, event string) {
	sess.touch()
	s.presence.Record(presence.Activity{SessionID: sess.id, Name: sess.state.Name, Event: event})
	if err := s.sessions.save(ctx, sess); err != nil {
		s.logger.Error("saving builder session", "session", sess.id, "err", err)
	}
}

// handlePalette handles GET /api/palette.
func (s *Server) handlePalette(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, builder.Palette())
}

// handleCreateSession handles POST /api/builder/sessions. The body is
// optional: {"name": "..."}.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.sessions.create(r.Context(), in.Name)
	if err != nil {
		s.logger.Error("creating builder session", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	sess.mu.Lock()
	s.presence.Record(presence.Activity{SessionID: sess.id, Name: sess.state.Name, Event: "create"})
	view := sess.view()
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, view)
}

// handleListSessions handles GET /api/builder/sessions: the live sessions,
// most recently active first.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.presence.Roster(0))
}

// handleGetSession handles GET /api/builder/sessions/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sess.view())
}

// handleDeleteSession handles DELETE /api/builder/sessions/{id}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	found, err := s.sessions.delete(r.Context(), id)
	if err != nil {
		s.logger.Error("deleting builder session", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	s.presence.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

type sessionPatch struct {
	Name string `json:"name"`
}

// handlePatchSession handles PATCH /api/builder/sessions/{id} with a JSON
// merge patch over {"name"}.
func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	next, err := applyMergePatch(sessionPatch{Name: sess.state.Name}, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.state.Name = next.Name
	s.touched(r.Context(), sess, "rename")
	writeJSON(w, http.StatusOK, sess.view())
}

// handleDrop handles POST /api/builder/sessions/{id}/drop with a finished
// drag gesture {"active", "over"}. Unrecognised gestures are not errors:
// the response reports changed=false.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var ev builder.DragEnd
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess.mu.Lock()
	changed := s.applyDrop(r, sess, ev)
	view := sess.view()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, dropResult{Changed: changed, Session: view})
}

type dropResult struct {
	Changed bool                 `json:"changed"`
	Session model.BuilderSession `json:"session"`
}

// applyDrop must be called with sess.mu held.
func (s *Server) applyDrop(r *http.Request, sess *session, ev builder.DragEnd) bool {
	if !sess.state.HandleDragEnd(ev) {
		return false
	}
	s.touched(r.Context(), sess, "drop")
	s.publish(r.Context(), events.TopicBuilderDropped, events.BuilderDropped{
		SessionID: sess.id,
		Active:    ev.Active,
		Over:      ev.Over,
		Fields:    sess.state.Len(),
	})
	return true
}

// pointerEvent is one raw pointer event of a drag gesture.
type pointerEvent struct {
	Type   string  `json:"type"` // begin, move, hover, end, cancel
	Source string  `json:"source,omitempty"`
	Target string  `json:"target,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type pointerResult struct {
	Dragging  bool        `json:"dragging"`
	Active    string      `json:"active,omitempty"`
	Highlight string      `json:"highlight"`
	Dropped   *dropResult `json:"dropped,omitempty"`
}

var highlightNames = map[builder.ContainerHighlight]string{
	builder.HighlightNone:  "none",
	builder.HighlightArmed: "armed",
	builder.HighlightOver:  "over",
}

// handlePointer handles POST /api/builder/sessions/{id}/pointer. It feeds
// raw pointer events through the session's drag tracker; an "end" that
// completes a drag is applied like a drop.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var ev pointerEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var res pointerResult
	s.presence.Record(presence.Activity{SessionID: sess.id, Name: sess.state.Name, Event: "pointer"})
	switch ev.Type {
	case "begin":
		sess.tracker.Begin(ev.Source, ev.X, ev.Y)
	case "move":
		sess.tracker.Move(ev.X, ev.Y)
	case "hover":
		sess.tracker.Hover(ev.Target)
	case "end":
		if ev.Target != "" {
			sess.tracker.Hover(ev.Target)
		}
		if drag, ok := sess.tracker.End(); ok {
			changed := s.applyDrop(r, sess, drag)
			res.Dropped = &dropResult{Changed: changed, Session: sess.view()}
		}
	case "cancel":
		sess.tracker.Cancel()
	default:
		writeError(w, http.StatusBadRequest, "unknown pointer event type")
		return
	}

	res.Active, res.Dragging = sess.tracker.Active()
	res.Highlight = highlightNames[sess.tracker.Highlight()]
	writeJSON(w, http.StatusOK, res)
}

type fieldPatch struct {
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// handlePatchField handles PATCH /api/builder/sessions/{id}/fields/{fieldId}
// with a JSON merge patch over {"label", "required"}.
func (s *Server) handlePatchField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fieldID := r.PathValue("fieldId")
	f, ok := sess.state.Field(fieldID)
	if !ok {
		writeError(w, http.StatusNotFound, "field not found")
		return
	}
	next, err := applyMergePatch(fieldPatch{Label: f.Label, Required: f.Required}, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.state.SetLabel(fieldID, next.Label)
	sess.state.SetRequired(fieldID, next.Required)
	s.touched(r.Context(), sess, "edit-field")
	writeJSON(w, http.StatusOK, sess.view())
}

// handleDeleteField handles DELETE /api/builder/sessions/{id}/fields/{fieldId}.
func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.state.Delete(r.PathValue("fieldId")) {
		writeError(w, http.StatusNotFound, "field not found")
		return
	}
	s.touched(r.Context(), sess, "delete-field")
	writeJSON(w, http.StatusOK, sess.view())
}

// handlePublish handles POST /api/builder/sessions/{id}/publish. The
// session stays open after publishing; publishing twice creates two forms.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	def, err := sess.state.Publish(r.Context(), s.forms)
	sess.mu.Unlock()
	if err != nil {
		var ie builder.InputError
		var pe *builder.PublishError
		var ae *formapi.APIError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.As(err, &ae):
			s.logger.Warn("form service rejected builder form", "session", sess.id, "status", ae.StatusCode, "err", err)
			writeError(w, ae.StatusCode, err.Error())
		case errors.As(err, &pe):
			s.logger.Error("publishing builder form", "session", sess.id, "err", pe.Err)
			writeError(w, http.StatusBadGateway, pe.Message)
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	body, err := json.Marshal(def)
	if err == nil {
		s.publish(r.Context(), events.TopicFormCreated, events.FormCreated{
			Form:      body,
			Source:    "builder",
			CreatedAt: time.Now().UTC(),
		})
	}
	writeJSON(w, http.StatusCreated, def)
}
