// Package events publishes notifications about forms and submissions that
// passed through the proxy.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event topic constants
const (
	TopicFormCreated     = "forms.form.created"
	TopicRecordSubmitted = "forms.record.submitted"
	TopicBuilderDropped  = "forms.builder.dropped"

	// TopicAll matches every topic above.
	TopicAll = "forms.>"
)

// FormCreated is emitted after the form service accepted a new form. Form is
// the service's response body, passed through untouched.
type FormCreated struct {
	Form      json.RawMessage `json:"form"`
	Source    string          `json:"source"` // "proxy" or "builder"
	CreatedAt time.Time       `json:"created_at"`
}

// RecordSubmitted is emitted after a submission was stored.
type RecordSubmitted struct {
	FormID      string          `json:"form_id"`
	Record      json.RawMessage `json:"record,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// BuilderDropped is emitted when a drop gesture changed a builder session.
type BuilderDropped struct {
	SessionID string `json:"session_id"`
	Active    string `json:"active"`
	Over      string `json:"over"`
	Fields    int    `json:"fields"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
