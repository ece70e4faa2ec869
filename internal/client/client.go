// Package client provides the interface the formctl commands use to talk to
// a running formbuilder service, and its HTTP/JSON implementation.
package client

import (
	"context"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/presence"
)

// FormsClient is implemented by HTTPClient. Commands depend on the
// interface so they can be tested against fakes.
type FormsClient interface {
	// Forms
	ListForms(ctx context.Context) ([]model.FormDefinition, error)
	GetForm(ctx context.Context, id string) (*model.FormDefinition, error)
	CreateForm(ctx context.Context, req *model.CreateFormRequest) (*model.FormDefinition, error)

	// Source records
	ListSourceRecords(ctx context.Context, formID string) ([]model.SubmissionRecord, error)
	CreateSourceRecord(ctx context.Context, req *model.CreateSourceRecordRequest) error

	// Builder sessions
	Palette(ctx context.Context) ([]builder.PaletteItem, error)
	ListSessions(ctx context.Context) ([]presence.Entry, error)
	CreateSession(ctx context.Context, name string) (*model.BuilderSession, error)
	GetSession(ctx context.Context, id string) (*model.BuilderSession, error)
	RenameSession(ctx context.Context, id, name string) (*model.BuilderSession, error)
	Drop(ctx context.Context, id string, ev builder.DragEnd) (*DropResult, error)
	UpdateField(ctx context.Context, sessionID, fieldID string, req *UpdateFieldRequest) (*model.BuilderSession, error)
	DeleteField(ctx context.Context, sessionID, fieldID string) (*model.BuilderSession, error)
	PublishSession(ctx context.Context, id string) (*model.FormDefinition, error)
	DeleteSession(ctx context.Context, id string) error

	// Health
	Health(ctx context.Context) (string, error)
}

// DropResult is the response from Drop.
type DropResult struct {
	Changed bool                 `json:"changed"`
	Session model.BuilderSession `json:"session"`
}

// UpdateFieldRequest holds optional field edits. Nil pointer fields mean
// "don't change"; the request is sent as a JSON merge patch.
type UpdateFieldRequest struct {
	Label    *string `json:"label,omitempty"`
	Required *bool   `json:"required,omitempty"`
}
