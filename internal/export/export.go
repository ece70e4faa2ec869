// Package export writes forms and their submissions as JSONL snapshots and
// ships them to one or more destinations.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// Source reads forms and submissions. Both the form service client and the
// formbuilder API client satisfy it.
type Source interface {
	ListForms(ctx context.Context) ([]model.FormDefinition, error)
	GetForm(ctx context.Context, id string) (*model.FormDefinition, error)
	ListSourceRecords(ctx context.Context, formID string) ([]model.SubmissionRecord, error)
}

// header is the first JSONL record written by WriteJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	FormCount   int       `json:"form_count"`
	RecordCount int       `json:"record_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// snapshot is everything one export run read from the source.
type snapshot struct {
	forms   []model.FormDefinition
	records map[string][]model.SubmissionRecord
}

func collect(ctx context.Context, src Source, formIDs []string) (*snapshot, error) {
	snap := &snapshot{records: make(map[string][]model.SubmissionRecord)}
	if len(formIDs) == 0 {
		forms, err := src.ListForms(ctx)
		if err != nil {
			return nil, fmt.Errorf("list forms: %w", err)
		}
		snap.forms = forms
	} else {
		for _, id := range formIDs {
			def, err := src.GetForm(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get form %s: %w", id, err)
			}
			snap.forms = append(snap.forms, *def)
		}
	}

	sort.Slice(snap.forms, func(i, j int) bool {
		return snap.forms[i].ID < snap.forms[j].ID
	})

	for _, f := range snap.forms {
		recs, err := src.ListSourceRecords(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", f.ID, err)
		}
		snap.records[f.ID] = recs
	}
	return snap, nil
}

// WriteJSONL writes a header, then each form followed by its submissions.
// Forms are sorted by ID; submissions keep service order. With no formIDs
// every form is exported.
func WriteJSONL(ctx context.Context, src Source, formIDs []string, w io.Writer) error {
	snap, err := collect(ctx, src, formIDs)
	if err != nil {
		return err
	}

	total := 0
	for _, recs := range snap.records {
		total += len(recs)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		FormCount:   len(snap.forms),
		RecordCount: total,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, f := range snap.forms {
		if err := enc.Encode(record{Type: "form", Data: f}); err != nil {
			return fmt.Errorf("encode form %s: %w", f.ID, err)
		}
		for _, r := range snap.records[f.ID] {
			if err := enc.Encode(record{Type: "record", Data: r}); err != nil {
				return fmt.Errorf("encode record %s: %w", r.ID, err)
			}
		}
	}
	return nil
}

// Destination is a target for an export (file, S3, git).
type Destination interface {
	// Write stores the JSONL payload.
	Write(ctx context.Context, data []byte) error
}

// Run exports once and writes the payload to every destination. A failing
// destination does not stop the others; their errors are joined.
func Run(ctx context.Context, src Source, formIDs []string, dests []Destination, logger *slog.Logger) error {
	var buf bytes.Buffer
	if err := WriteJSONL(ctx, src, formIDs, &buf); err != nil {
		logger.Error("export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	var errs []error
	for i, dest := range dests {
		if err := dest.Write(ctx, data); err != nil {
			logger.Error("export destination write failed", "destination", i, "err", err)
			errs = append(errs, err)
		}
	}

	logger.Info("export completed", "destinations", len(dests), "bytes", len(data))
	return errors.Join(errs...)
}
