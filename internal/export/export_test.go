package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

type fakeSource struct {
	forms   []model.FormDefinition
	records map[string][]model.SubmissionRecord
	err     error
}

func (f *fakeSource) ListForms(context.Context) ([]model.FormDefinition, error) {
	return f.forms, f.err
}

func (f *fakeSource) GetForm(_ context.Context, id string) (*model.FormDefinition, error) {
	for _, def := range f.forms {
		if def.ID == id {
			return &def, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSource) ListSourceRecords(_ context.Context, formID string) ([]model.SubmissionRecord, error) {
	return f.records[formID], nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		forms: []model.FormDefinition{
			{ID: "form-b", Name: "Second"},
			{ID: "form-a", Name: "First"},
		},
		records: map[string][]model.SubmissionRecord{
			"form-a": {
				{ID: "r2", FormID: "form-a", SourceData: []model.SourceDataItem{{ID: "f1", Question: "Q", Answer: "<b>"}}},
				{ID: "r1", FormID: "form-a"},
			},
		},
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

type line struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONL(context.Background(), newFakeSource(), nil, &buf); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.FormCount != 2 || h.RecordCount != 2 {
		t.Fatalf("unexpected header: %+v", h)
	}

	var order []string
	for _, l := range lines[1:] {
		var rec line
		if err := json.Unmarshal([]byte(l), &rec); err != nil {
			t.Fatalf("unmarshal %q: %v", l, err)
		}
		var id struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(rec.Data, &id)
		order = append(order, rec.Type+":"+id.ID)
	}
	want := []string{"form:form-a", "record:r2", "record:r1", "form:form-b"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("line order (-want +got):\n%s", diff)
	}

	if !strings.Contains(buf.String(), `"answer":"<b>"`) {
		t.Error("HTML in answers should not be escaped")
	}
}

func TestWriteJSONL_SelectedForms(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONL(context.Background(), newFakeSource(), []string{"form-b"}, &buf); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	if lines := nonEmptyLines(buf.String()); len(lines) != 2 {
		t.Fatalf("expected header and one form, got %d lines", len(lines))
	}

	err := WriteJSONL(context.Background(), newFakeSource(), []string{"missing"}, &buf)
	if err == nil {
		t.Fatal("expected error for unknown form")
	}
}

func TestWriteJSONL_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("service down")}
	if err := WriteJSONL(context.Background(), src, nil, io.Discard); err == nil {
		t.Fatal("expected error")
	}
}

type recordingDestination struct {
	data []byte
	err  error
}

func (d *recordingDestination) Write(_ context.Context, data []byte) error {
	d.data = append([]byte(nil), data...)
	return d.err
}

func TestRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := &recordingDestination{}
	bad := &recordingDestination{err: errors.New("disk full")}

	err := Run(context.Background(), newFakeSource(), nil, []Destination{bad, ok}, logger)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Run() = %v, want disk full error", err)
	}
	if len(ok.data) == 0 {
		t.Error("healthy destination skipped after a failing one")
	}
	if !bytes.Equal(ok.data, bad.data) {
		t.Error("destinations received different payloads")
	}
}
