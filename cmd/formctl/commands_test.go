package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/builder"
	"github.com/alfredjeanlab/formbuilder/internal/client"
	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/presence"
)

// fakeClient implements the calls the tests exercise; anything else panics
// on the nil embedded interface.
type fakeClient struct {
	client.FormsClient

	forms   map[string]*model.FormDefinition
	records map[string][]model.SubmissionRecord
	created []*model.CreateFormRequest
	posted  []*model.CreateSourceRecordRequest
	drops   []builder.DragEnd
	updates []*client.UpdateFieldRequest
	roster  []presence.Entry
	postErr error
}

func (f *fakeClient) GetForm(_ context.Context, id string) (*model.FormDefinition, error) {
	def, ok := f.forms[id]
	if !ok {
		return nil, errors.New("form not found")
	}
	return def, nil
}

func (f *fakeClient) ListForms(context.Context) ([]model.FormDefinition, error) {
	var out []model.FormDefinition
	for _, d := range f.forms {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeClient) ListSourceRecords(_ context.Context, formID string) ([]model.SubmissionRecord, error) {
	return f.records[formID], nil
}

func (f *fakeClient) CreateForm(_ context.Context, req *model.CreateFormRequest) (*model.FormDefinition, error) {
	f.created = append(f.created, req)
	return &model.FormDefinition{ID: "form-new", Name: req.Name, Fields: req.Fields}, nil
}

func (f *fakeClient) CreateSourceRecord(_ context.Context, req *model.CreateSourceRecordRequest) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, req)
	return nil
}

func (f *fakeClient) ListSessions(context.Context) ([]presence.Entry, error) {
	return f.roster, nil
}

func (f *fakeClient) Drop(_ context.Context, id string, ev builder.DragEnd) (*client.DropResult, error) {
	f.drops = append(f.drops, ev)
	return &client.DropResult{Changed: true, Session: model.BuilderSession{ID: id, Name: "Draft"}}, nil
}

func (f *fakeClient) UpdateField(_ context.Context, sessionID, fieldID string, req *client.UpdateFieldRequest) (*model.BuilderSession, error) {
	f.updates = append(f.updates, req)
	return &model.BuilderSession{ID: sessionID, Name: "Draft"}, nil
}

func (f *fakeClient) Health(context.Context) (string, error) {
	return "ok", nil
}

func contactForm() *model.FormDefinition {
	fields := model.NewFieldMap()
	fields.Set("f-name", model.FieldSpec{Type: "text", Question: "Full name", Required: true})
	fields.Set("f-age", model.FieldSpec{Type: "number", Question: "Age"})
	fields.Set("f-dob", model.FieldSpec{Type: "datetime", Question: "Birthday"})
	return &model.FormDefinition{ID: "form-1", Name: "Contact", Fields: fields}
}

func useFakeClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	prev := formsClient
	formsClient = fc
	t.Cleanup(func() { formsClient = prev })
}

func runCmd(t *testing.T, c *cobra.Command, args []string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetErr(nil)
	})
	err := c.RunE(c, args)
	return buf.String(), err
}

func TestFormsCreateFromScript(t *testing.T) {
	fc := &fakeClient{}
	useFakeClient(t, fc)

	path := filepath.Join(t.TempDir(), "contact.yaml")
	script := "name: Contact\nfields:\n  - kind: text\n    label: Full name\n  - kind: number\n    label: Age\n    required: false\n"
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := formsCreateCmd.Flags().Set("file", path); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = formsCreateCmd.Flags().Set("file", "") })

	out, err := runCmd(t, formsCreateCmd, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "Created form Contact (form-new)") {
		t.Errorf("output = %q", out)
	}
	if len(fc.created) != 1 {
		t.Fatalf("created %d forms, want 1", len(fc.created))
	}
	var got []model.FieldSpec
	for pair := fc.created[0].Fields.Oldest(); pair != nil; pair = pair.Next() {
		got = append(got, pair.Value)
	}
	want := []model.FieldSpec{
		{Type: "text", Question: "Full name", Required: true},
		{Type: "number", Question: "Age", Required: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFormsShow(t *testing.T) {
	useFakeClient(t, &fakeClient{forms: map[string]*model.FormDefinition{"form-1": contactForm()}})

	out, err := runCmd(t, formsShowCmd, []string{"form-1"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Contact", "f-name", "TEXT", "Full name", "NUMBER", "DATETIME"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "f-name") > strings.Index(out, "f-age") {
		t.Errorf("fields out of order:\n%s", out)
	}
}

func TestRecordsList(t *testing.T) {
	useFakeClient(t, &fakeClient{records: map[string][]model.SubmissionRecord{
		"form-1": {{
			ID:     "rec-1",
			FormID: "form-1",
			SourceData: []model.SourceDataItem{
				{ID: "f-name", Question: "Full name", Answer: "Ada"},
				{ID: "f-dob", Question: "Birthday", Answer: "1815-12-10T00:00:00.000Z"},
			},
		}},
	}})

	out, err := runCmd(t, recordsListCmd, []string{"form-1"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Record rec-1", "Full name", "Ada", "12/10/1815"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRecordsSubmit(t *testing.T) {
	fc := &fakeClient{forms: map[string]*model.FormDefinition{"form-1": contactForm()}}
	useFakeClient(t, fc)

	set := func(vals ...string) {
		t.Helper()
		f := recordsSubmitCmd.Flags().Lookup("set")
		if err := f.Value.(interface{ Replace([]string) error }).Replace(vals); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { set() })

	set("f-name=Ada", "f-age=36", "f-dob=2024-03-01")
	if _, err := runCmd(t, recordsSubmitCmd, []string{"form-1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(fc.posted) != 1 {
		t.Fatalf("posted %d records, want 1", len(fc.posted))
	}
	want := &model.CreateSourceRecordRequest{
		FormID: "form-1",
		SourceData: map[string]string{
			"f-name": "Ada",
			"f-age":  "36",
			"f-dob":  "2024-03-01T00:00:00.000Z",
		},
	}
	if diff := cmp.Diff(want, fc.posted[0]); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	t.Run("missing required", func(t *testing.T) {
		set("f-age=36")
		if _, err := runCmd(t, recordsSubmitCmd, []string{"form-1"}); err == nil {
			t.Fatal("expected error for missing required field")
		}
		if len(fc.posted) != 1 {
			t.Errorf("nothing should be posted, got %d", len(fc.posted))
		}
	})

	t.Run("malformed set", func(t *testing.T) {
		set("f-name")
		if _, err := runCmd(t, recordsSubmitCmd, []string{"form-1"}); err == nil {
			t.Fatal("expected error for --set without '='")
		}
	})

	t.Run("service error", func(t *testing.T) {
		fc.postErr = &client.APIError{StatusCode: 400, Message: "Form is closed"}
		t.Cleanup(func() { fc.postErr = nil })
		set("f-name=Ada")
		_, err := runCmd(t, recordsSubmitCmd, []string{"form-1"})
		if err == nil || !strings.Contains(err.Error(), "Form is closed") {
			t.Fatalf("err = %v, want service message", err)
		}
	})
}

func TestBuilderDrop(t *testing.T) {
	fc := &fakeClient{}
	useFakeClient(t, fc)

	if _, err := runCmd(t, builderDropCmd, []string{"sess-1", "Number"}); err != nil {
		t.Fatal(err)
	}
	if err := builderDropCmd.Flags().Set("over", "fld-2"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = builderDropCmd.Flags().Set("over", builder.ContainerID) })
	if _, err := runCmd(t, builderDropCmd, []string{"sess-1", "fld-1"}); err != nil {
		t.Fatal(err)
	}

	want := []builder.DragEnd{
		{Active: "new-number", Over: builder.ContainerID},
		{Active: "fld-1", Over: "fld-2"},
	}
	if diff := cmp.Diff(want, fc.drops); diff != "" {
		t.Errorf("drops mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilderRequireOff(t *testing.T) {
	fc := &fakeClient{}
	useFakeClient(t, fc)

	if err := builderRequireCmd.Flags().Set("off", "true"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = builderRequireCmd.Flags().Set("off", "false") })

	if _, err := runCmd(t, builderRequireCmd, []string{"sess-1", "fld-1"}); err != nil {
		t.Fatal(err)
	}
	if len(fc.updates) != 1 || fc.updates[0].Required == nil || *fc.updates[0].Required {
		t.Fatalf("updates = %+v, want required=false", fc.updates)
	}
	if fc.updates[0].Label != nil {
		t.Error("label must not be sent")
	}
}

func TestBuilderSessions(t *testing.T) {
	useFakeClient(t, &fakeClient{roster: []presence.Entry{
		{SessionID: "sess-1", Name: "Contact", LastEvent: "drop", IdleSecs: 125, EventCount: 4},
	}})

	out, err := runCmd(t, builderSessionsCmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sess-1", "Contact", "drop", "2m", "4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHealth(t *testing.T) {
	useFakeClient(t, &fakeClient{})
	out, err := runCmd(t, healthCmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Health: ok\n" {
		t.Errorf("output = %q", out)
	}
}

func TestHealth_JSON(t *testing.T) {
	useFakeClient(t, &fakeClient{})
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	out, err := runCmd(t, healthCmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	var report healthReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Status != "ok" || report.Latency == "" {
		t.Errorf("report = %+v", report)
	}
}

func TestExportToFile(t *testing.T) {
	useFakeClient(t, &fakeClient{
		forms:   map[string]*model.FormDefinition{"form-1": contactForm()},
		records: map[string][]model.SubmissionRecord{"form-1": {{ID: "rec-1", FormID: "form-1"}}},
	})

	path := filepath.Join(t.TempDir(), "out", "forms.jsonl")
	if err := exportCmd.Flags().Set("file", path); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = exportCmd.Flags().Set("file", "") })

	if _, err := runCmd(t, exportCmd, nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + form + record:\n%s", len(lines), data)
	}
}

func TestHooksFire(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "fired")
	hooksFile := filepath.Join(dir, "hooks.yaml")
	cfg := "hooks:\n  - name: mark\n    topic: forms.record.*\n    command: printf '%s' \"$FORMBUILDER_TOPIC\" > " + marker + "\n"
	if err := os.WriteFile(hooksFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := hooksFireCmd.Flags().Set("file", hooksFile); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = hooksFireCmd.Flags().Set("file", "hooks.yaml") })

	out, err := runCmd(t, hooksFireCmd, []string{events.TopicRecordSubmitted, `{"form_id":"form-1"}`})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Ran 1 hook(s)") {
		t.Errorf("output = %q", out)
	}
	got, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	if string(got) != events.TopicRecordSubmitted {
		t.Errorf("FORMBUILDER_TOPIC = %q", got)
	}
}

func TestEventSummary(t *testing.T) {
	tests := []struct {
		msg  events.Message
		want string
	}{
		{
			events.Message{Topic: events.TopicFormCreated, Data: []byte(`{"form":{"id":"form-1","name":"Contact"},"source":"builder"}`)},
			`form form-1 "Contact" via builder`,
		},
		{
			events.Message{Topic: events.TopicRecordSubmitted, Data: []byte(`{"form_id":"form-1"}`)},
			"record for form form-1",
		},
		{
			events.Message{Topic: events.TopicBuilderDropped, Data: []byte(`{"session_id":"s1","active":"new-text","over":"form-area","fields":3}`)},
			"session s1: new-text onto form-area (3 fields)",
		},
		{
			events.Message{Topic: "forms.other", Data: []byte(`{"x":1}`)},
			`{"x":1}`,
		},
	}
	for _, tc := range tests {
		if got := eventSummary(tc.msg); got != tc.want {
			t.Errorf("eventSummary(%s) = %q, want %q", tc.msg.Topic, got, tc.want)
		}
	}

	var buf bytes.Buffer
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	printEvent(&buf, at, tests[1].msg)
	if got := buf.String(); got != "09:30:00  forms.record.submitted  record for form form-1\n" {
		t.Errorf("printEvent = %q", got)
	}
}

func TestDragSource(t *testing.T) {
	for arg, want := range map[string]string{
		"text":     "new-text",
		"DATETIME": "new-datetime",
		"fld-abc":  "fld-abc",
	} {
		if got := dragSource(arg); got != want {
			t.Errorf("dragSource(%q) = %q, want %q", arg, got, want)
		}
	}
}

func TestColorizeHelpOutputKeepsLayout(t *testing.T) {
	in := "Forms:\n  forms       List forms\n\nFlags:\n      --url string   service URL (default \"http://localhost:3000\")\n"
	// Colors are off in tests, so styling must leave the text untouched.
	if got := colorizeHelpOutput(in); got != in {
		t.Errorf("colorizeHelpOutput changed plain text:\n got %q\nwant %q", got, in)
	}
}
