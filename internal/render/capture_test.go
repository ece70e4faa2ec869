package render

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

func testDefinition() *model.FormDefinition {
	fields := model.NewFieldMap()
	fields.Set("f-name", model.FieldSpec{Type: "text", Question: "Name", Required: true})
	fields.Set("f-pass", model.FieldSpec{Type: "password", Question: "Secret", Required: false})
	fields.Set("f-age", model.FieldSpec{Type: "number", Question: "Age", Required: true})
	fields.Set("f-when", model.FieldSpec{Type: "datetime", Question: "When", Required: false})
	return &model.FormDefinition{ID: "form-1", Name: "Signup", Fields: fields}
}

type fakePoster struct {
	got *model.CreateSourceRecordRequest
	err error
}

func (p *fakePoster) CreateSourceRecord(_ context.Context, req *model.CreateSourceRecordRequest) error {
	p.got = req
	return p.err
}

type fakeAPIError struct{ msg string }

func (e *fakeAPIError) Error() string      { return "status 422" }
func (e *fakeAPIError) APIMessage() string { return e.msg }

func TestCaptureFieldsInDefinitionOrder(t *testing.T) {
	c := NewCapture(testDefinition())
	var ids []string
	for _, f := range c.Fields() {
		ids = append(ids, f.ID)
	}
	want := []string{"f-name", "f-pass", "f-age", "f-when"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("field order (-want +got):\n%s", diff)
	}
}

func TestCaptureSet(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		want    string
		wantErr bool
	}{
		{name: "text verbatim", field: "f-name", value: "Ada <b>", want: "Ada <b>"},
		{name: "number integer", field: "f-age", value: "42", want: "42"},
		{name: "number decimal", field: "f-age", value: "-3.5", want: "-3.5"},
		{name: "number exponent", field: "f-age", value: "1e3", want: "1e3"},
		{name: "number letters", field: "f-age", value: "4x2", wantErr: true},
		{name: "datetime local input", field: "f-when", value: "2024-03-05T14:30", want: "2024-03-05T14:30:00.000Z"},
		{name: "datetime wire format", field: "f-when", value: "2024-01-01T00:00:00.000Z", want: "2024-01-01T00:00:00.000Z"},
		{name: "datetime offset", field: "f-when", value: "2024-01-01T02:00:00+02:00", want: "2024-01-01T00:00:00.000Z"},
		{name: "datetime garbage", field: "f-when", value: "tomorrow", wantErr: true},
		{name: "unknown field", field: "nope", value: "x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCapture(testDefinition())
			err := c.Set(tt.field, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Set(%q, %q) = nil, want error", tt.field, tt.value)
				}
				if got := c.Value(tt.field); got != "" {
					t.Errorf("value after rejected Set = %q, want empty", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got := c.Value(tt.field); got != tt.want {
				t.Errorf("Value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaptureSetEmptyClears(t *testing.T) {
	c := NewCapture(testDefinition())
	_ = c.Set("f-name", "Ada")
	if err := c.Set("f-name", ""); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	if _, ok := c.Payload().SourceData["f-name"]; ok {
		t.Error("cleared answer still in payload")
	}
}

func TestCaptureSetDateTime(t *testing.T) {
	c := NewCapture(testDefinition())
	if err := c.SetDateTime("f-when", "2024-01-01", ""); err != nil {
		t.Fatalf("SetDateTime: %v", err)
	}
	if got := c.Value("f-when"); got != "2024-01-01T00:00:00.000Z" {
		t.Errorf("date only = %q", got)
	}
	if err := c.SetDateTime("f-when", "2024-01-01", "09:15"); err != nil {
		t.Fatalf("SetDateTime: %v", err)
	}
	if got := c.Value("f-when"); got != "2024-01-01T09:15:00.000Z" {
		t.Errorf("date and time = %q", got)
	}
	if err := c.SetDateTime("f-when", "", "09:15"); err != nil {
		t.Fatalf("SetDateTime: %v", err)
	}
	if got := c.Value("f-when"); got != "" {
		t.Errorf("no date = %q, want cleared", got)
	}
}

func TestCaptureValidateReportsMissingInOrder(t *testing.T) {
	c := NewCapture(testDefinition())
	err := c.Validate()
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("Validate() = %v, want *MissingFieldsError", err)
	}
	if got, want := err.Error(), "Please fill in required fields: Name, Age"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	_ = c.Set("f-age", "7")
	if got, want := c.Validate().Error(), "Please fill in required fields: Name"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestCaptureSpacesCountAsAnswer(t *testing.T) {
	fields := model.NewFieldMap()
	fields.Set("f1", model.FieldSpec{Type: "text", Question: "Name", Required: true})
	c := NewCapture(&model.FormDefinition{ID: "form-x", Fields: fields})

	if err := c.Set("f1", "  "); err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestCaptureSingleRequiredField(t *testing.T) {
	fields := model.NewFieldMap()
	fields.Set("f1", model.FieldSpec{Type: "text", Question: "Name", Required: true})
	c := NewCapture(&model.FormDefinition{ID: "form-x", Fields: fields})

	p := &fakePoster{}
	err := c.Submit(context.Background(), p)
	if err == nil || err.Error() != "Please fill in required fields: Name" {
		t.Fatalf("Submit() = %v", err)
	}
	if p.got != nil {
		t.Error("blocked submission reached the poster")
	}
	if c.Phase() != PhaseEditing {
		t.Errorf("phase = %s, want editing", c.Phase())
	}
}

func TestCaptureSubmitSuccessClearsValues(t *testing.T) {
	c := NewCapture(testDefinition())
	_ = c.Set("f-name", "Ada")
	_ = c.Set("f-age", "36")

	p := &fakePoster{}
	if err := c.Submit(context.Background(), p); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := &model.CreateSourceRecordRequest{
		FormID:     "form-1",
		SourceData: map[string]string{"f-name": "Ada", "f-age": "36"},
	}
	if diff := cmp.Diff(want, p.got); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
	if c.Phase() != PhaseSucceeded {
		t.Errorf("phase = %s, want succeeded", c.Phase())
	}
	if c.Value("f-name") != "" {
		t.Error("values kept after success")
	}

	c.Reset()
	if c.Phase() != PhaseEditing || c.Err() != "" {
		t.Errorf("after Reset phase = %s err = %q", c.Phase(), c.Err())
	}
}

func TestCaptureSubmitFailureKeepsValues(t *testing.T) {
	for _, tc := range []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", &fakeAPIError{msg: "Form is closed"}, "Form is closed"},
		{"transport error", errors.New("connection refused"), "Failed to submit form"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCapture(testDefinition())
			_ = c.Set("f-name", "Ada")
			_ = c.Set("f-age", "36")

			if err := c.Submit(context.Background(), &fakePoster{err: tc.err}); err == nil {
				t.Fatal("Submit() = nil, want error")
			}
			if c.Phase() != PhaseFailed {
				t.Errorf("phase = %s, want failed", c.Phase())
			}
			if c.Err() != tc.wantMsg {
				t.Errorf("Err() = %q, want %q", c.Err(), tc.wantMsg)
			}
			if c.Value("f-name") != "Ada" || c.Value("f-age") != "36" {
				t.Error("values lost after failure")
			}
		})
	}
}

func TestCaptureForm(t *testing.T) {
	c := NewCapture(testDefinition())
	form := url.Values{
		"f-name":      {"  Ada  "},
		"f-age":       {"36"},
		"f-when-date": {"2024-02-29"},
		"f-when-time": {"08:00"},
	}
	if err := CaptureForm(c, form); err != nil {
		t.Fatalf("CaptureForm: %v", err)
	}
	want := map[string]string{
		"f-name": "Ada",
		"f-age":  "36",
		"f-when": "2024-02-29T08:00:00.000Z",
	}
	if diff := cmp.Diff(want, c.Payload().SourceData); diff != "" {
		t.Errorf("captured (-want +got):\n%s", diff)
	}
}

func TestCaptureFormReportsBadNumber(t *testing.T) {
	c := NewCapture(testDefinition())
	err := CaptureForm(c, url.Values{"f-name": {"Ada"}, "f-age": {"old"}})
	if err == nil {
		t.Fatal("CaptureForm() = nil, want error")
	}
	if c.Value("f-name") != "Ada" {
		t.Error("valid answers should still be captured")
	}
}
