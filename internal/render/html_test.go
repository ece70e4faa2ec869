package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

func newTestHTML(t *testing.T) *HTML {
	t.Helper()
	h, err := NewHTML(Formatter{})
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	return h
}

func TestFormPageRendersFieldsInOrder(t *testing.T) {
	h := newTestHTML(t)
	var buf bytes.Buffer
	if err := h.FormPage(&buf, "Signup", NewCapture(testDefinition()), ""); err != nil {
		t.Fatalf("FormPage: %v", err)
	}
	out := buf.String()

	name := strings.Index(out, `id="f-name"`)
	pass := strings.Index(out, `id="f-pass"`)
	age := strings.Index(out, `id="f-age"`)
	when := strings.Index(out, `id="f-when-date"`)
	if name < 0 || pass < 0 || age < 0 || when < 0 {
		t.Fatalf("missing inputs in:\n%s", out)
	}
	if !(name < pass && pass < age && age < when) {
		t.Errorf("inputs out of order: %d %d %d %d", name, pass, age, when)
	}
	for _, want := range []string{`type="password"`, `type="number"`, `type="date"`, `type="time"`} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %s", want)
		}
	}
}

func TestFormPageSanitizesLabels(t *testing.T) {
	fields := model.NewFieldMap()
	fields.Set("f1", model.FieldSpec{Type: "text", Question: `<script>alert(1)</script>Name & age`})
	c := NewCapture(&model.FormDefinition{ID: "form-x", Fields: fields})

	var buf bytes.Buffer
	if err := newTestHTML(t).FormPage(&buf, "<b>Bold</b>", c, ""); err != nil {
		t.Fatalf("FormPage: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>Bold") {
		t.Errorf("markup leaked into page:\n%s", out)
	}
	if !strings.Contains(out, "Name &amp; age") {
		t.Errorf("label text not escaped once:\n%s", out)
	}
}

func TestFormPageStates(t *testing.T) {
	h := newTestHTML(t)
	c := NewCapture(testDefinition())
	_ = c.Set("f-name", "Ada")

	var buf bytes.Buffer
	if err := h.FormPage(&buf, "Signup", c, "Please fill in required fields: Age"); err != nil {
		t.Fatalf("FormPage: %v", err)
	}
	if !strings.Contains(buf.String(), "Please fill in required fields: Age") {
		t.Error("error message not shown")
	}
	if !strings.Contains(buf.String(), `value="Ada"`) {
		t.Error("captured value not kept")
	}

	c.phase = PhaseSucceeded
	buf.Reset()
	if err := h.FormPage(&buf, "Signup", c, ""); err != nil {
		t.Fatalf("FormPage: %v", err)
	}
	if !strings.Contains(buf.String(), "Submit another response") {
		t.Error("success state missing reset link")
	}
	if strings.Contains(buf.String(), "<form") {
		t.Error("success state should not render inputs")
	}
}

func TestRecordsPage(t *testing.T) {
	records := []model.SubmissionRecord{{
		ID: "rec-1",
		SourceData: []model.SourceDataItem{
			{ID: "a", Question: "Born", Answer: "2024-01-01T00:00:00.000Z"},
			{ID: "b", Question: "Note", Answer: "<i>hi</i>"},
		},
	}}
	var buf bytes.Buffer
	if err := newTestHTML(t).RecordsPage(&buf, "form-1", records, ""); err != nil {
		t.Fatalf("RecordsPage: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"rec-1", "1/1/2024", "hi"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(out, "<i>") {
		t.Error("answer markup leaked")
	}
}

func TestIndexPage(t *testing.T) {
	forms := []model.FormDefinition{{ID: "form-1", Name: "Signup"}}
	var buf bytes.Buffer
	if err := newTestHTML(t).IndexPage(&buf, forms, ""); err != nil {
		t.Fatalf("IndexPage: %v", err)
	}
	if !strings.Contains(buf.String(), `href="/forms/form-1"`) {
		t.Errorf("index missing form link:\n%s", buf.String())
	}
}
