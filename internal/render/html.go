package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// sanitize strips markup from user-authored text. The strict policy also
// escapes what remains, so the result is marked safe to avoid escaping twice.
func sanitize(s string) template.HTML {
	return template.HTML(textSanitizer().Sanitize(s))
}

// HTML renders the server-side pages.
type HTML struct {
	pages  map[string]*template.Template
	format Formatter
}

// NewHTML parses the embedded page templates.
func NewHTML(format Formatter) (*HTML, error) {
	funcs := template.FuncMap{"sanitize": sanitize}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "form", "records"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(embeddedTemplates,
			"templates/layout.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &HTML{pages: pages, format: format}, nil
}

func (h *HTML) execute(w io.Writer, page string, data any) error {
	if err := h.pages[page].ExecuteTemplate(w, page+".tmpl", data); err != nil {
		return fmt.Errorf("rendering %s page: %w", page, err)
	}
	return nil
}

// IndexPage lists forms with links to fill and view them.
func (h *HTML) IndexPage(w io.Writer, forms []model.FormDefinition, errMsg string) error {
	return h.execute(w, "index", struct {
		Forms []model.FormDefinition
		Error string
	}{forms, errMsg})
}

// fieldView is one input of the form page.
type fieldView struct {
	model.FormField
	model.KindTraits
	Value string
	Date  string
	Clock string
}

// FormPage renders c as a fillable form, or its success state once
// submitted. errMsg is shown above the inputs.
func (h *HTML) FormPage(w io.Writer, name string, c *Capture, errMsg string) error {
	fields := make([]fieldView, 0, len(c.fields))
	for _, f := range c.fields {
		v := fieldView{FormField: f, KindTraits: f.Kind.Traits(), Value: c.Value(f.ID)}
		if v.Composite && v.Value != "" {
			if t, err := time.Parse(DateTimeLayout, v.Value); err == nil {
				v.Date, v.Clock = t.Format("2006-01-02"), t.Format("15:04")
			}
		}
		fields = append(fields, v)
	}
	if errMsg == "" {
		errMsg = c.Err()
	}
	return h.execute(w, "form", struct {
		FormID    string
		Name      string
		Fields    []fieldView
		Error     string
		Succeeded bool
	}{c.FormID(), name, fields, errMsg, c.Phase() == PhaseSucceeded})
}

// RecordsPage renders the submissions of a form.
func (h *HTML) RecordsPage(w io.Writer, formID string, records []model.SubmissionRecord, errMsg string) error {
	return h.execute(w, "records", struct {
		FormID  string
		Records []RecordView
		Error   string
	}{formID, h.format.Records(records), strings.TrimSpace(errMsg)})
}
