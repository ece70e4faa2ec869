// Package render turns form definitions into fillable forms (HTML and
// terminal), captures answers, and formats submitted answers for display.
package render

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// Phase is the lifecycle stage of a capture.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// submitFailed is shown when the service gives no message of its own.
const submitFailed = "Failed to submit form"

// DateTimeLayout is the wire format of captured DATETIME answers.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

var numericRE = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// MissingFieldsError blocks a submission with empty required fields.
type MissingFieldsError struct {
	Labels []string
}

func (e *MissingFieldsError) Error() string {
	return "Please fill in required fields: " + strings.Join(e.Labels, ", ")
}

// RecordPoster submits one form response.
type RecordPoster interface {
	CreateSourceRecord(ctx context.Context, req *model.CreateSourceRecordRequest) error
}

// Capture holds the answers entered against one form definition.
type Capture struct {
	formID string
	fields []model.FormField
	values map[string]string

	phase Phase
	err   string
}

// NewCapture starts an empty capture for def.
func NewCapture(def *model.FormDefinition) *Capture {
	return &Capture{
		formID: def.ID,
		fields: def.FormFields(),
		values: make(map[string]string),
	}
}

// FormID returns the ID of the captured form.
func (c *Capture) FormID() string { return c.formID }

// Fields returns the form's fields in render order.
func (c *Capture) Fields() []model.FormField {
	out := make([]model.FormField, len(c.fields))
	copy(out, c.fields)
	return out
}

func (c *Capture) field(id string) (model.FormField, bool) {
	for _, f := range c.fields {
		if f.ID == id {
			return f, true
		}
	}
	return model.FormField{}, false
}

// Set records the answer for fieldID. An empty value clears it. NUMBER
// fields reject non-numeric input; DATETIME fields accept either the wire
// format or a datetime-local value ("2006-01-02T15:04").
func (c *Capture) Set(fieldID, value string) error {
	f, ok := c.field(fieldID)
	if !ok {
		return fmt.Errorf("unknown field %q", fieldID)
	}
	if value == "" {
		delete(c.values, fieldID)
		return nil
	}
	traits := f.Kind.Traits()
	switch {
	case traits.NumericOnly:
		if !numericRE.MatchString(value) {
			return fmt.Errorf("%s: %q is not a number", f.Label, value)
		}
	case traits.Composite:
		ts, err := parseDateTime(value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Label, err)
		}
		value = ts
	}
	c.values[fieldID] = value
	return nil
}

// SetDateTime records a DATETIME answer from separate date ("2006-01-02")
// and clock ("15:04") parts. A missing clock means midnight; a missing
// date clears the answer.
func (c *Capture) SetDateTime(fieldID, date, clock string) error {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return c.Set(fieldID, "")
	}
	if clock == "" {
		clock = "00:00"
	}
	return c.Set(fieldID, date+"T"+clock)
}

var dateTimeInputs = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDateTime normalizes an accepted input to DateTimeLayout in UTC.
// Inputs without a zone are taken as UTC.
func parseDateTime(s string) (string, error) {
	for _, layout := range dateTimeInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(DateTimeLayout), nil
		}
	}
	return "", fmt.Errorf("%q is not a date and time", s)
}

// Value returns the captured answer for fieldID.
func (c *Capture) Value(fieldID string) string { return c.values[fieldID] }

// Missing returns the labels of required fields without an answer, in
// render order.
func (c *Capture) Missing() []string {
	var labels []string
	for _, f := range c.fields {
		if f.Required && c.values[f.ID] == "" {
			labels = append(labels, f.Label)
		}
	}
	return labels
}

// Validate returns a *MissingFieldsError when required answers are absent.
func (c *Capture) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return &MissingFieldsError{Labels: missing}
	}
	return nil
}

// Payload builds the submission body from the captured answers.
func (c *Capture) Payload() *model.CreateSourceRecordRequest {
	data := make(map[string]string, len(c.values))
	for k, v := range c.values {
		data[k] = v
	}
	return &model.CreateSourceRecordRequest{FormID: c.formID, SourceData: data}
}

// Phase returns the current lifecycle stage.
func (c *Capture) Phase() Phase { return c.phase }

// Err returns the message of the last failed submission, if any.
func (c *Capture) Err() string { return c.err }

// Submit validates and posts the answers. Validation failures leave the
// phase untouched. On success the answers are cleared; on failure they are
// kept and Err reports the service message or a generic one.
func (c *Capture) Submit(ctx context.Context, p RecordPoster) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.phase = PhaseSubmitting
	c.err = ""
	if err := p.CreateSourceRecord(ctx, c.Payload()); err != nil {
		c.phase = PhaseFailed
		c.err = model.UserMessage(err, submitFailed)
		return fmt.Errorf("%s: %w", c.err, err)
	}
	c.phase = PhaseSucceeded
	c.values = make(map[string]string)
	return nil
}

// Reset returns a finished capture to editing with no answers.
func (c *Capture) Reset() {
	c.phase = PhaseEditing
	c.err = ""
	c.values = make(map[string]string)
}

// CaptureForm fills a capture from posted HTML form values. DATETIME
// fields are read from their "<id>-date" and "<id>-time" inputs. Every
// field is attempted; the first error is returned.
func CaptureForm(c *Capture, form url.Values) error {
	var first error
	for _, f := range c.fields {
		var err error
		if f.Kind.Traits().Composite {
			err = c.SetDateTime(f.ID, form.Get(f.ID+"-date"), form.Get(f.ID+"-time"))
		} else {
			err = c.Set(f.ID, strings.TrimSpace(form.Get(f.ID)))
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
