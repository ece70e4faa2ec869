package render

import (
	"strings"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// midnightSuffix marks answers captured as a date without a time of day.
const midnightSuffix = "T00:00:00.000Z"

// DefaultDateLayout renders date-only answers as month/day/year.
const DefaultDateLayout = "1/2/2006"

// Formatter formats submitted answers for reading. It never changes the
// stored value.
type Formatter struct {
	Layout   string         // date layout; DefaultDateLayout when empty
	Location *time.Location // zone the date is shown in; UTC when nil
}

// FormatAnswer formats one answer. Only values ending in exactly
// "T00:00:00.000Z" that parse as timestamps are shown as dates; everything
// else is returned verbatim.
func (f Formatter) FormatAnswer(answer string) string {
	if !strings.HasSuffix(answer, midnightSuffix) {
		return answer
	}
	t, err := time.Parse(DateTimeLayout, answer)
	if err != nil {
		return answer
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	if f.Location != nil {
		t = t.In(f.Location)
	}
	return t.Format(layout)
}

// AnswerView is one formatted answer.
type AnswerView struct {
	ID       string
	Question string
	Answer   string
}

// RecordView is one submission ready for display.
type RecordView struct {
	ID      string
	Answers []AnswerView
}

// Records formats submissions in the order given.
func (f Formatter) Records(records []model.SubmissionRecord) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		v := RecordView{ID: r.ID, Answers: make([]AnswerView, 0, len(r.SourceData))}
		for _, item := range r.SourceData {
			v.Answers = append(v.Answers, AnswerView{
				ID:       item.ID,
				Question: item.Question,
				Answer:   f.FormatAnswer(item.Answer),
			})
		}
		out = append(out, v)
	}
	return out
}
