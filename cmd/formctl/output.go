package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/formbuilder/internal/model"
	"github.com/alfredjeanlab/formbuilder/internal/presence"
	"github.com/alfredjeanlab/formbuilder/internal/render"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printFormList(w io.Writer, forms []model.FormDefinition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFIELDS")
	for _, f := range forms {
		n := 0
		if f.Fields != nil {
			n = f.Fields.Len()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", ui.RenderMuted(f.ID), truncate(f.Name, 50), n)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d forms\n", len(forms))
}

func printFieldTable(w io.Writer, fields []model.FormField) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tKIND\tLABEL")
	for _, f := range fields {
		marker := "  "
		if f.Required {
			marker = ui.RenderRequired(true) + " "
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", marker, ui.RenderMuted(f.ID), ui.RenderKind(f.Kind), f.Label)
	}
	tw.Flush()
}

func printForm(w io.Writer, def *model.FormDefinition) {
	fmt.Fprintf(w, "ID:    %s\n", def.ID)
	fmt.Fprintf(w, "Name:  %s\n", def.Name)
	fields := def.FormFields()
	if len(fields) == 0 {
		fmt.Fprintln(w, "\nNo fields.")
		return
	}
	fmt.Fprintln(w)
	printFieldTable(w, fields)
}

func printRecords(w io.Writer, records []render.RecordView) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No submissions yet.")
		return
	}
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, ui.RenderAccent("Record "+r.ID))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, a := range r.Answers {
			fmt.Fprintf(tw, "  %s\t%s\n", a.Question, a.Answer)
		}
		tw.Flush()
	}
}

func printSession(w io.Writer, s *model.BuilderSession) {
	fmt.Fprintf(w, "Session:  %s\n", s.ID)
	fmt.Fprintf(w, "Name:     %s\n", s.Name)
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if len(s.Fields) == 0 {
		fmt.Fprintln(w, "\nNo fields yet. Drop one from the palette.")
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  POS\tID\tKIND\tLABEL")
	for _, f := range s.Fields {
		marker := "  "
		if f.Required {
			marker = ui.RenderRequired(true) + " "
		}
		fmt.Fprintf(tw, "%s%d\t%s\t%s\t%s\n", marker, f.Position, ui.RenderMuted(f.ID), ui.RenderKind(f.Kind), f.Label)
	}
	tw.Flush()
}

func printRoster(w io.Writer, roster []presence.Entry) {
	if len(roster) == 0 {
		fmt.Fprintln(w, "No active builder sessions.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLAST\tIDLE\tEVENTS")
	for _, e := range roster {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			ui.RenderMuted(e.SessionID), truncate(e.Name, 40), e.LastEvent,
			idleString(e.IdleSecs), e.EventCount)
	}
	tw.Flush()
}

func idleString(secs float64) string {
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", int(secs))
	case secs < 3600:
		return fmt.Sprintf("%dm", int(secs/60))
	default:
		return fmt.Sprintf("%dh", int(secs/3600))
	}
}

// kindList renders kinds for flag help, e.g. "text, password, number, datetime".
func kindList() string {
	names := make([]string, len(model.Kinds))
	for i, k := range model.Kinds {
		names[i] = k.Lower()
	}
	return strings.Join(names, ", ")
}
