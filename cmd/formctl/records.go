package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/render"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	Short:   "Read and submit form responses",
	GroupID: "forms",
}

var recordsListCmd = &cobra.Command{
	Use:   "list <form-id>",
	Short: "List the submissions of a form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := formsClient.ListSourceRecords(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		format, err := formatterFromFlags(cmd)
		if err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), format.Records(records))
		return nil
	},
}

var recordsFillCmd = &cobra.Command{
	Use:   "fill <form-id>",
	Short: "Fill in a form interactively and submit it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsInteractive() {
			return errors.New("fill needs an interactive terminal; use 'records submit --set' instead")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		def, err := formsClient.GetForm(ctx, args[0])
		if err != nil {
			return err
		}
		c := render.NewCapture(def)
		if len(c.Fields()) == 0 {
			return fmt.Errorf("form %s has no fields", def.ID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderAccent(def.Name))

		var driver render.SurveyDriver
		for {
			if err := render.Fill(ctx, c, driver); err != nil {
				return err
			}
			ok, err := driver.Confirm(ctx, "Submit?", true)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not submitted.")
				return nil
			}
			err = c.Submit(ctx, formsClient)
			if err == nil {
				break
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderError(err.Error()))
			retry, cerr := driver.Confirm(ctx, "Edit and retry?", true)
			if cerr != nil || !retry {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Submitted response to %s\n", ui.RenderOK("✓"), def.Name)
		return nil
	},
}

var recordsSubmitCmd = &cobra.Command{
	Use:   "submit <form-id> --set <field-id>=<value>...",
	Short: "Submit a form response non-interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		ctx := context.Background()

		def, err := formsClient.GetForm(ctx, args[0])
		if err != nil {
			return err
		}
		c := render.NewCapture(def)
		for _, kv := range sets {
			id, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --set %q: want <field-id>=<value>", kv)
			}
			if err := c.Set(strings.TrimSpace(id), value); err != nil {
				return err
			}
		}
		if err := c.Submit(ctx, formsClient); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Submitted response to %s\n", ui.RenderOK("✓"), def.Name)
		}
		return nil
	},
}

// formatterFromFlags builds the answer formatter from --date-layout and --tz.
func formatterFromFlags(cmd *cobra.Command) (render.Formatter, error) {
	layout, _ := cmd.Flags().GetString("date-layout")
	tz, _ := cmd.Flags().GetString("tz")
	f := render.Formatter{Layout: layout}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return f, fmt.Errorf("invalid --tz: %w", err)
		}
		f.Location = loc
	}
	return f, nil
}

func init() {
	recordsListCmd.Flags().String("date-layout", render.DefaultDateLayout, "Go time layout for date answers")
	recordsListCmd.Flags().String("tz", "", "time zone for date answers (default UTC)")

	recordsSubmitCmd.Flags().StringArray("set", nil, "answer as <field-id>=<value> (repeatable)")

	recordsCmd.AddCommand(recordsListCmd, recordsFillCmd, recordsSubmitCmd)
}
