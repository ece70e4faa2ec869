package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/hooks"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var hooksCmd = &cobra.Command{
	Use:     "hooks",
	Short:   "Run shell commands when form events occur",
	GroupID: "system",
	Long: `Hooks are shell commands run for events whose topic matches a NATS-style
pattern. The event JSON is passed in $FORMBUILDER_EVENT and the topic in
$FORMBUILDER_TOPIC.

  hooks:
    - name: notify
      topic: forms.record.submitted
      command: ./notify.sh
      timeout: 10
      on_failure: warn`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var hooksCheckCmd = &cobra.Command{
	Use:   "check --file <hooks.yaml>",
	Short: "Validate a hooks file and list its hooks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		hs, err := hooks.LoadFile(path)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), hs)
		}
		if len(hs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No hooks defined.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTOPIC\tCOMMAND")
		for _, h := range hs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", ui.RenderCommand(h.Name), h.Topic, truncate(h.Command, 60))
		}
		return tw.Flush()
	},
}

var hooksFireCmd = &cobra.Command{
	Use:   "fire --file <hooks.yaml> <topic> [event-json]",
	Short: "Run the hooks matching one event without the event bus",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		hs, err := hooks.LoadFile(path)
		if err != nil {
			return err
		}
		data := "{}"
		if len(args) == 2 {
			data = args[1]
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		resp := hooks.NewHandler(hs, logger).HandleEvent(context.Background(),
			events.Message{Topic: args[0], Data: []byte(data)})
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ran %d hook(s)\n", resp.Ran)
		for _, w := range resp.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderError("warning: "+w))
		}
		return nil
	},
}

var hooksRunCmd = &cobra.Command{
	Use:   "run --file <hooks.yaml>",
	Short: "Subscribe to the event bus and run hooks until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		flagURL, _ := cmd.Flags().GetString("nats")
		url := natsURL(flagURL)
		if url == "" {
			return errors.New("no NATS URL: pass --nats, set FORMBUILDER_NATS_URL or add one to the profile")
		}
		hs, err := hooks.LoadFile(path)
		if err != nil {
			return err
		}

		sub, err := events.NewNATSSubscriber(url)
		if err != nil {
			return err
		}
		defer sub.Close()
		if queue, _ := cmd.Flags().GetString("queue"); queue != "" {
			sub.InQueue(queue)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		return hooks.NewHandler(hs, logger).StartSubscriber(ctx, sub)
	},
}

func init() {
	for _, c := range []*cobra.Command{hooksCheckCmd, hooksFireCmd, hooksRunCmd} {
		c.Flags().StringP("file", "f", "hooks.yaml", "hooks file")
	}
	hooksRunCmd.Flags().String("nats", "", "NATS URL (default from FORMBUILDER_NATS_URL or profile)")
	hooksRunCmd.Flags().String("queue", "", "NATS queue group shared with other hook runners")

	hooksCmd.AddCommand(hooksCheckCmd, hooksFireCmd, hooksRunCmd)
}
