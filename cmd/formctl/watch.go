package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream form events from the event bus",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		flagURL, _ := cmd.Flags().GetString("nats")
		url := natsURL(flagURL)
		if url == "" {
			return errors.New("no NATS URL: pass --nats, set FORMBUILDER_NATS_URL or add one to the profile")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(url,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(out, time.Now(), msg)
			}
		}
	},
}

// printEvent writes one line per event. With --json the raw payload is
// wrapped with its topic instead.
func printEvent(w io.Writer, at time.Time, msg events.Message) {
	if jsonOutput {
		line, err := json.Marshal(struct {
			Topic string          `json:"topic"`
			Event json.RawMessage `json:"event"`
		}{msg.Topic, json.RawMessage(msg.Data)})
		if err != nil {
			fmt.Fprintf(w, "{\"topic\":%q}\n", msg.Topic)
			return
		}
		fmt.Fprintln(w, string(line))
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n", ui.RenderMuted(at.Format("15:04:05")), ui.RenderAccent(msg.Topic), eventSummary(msg))
}

// eventSummary describes the known event types in a few words and falls
// back to the raw payload.
func eventSummary(msg events.Message) string {
	switch msg.Topic {
	case events.TopicFormCreated:
		var ev events.FormCreated
		var form struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if json.Unmarshal(msg.Data, &ev) == nil && json.Unmarshal(ev.Form, &form) == nil {
			return fmt.Sprintf("form %s %q via %s", form.ID, form.Name, ev.Source)
		}
	case events.TopicRecordSubmitted:
		var ev events.RecordSubmitted
		if json.Unmarshal(msg.Data, &ev) == nil {
			return "record for form " + ev.FormID
		}
	case events.TopicBuilderDropped:
		var ev events.BuilderDropped
		if json.Unmarshal(msg.Data, &ev) == nil {
			return fmt.Sprintf("session %s: %s onto %s (%d fields)", ev.SessionID, ev.Active, ev.Over, ev.Fields)
		}
	}
	return string(msg.Data)
}

func init() {
	watchCmd.Flags().String("topic", events.TopicAll, "subject to subscribe to (wildcards allowed)")
	watchCmd.Flags().String("nats", "", "NATS URL (default from FORMBUILDER_NATS_URL or profile)")
}
