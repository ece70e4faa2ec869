package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/formbuilder/internal/events"
)

// Response is the aggregated result of running the hooks for one event.
type Response struct {
	Ran      int      `json:"ran"`
	Warnings []string `json:"warnings,omitempty"`
}

// Handler runs configured hooks for events whose topic matches.
type Handler struct {
	hooks  []Hook
	logger *slog.Logger
}

// NewHandler creates a hook handler for the given hooks.
func NewHandler(hooks []Hook, logger *slog.Logger) *Handler {
	return &Handler{hooks: hooks, logger: logger}
}

// HandleEvent runs every hook whose topic pattern matches msg, in file
// order. The raw event JSON is passed in FORMBUILDER_EVENT and the topic in
// FORMBUILDER_TOPIC.
func (h *Handler) HandleEvent(ctx context.Context, msg events.Message) Response {
	var resp Response
	if msg.Topic == "" {
		return resp
	}

	env := map[string]string{
		"FORMBUILDER_TOPIC": msg.Topic,
		"FORMBUILDER_EVENT": string(msg.Data),
	}
	for _, hook := range h.hooks {
		if !events.MatchTopic(hook.Topic, msg.Topic) {
			continue
		}

		result := Execute(ctx, hook, env)
		resp.Ran++

		if result.Err != nil && hook.OnFailure == OnFailureWarn {
			reason := result.Err.Error()
			if result.TimedOut() {
				reason = "timed out after " + hook.timeout().String()
			}
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("hook %s failed: %s (%s)", hook.Name, result.Output, reason))
		}

		h.logger.Info("hooks: executed hook",
			"hook", hook.Name, "topic", msg.Topic, "ok", result.Err == nil,
			"exit", result.ExitCode, "duration", result.Duration)
	}

	return resp
}

// StartSubscriber listens for form events on the event bus and runs
// matching hooks. It blocks until ctx is cancelled.
func (h *Handler) StartSubscriber(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("hooks: subscribe: %w", err)
	}
	defer cancel()

	h.logger.Info("hooks: subscriber started", "hooks", len(h.hooks))

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hooks: subscriber stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				h.logger.Info("hooks: subscription channel closed")
				return nil
			}
			resp := h.HandleEvent(ctx, msg)
			for _, w := range resp.Warnings {
				h.logger.Warn("hooks: " + w)
			}
		}
	}
}
