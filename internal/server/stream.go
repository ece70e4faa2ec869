package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/events"
)

const (
	// streamBacklog is how many recent events are kept for Last-Event-ID
	// replay.
	streamBacklog = 256

	streamKeepalive = 15 * time.Second
)

// streamEvent is one server-sent event.
type streamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// streamHub fans published events out to connected browsers.
type streamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	lastID  uint64
	backlog []streamEvent // oldest first, at most streamBacklog entries
}

type streamClient struct {
	patterns []string // empty matches every topic
	ch       chan streamEvent
}

func newStreamHub() *streamHub {
	return &streamHub{clients: make(map[*streamClient]struct{})}
}

func (h *streamHub) broadcast(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	evt := streamEvent{ID: h.lastID, Topic: topic, Data: data}
	if len(h.backlog) == streamBacklog {
		h.backlog = append(h.backlog[:0], h.backlog[1:]...)
	}
	h.backlog = append(h.backlog, evt)

	for c := range h.clients {
		if !c.matches(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// Slow clients miss events; they can replay with Last-Event-ID.
		}
	}
}

// subscribe registers a client and returns the buffered events newer than
// lastID that it should replay first.
func (h *streamHub) subscribe(patterns []string, lastID uint64) (*streamClient, []streamEvent) {
	c := &streamClient{patterns: patterns, ch: make(chan streamEvent, 64)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	var replay []streamEvent
	if lastID > 0 {
		for _, evt := range h.backlog {
			if evt.ID > lastID && c.matches(evt.Topic) {
				replay = append(replay, evt)
			}
		}
	}
	return c, replay
}

func (h *streamHub) unsubscribe(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (c *streamClient) matches(topic string) bool {
	if len(c.patterns) == 0 {
		return true
	}
	for _, p := range c.patterns {
		if events.MatchTopic(p, topic) {
			return true
		}
	}
	return false
}

// handleEventStream handles GET /api/events/stream?topics=a,b.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var patterns []string
	for _, p := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	client, replay := s.stream.subscribe(patterns, lastID)
	defer s.stream.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	for _, evt := range replay {
		writeStreamEvent(w, evt)
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeStreamEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, evt streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}

// broadcastEvent encodes event and hands it to the stream hub.
func (s *Server) broadcastEvent(topic string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to encode event for stream", "topic", topic, "err", err)
		return
	}
	s.stream.broadcast(topic, data)
}
