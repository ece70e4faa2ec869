package server

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/events"
)

func TestStreamHub_FiltersAndReplays(t *testing.T) {
	hub := newStreamHub()
	hub.broadcast(events.TopicFormCreated, []byte(`{"n":1}`))
	hub.broadcast(events.TopicRecordSubmitted, []byte(`{"n":2}`))
	hub.broadcast(events.TopicFormCreated, []byte(`{"n":3}`))

	c, replay := hub.subscribe([]string{"forms.form.*"}, 1)
	defer hub.unsubscribe(c)
	if len(replay) != 1 || replay[0].ID != 3 {
		t.Fatalf("replay = %+v, want only event 3", replay)
	}

	hub.broadcast(events.TopicRecordSubmitted, []byte(`{}`))
	hub.broadcast(events.TopicFormCreated, []byte(`{"n":5}`))
	select {
	case evt := <-c.ch:
		if evt.ID != 5 {
			t.Errorf("received event %d, want 5", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestStreamHub_BacklogIsBounded(t *testing.T) {
	hub := newStreamHub()
	for range streamBacklog + 10 {
		hub.broadcast("forms.form.created", []byte(`{}`))
	}
	if len(hub.backlog) != streamBacklog {
		t.Fatalf("backlog = %d, want %d", len(hub.backlog), streamBacklog)
	}
	if hub.backlog[0].ID != 11 {
		t.Errorf("oldest kept = %d, want 11", hub.backlog[0].ID)
	}
}

func TestEventStream_DeliversPublishedEvents(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events/stream?topics=forms.builder.*")
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// Wait until the stream client is registered before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for {
		e.server.stream.mu.Lock()
		n := len(e.server.stream.clients)
		e.server.stream.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	createSession(t, e, "Signup")
	drop(t, e, "bs-1", "new-text", "form-area")

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed early, got %q", got)
			}
			if line != "" {
				got = append(got, line)
			}
		case <-timeout:
			t.Fatalf("timed out, got %q", got)
		}
	}
	if got[0] != "id:1" || got[1] != "event:"+events.TopicBuilderDropped || !strings.Contains(got[2], `"session_id":"bs-1"`) {
		t.Errorf("event lines = %q", got)
	}
}
