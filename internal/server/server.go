// Package server exposes the proxy to the external form service, the
// in-memory builder sessions, and the server-rendered form pages.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/formapi"
	"github.com/alfredjeanlab/formbuilder/internal/presence"
	"github.com/alfredjeanlab/formbuilder/internal/render"
	"github.com/alfredjeanlab/formbuilder/internal/store"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	forms     *formapi.Client
	publisher events.Publisher
	logger    *slog.Logger
	format    render.Formatter
	pages     *render.HTML
	sessions  *sessionStore
	presence  *presence.Tracker
	stream    *streamHub
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithFormatter sets how submitted answers are displayed on HTML pages.
func WithFormatter(f render.Formatter) Option {
	return func(s *Server) { s.format = f }
}

// WithSessionIDs overrides the builder session and field id generators.
func WithSessionIDs(session, field func() (string, error)) Option {
	return func(s *Server) {
		s.sessions.newID = session
		s.sessions.newFieldID = field
	}
}

// WithSessionStore saves builder sessions to st so they survive restarts
// and idle eviction.
func WithSessionStore(st store.Store) Option {
	return func(s *Server) { s.sessions.persist = st }
}

// New returns a Server forwarding to forms and publishing to p.
func New(forms *formapi.Client, p events.Publisher, opts ...Option) (*Server, error) {
	if forms == nil {
		return nil, fmt.Errorf("form service client is required")
	}
	if p == nil {
		p = &events.NoopPublisher{}
	}
	s := &Server{
		forms:     forms,
		publisher: p,
		logger:    slog.Default(),
		sessions:  newSessionStore(),
		presence:  presence.New(),
		stream:    newStreamHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	pages, err := render.NewHTML(s.format)
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

// publish sends event to the publisher and to connected stream clients.
// Failures are logged and never reach the caller.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
	s.broadcastEvent(topic, event)
}

// StartSessionReaper drops builder sessions idle for longer than ttl. A
// non-positive ttl keeps sessions until they are deleted.
func (s *Server) StartSessionReaper(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.presence.StartReaper(&presence.ReaperConfig{
		IdleThreshold: ttl,
		SweepInterval: min(ttl, time.Minute),
		OnIdle: func(id string) {
			if cached, gone := s.sessions.evict(id); cached {
				s.logger.Info("evicted idle builder session", "session", id, "deleted", gone)
			}
		},
	})
}

// Close stops background work started by the server.
func (s *Server) Close() {
	s.presence.Stop()
}
