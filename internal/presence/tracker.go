// Package presence tracks activity on builder sessions.
//
// The server records an Activity whenever a session is created or changed.
// A background reaper reports sessions that stayed idle past a threshold so
// the server can drop them from memory.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry is a snapshot of one session's activity.
type Entry struct {
	SessionID  string    `json:"session_id"`
	Name       string    `json:"name"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	LastEvent  string    `json:"last_event"` // e.g. "create", "drop", "pointer"
	IdleSecs   float64   `json:"idle_secs"`
	EventCount int64     `json:"event_count"`
}

// Activity is one thing that happened to a session.
type Activity struct {
	SessionID string
	Name      string
	Event     string
}

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// IdleThreshold is how long a session may go without activity.
	// Default: 2 hours.
	IdleThreshold time.Duration

	// SweepInterval is how often the reaper scans.
	// Default: 1 minute.
	SweepInterval time.Duration

	// OnIdle is called for each session the reaper drops. Called outside
	// the lock.
	OnIdle func(sessionID string)
}

// Tracker keeps the activity of every live session.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type sessionState struct {
	name       string
	firstSeen  time.Time
	lastSeen   time.Time
	lastEvent  string
	eventCount int64
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{sessions: make(map[string]*sessionState)}
}

// Record notes activity on a session, adding it on first sight.
func (t *Tracker) Record(a Activity) {
	if a.SessionID == "" {
		return
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sessions[a.SessionID]
	if !ok {
		state = &sessionState{firstSeen: now}
		t.sessions[a.SessionID] = state
	}
	state.name = a.Name
	state.lastSeen = now
	state.lastEvent = a.Event
	state.eventCount++
}

// Forget removes a session, e.g. after it was deleted.
func (t *Tracker) Forget(sessionID string) {
	t.mu.Lock()
	delete(t.sessions, sessionID)
	t.mu.Unlock()
}

// Roster returns every tracked session, most recently active first. Sessions
// idle longer than staleThreshold are left out; 0 includes all.
func (t *Tracker) Roster(staleThreshold time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.sessions))
	for id, state := range t.sessions {
		idle := now.Sub(state.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}
		entries = append(entries, Entry{
			SessionID:  id,
			Name:       state.name,
			FirstSeen:  state.firstSeen,
			LastSeen:   state.lastSeen,
			LastEvent:  state.lastEvent,
			IdleSecs:   idle.Seconds(),
			EventCount: state.eventCount,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// StartReaper launches a background goroutine that periodically drops idle
// sessions. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = 2 * time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"idle_threshold", cfg.IdleThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := time.Now()
	var idle []string

	t.mu.Lock()
	for id, state := range t.sessions {
		if now.Sub(state.lastSeen) > cfg.IdleThreshold {
			delete(t.sessions, id)
			idle = append(idle, id)
		}
	}
	t.mu.Unlock()

	sort.Strings(idle)
	for _, id := range idle {
		slog.Info("presence: reaper dropped idle session",
			"session", id,
			"threshold", cfg.IdleThreshold)
		if cfg.OnIdle != nil {
			cfg.OnIdle(id)
		}
	}
}
