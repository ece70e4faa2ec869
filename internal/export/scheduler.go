package export

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status describes the most recent scheduled export.
type Status struct {
	Runs    int
	LastRun time.Time
	LastErr error
}

// Scheduler exports every form from a source on a fixed interval. Each run
// gets at most one interval to finish.
type Scheduler struct {
	src      Source
	dests    []Destination
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	status Status

	stop context.CancelFunc
	done chan struct{}
}

func NewScheduler(src Source, dests []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{src: src, dests: dests, interval: interval, logger: logger}
}

// Start exports once right away and then on every tick until Stop.
func (s *Scheduler) Start() {
	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop ends the loop and waits for an export in progress to give up.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	s.stop()
	<-s.done
}

// Status returns a snapshot of the last run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.once(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) once(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	err := Run(runCtx, s.src, nil, s.dests, s.logger)

	s.mu.Lock()
	s.status.Runs++
	s.status.LastRun = time.Now().UTC()
	s.status.LastErr = err
	s.mu.Unlock()
}
