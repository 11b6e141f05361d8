package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/selection"
)

// BatchRefresher triggers a full-batch selection run
type BatchRefresher interface {
	RefreshAllSlots(ctx context.Context) ([]selection.Result, error)
}

// Status reports the scheduler's run bookkeeping
type Status struct {
	Enabled       bool      `json:"enabled"`
	IntervalHours int       `json:"interval_hours"`
	LastRun       time.Time `json:"last_run,omitempty"`
	NextRun       time.Time `json:"next_run,omitempty"`
}

// Scheduler periodically invokes the batch refresh. Its only shared mutable
// resource is the pending timer, which is replaced wholesale on every
// reschedule rather than adjusted in place.
type Scheduler struct {
	refresher BatchRefresher
	log       *logger.Logger

	mu            sync.Mutex
	timer         *time.Timer
	intervalHours int
	lastRun       time.Time
	nextRun       time.Time
	stopped       bool
}

// New creates a scheduler over the given refresher
func New(refresher BatchRefresher) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		log:       logger.AppLogger(),
	}
}

// Start arms the scheduler with the given interval; zero disables it
func (s *Scheduler) Start(intervalHours int) {
	s.Reschedule(intervalHours)
}

// Reschedule cancels any pending run and arms a new one. An interval of
// zero (or less) disables scheduled refreshes until the next reschedule.
func (s *Scheduler) Reschedule(intervalHours int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.intervalHours = intervalHours
	if s.stopped || intervalHours <= 0 {
		s.nextRun = time.Time{}
		s.log.Info("scheduled refresh disabled")
		return
	}

	interval := time.Duration(intervalHours) * time.Hour
	s.nextRun = time.Now().Add(interval)
	s.timer = time.AfterFunc(interval, s.run)

	s.log.WithFields(map[string]interface{}{
		"interval_hours": intervalHours,
		"next_run":       s.nextRun.Format(time.RFC3339),
	}).Info("scheduled refresh armed")
}

// run executes one batch refresh and re-arms the timer
func (s *Scheduler) run() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.lastRun = time.Now()
	interval := s.intervalHours
	s.mu.Unlock()

	results, err := s.refresher.RefreshAllSlots(context.Background())
	if err != nil {
		s.log.Error("scheduled batch refresh failed", err)
	} else {
		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		s.log.WithFields(map[string]interface{}{
			"slots":     len(results),
			"succeeded": succeeded,
		}).Info("scheduled batch refresh completed")
	}

	s.Reschedule(interval)
}

// Status returns the current run bookkeeping
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Enabled:       s.timer != nil,
		IntervalHours: s.intervalHours,
		LastRun:       s.lastRun,
		NextRun:       s.nextRun,
	}
}

// Stop cancels any pending run permanently
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextRun = time.Time{}
}
