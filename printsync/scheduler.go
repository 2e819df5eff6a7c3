/*
scheduler.go - Unattended periodic sync

PURPOSE:
  Wraps the Runner with a ticker so the server keeps the billing
  database current without anyone pressing a button. A run already in
  flight is never interrupted; Stop waits for it to finish.
*/
package printsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs a full sync on a fixed interval.
type Scheduler struct {
	Runner   *Runner
	Interval time.Duration
	Enabled  bool
	Log      zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a scheduler around runner. Default interval is
// one hour.
func NewScheduler(runner *Runner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Runner:   runner,
		Interval: time.Hour,
		Enabled:  true,
		Log:      log,
		stop:     make(chan struct{}),
	}
}

// Start begins periodic syncing, running once immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Log.Info().Msg("sync scheduler disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)
	go s.run()

	s.Log.Info().Dur("interval", s.Interval).Msg("sync scheduler started")
}

// Stop halts the ticker and waits for an in-flight run to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.Log.Info().Msg("sync scheduler stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.runOnce()

	for {
		select {
		case <-s.ticker.C:
			s.runOnce()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	res := s.Runner.RunOnce(context.Background())
	switch {
	case errors.Is(res.Err, ErrSyncRunning):
		s.Log.Debug().Msg("sync already in flight, skipping scheduled run")
	case res.Err != nil:
		s.Log.Error().Err(res.Err).Msg("scheduled sync failed")
	}
}
