package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"marketplace-bulk-api/internal/store"
)

// Sweeper defaults.
const (
	DefaultSweepInterval = 10 * time.Minute
	DefaultSweepDelay    = time.Minute
	sweepTimeout         = 5 * time.Minute
)

// SweeperConfig holds configuration for the expiry sweeper.
type SweeperConfig struct {
	// Interval between purges. Default: 10 minutes
	Interval time.Duration

	// InitialDelay before the first purge after Start. Default: 1 minute
	InitialDelay time.Duration
}

// ExpirySweeper periodically reclaims expired auth states and tokens from
// stores that only hide them on read. Redis needs no sweeper.
type ExpirySweeper struct {
	purger store.Purger
	config SweeperConfig
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewExpirySweeper creates a new expiry sweeper.
func NewExpirySweeper(purger store.Purger, config SweeperConfig) *ExpirySweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweepInterval
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = DefaultSweepDelay
	}

	return &ExpirySweeper{
		purger: purger,
		config: config,
		logger: slog.With("component", "expiry_sweeper"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the sweep loop. It does nothing if the sweeper is already
// running or has been stopped.
func (s *ExpirySweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	select {
	case <-s.stop:
		return
	default:
	}
	s.started = true

	s.logger.Info("started", "interval", s.config.Interval, "initial_delay", s.config.InitialDelay)
	go s.loop()
}

// loop waits InitialDelay, then purges every Interval until stopped.
func (s *ExpirySweeper) loop() {
	defer close(s.done)

	timer := time.NewTimer(s.config.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.sweep()
			timer.Reset(s.config.Interval)
		case <-s.stop:
			s.logger.Info("stopped")
			return
		}
	}
}

func (s *ExpirySweeper) sweep() {
	deleted, err := s.RunNow()
	switch {
	case err != nil:
		s.logger.Error("sweep failed", "error", err)
	case deleted > 0:
		s.logger.Info("purged expired entries", "count", deleted)
	default:
		s.logger.Debug("nothing to purge")
	}
}

// Stop ends the loop and waits for an in-flight purge to finish. It is safe
// to call more than once, and before Start.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	started := s.started
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// RunNow purges expired entries immediately.
func (s *ExpirySweeper) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	return s.purger.DeleteExpired(ctx)
}
