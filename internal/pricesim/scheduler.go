package pricesim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs the price sweep on a fixed interval. It is an explicitly
// owned object: main starts it after the services come up and stops it
// during shutdown, letting an in-flight sweep finish.
//
// At most one sweep runs at a time. A tick (or manual trigger) that fires
// while a sweep is in flight is skipped, not queued.
type Scheduler struct {
	updater  *Updater
	interval time.Duration
	logger   *zap.Logger

	inFlight atomic.Bool
	wg       sync.WaitGroup

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewScheduler(u *Updater, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{updater: u, interval: interval, logger: logger}
}

// Start launches the ticker loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.logger.Warn("scheduler already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go s.loop(ctx)
	s.logger.Info("price scheduler started", zap.Duration("interval", s.interval))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// ctx only stops the ticker. The sweep runs under its own
			// context so Stop lets an in-flight sweep finish.
			s.run(context.Background())
		}
	}
}

// TriggerNow runs one sweep immediately, subject to the same single-instance
// guarantee as the ticker. Reports whether a sweep actually started.
func (s *Scheduler) TriggerNow(ctx context.Context) bool {
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("price sweep still in flight, skipping")
		return false
	}
	s.wg.Add(1)
	defer func() {
		s.inFlight.Store(false)
		s.wg.Done()
	}()

	if err := s.updater.Sweep(ctx); err != nil {
		s.logger.Error("price sweep failed", zap.Error(err))
	}
	return true
}

// Stop deregisters the timer and waits for any in-flight sweep to finish.
// The sweep itself is never cancelled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	s.wg.Wait()
	s.logger.Info("price scheduler stopped")
}
