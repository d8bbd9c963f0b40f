// Package schedule limits how often a frame sink runs.
package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cornercam/pkg/session"
	"cornercam/pkg/utils"
)

// Scheduler opens a slot every interval. The first slot is open
// immediately; slots do not accumulate.
type Scheduler struct {
	interval time.Duration
	t        *time.Ticker
	due      atomic.Bool
	taken    atomic.Uint64
	logger   *zap.SugaredLogger
}

// New starts a scheduler that runs until ctx is done. A non-positive
// interval keeps the slot always open.
func New(ctx context.Context, interval time.Duration) *Scheduler {
	s := &Scheduler{
		interval: interval,
		logger:   utils.GetLogger(),
	}
	s.due.Store(true)
	if interval > 0 {
		s.t = time.NewTicker(interval)
		s.startDeal(ctx)
	}

	return s
}

// Take reports whether a slot is open and closes it.
func (s *Scheduler) Take() bool {
	if s.t == nil {
		s.taken.Add(1)
		return true
	}
	if s.due.CompareAndSwap(true, false) {
		s.taken.Add(1)
		return true
	}
	return false
}

func (s *Scheduler) Taken() uint64 {
	return s.taken.Load()
}

// Wrap returns a sink that forwards a frame to sink only when a slot is open.
func (s *Scheduler) Wrap(sink session.Sink) session.Sink {
	return func(f session.Frame) error {
		if !s.Take() {
			return nil
		}
		return sink(f)
	}
}

func (s *Scheduler) startDeal(ctx context.Context) {
	go func() {
		defer s.t.Stop()
		for {
			select {
			case <-s.t.C:
				s.due.Store(true)
			case <-ctx.Done():
				s.logger.Debugf("scheduler (%s): stopped after %d slots", s.interval, s.taken.Load())
				return
			}
		}
	}()
}
