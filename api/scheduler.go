/*
scheduler.go - background scan processing

PURPOSE:
  Optional in-process ticker that drains the scan queue when no external
  scheduler invokes /api/scans/execute. Each tick first reclaims jobs stuck
  in processing (a crashed worker never completes them), then processes one
  batch in live mode.

KEY CONCEPTS:
  - Single goroutine per scheduler; Start/Stop are idempotent.
  - Stop blocks until the in-flight tick finishes.
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/benefits-engine/scanqueue"
)

// ScanScheduler periodically drains the scan queue.
type ScanScheduler struct {
	Queue         scanqueue.Store
	Driver        *scanqueue.Driver
	Interval      time.Duration
	StaleClaimAge time.Duration
	BatchSize     int
	Log           *zap.Logger

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewScanScheduler builds a scheduler. A nil logger is replaced with a
// no-op logger; zero interval and stale age get sane defaults.
func NewScanScheduler(queue scanqueue.Store, driver *scanqueue.Driver, interval, staleAge time.Duration, batchSize int, log *zap.Logger) *ScanScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if staleAge <= 0 {
		staleAge = 15 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = scanqueue.DefaultBatchSize
	}
	return &ScanScheduler{
		Queue:         queue,
		Driver:        driver,
		Interval:      interval,
		StaleClaimAge: staleAge,
		BatchSize:     batchSize,
		Log:           log,
	}
}

// Start launches the background loop. Calling Start on a running scheduler
// is a no-op.
func (s *ScanScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()
	s.Log.Info("scan scheduler started",
		zap.Duration("interval", s.Interval),
		zap.Int("batch_size", s.BatchSize))
}

// Stop halts the loop and waits for any in-flight tick to finish.
func (s *ScanScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.Log.Info("scan scheduler stopped")
}

func (s *ScanScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}

// RunNow executes one tick immediately, outside the ticker cadence.
func (s *ScanScheduler) RunNow(ctx context.Context) {
	s.tick(ctx)
}

func (s *ScanScheduler) tick(ctx context.Context) {
	reclaimed, err := s.Queue.ReclaimStale(ctx, s.StaleClaimAge)
	if err != nil {
		s.Log.Error("stale claim reclamation failed", zap.Error(err))
	} else if reclaimed > 0 {
		s.Log.Warn("reclaimed stale scan jobs", zap.Int("count", reclaimed))
	}

	result, err := s.Driver.ProcessBatch(ctx, s.BatchSize)
	if err != nil {
		s.Log.Error("scan batch failed", zap.Error(err))
		return
	}
	if result.Processed > 0 {
		s.Log.Info("scan batch processed",
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed))
	}
}
