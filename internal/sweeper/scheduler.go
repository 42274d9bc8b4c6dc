package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
)

// Scheduler runs a job on a fixed interval until stopped. The first run
// happens one interval after Start, not immediately.
type Scheduler struct {
	interval time.Duration
	job      func(ctx context.Context)
	log      *logger.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(interval time.Duration, job func(ctx context.Context), log *logger.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		job:      job,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info("scheduler started", "interval", s.interval.String())
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.job(context.Background())
		}
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}
