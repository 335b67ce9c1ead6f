package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Rescorer re-runs the stress scenarios of every stored dataset
type Rescorer interface {
	RescoreAll(ctx context.Context) (int, error)
}

// Scheduler runs the re-scoring job on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	job     Rescorer
	log     *logrus.Logger
	timeout time.Duration
}

// New creates a scheduler for the given cron spec (five fields or a
// descriptor such as "@daily"). Overlapping runs are skipped.
func New(spec string, job Rescorer, log *logrus.Logger, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(log)),
	))
	s := &Scheduler{cron: c, job: job, log: log, timeout: timeout}
	if _, err := c.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid rescore schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the job in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Infof("Rescore job scheduled, next run at %s", e.Next.Format(time.RFC3339))
	}
}

// Stop halts the schedule and returns a context done when a running job ends
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce executes a single re-scoring pass
func (s *Scheduler) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	runs, err := s.job.RescoreAll(ctx)
	entry := s.log.WithFields(logrus.Fields{"runs": runs, "elapsed": time.Since(start).String()})
	if err != nil {
		entry.Errorf("Rescore finished with errors: %v", err)
		return
	}
	entry.Info("Rescore finished")
}
