package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic stats report.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetReportFunction sets the report generator invoked on schedule.
func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the cron entry and begins scheduling. spec is a
// standard 5-field cron expression evaluated in UTC.
func (s *Scheduler) Start(spec string) error {
	if s.reportFunc == nil {
		log.Println("Report function not set, scheduler will not generate reports")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		log.Printf("Triggered scheduled stats report (%s UTC)", spec)
		if err := s.reportFunc(s.ctx); err != nil {
			log.Printf("Scheduled stats report failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Scheduler started - stats reports on cron spec %q (UTC)", spec)
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("Scheduler stopped")
}

// IsRunning reports whether any cron entries are registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
