package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic history autosave so a crash mid-session loses
// at most one interval of history.
type Scheduler struct {
	cron     *cron.Cron
	saveFunc func() error
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
	}
}

// SetSaveFunction sets the autosave callback.
func (s *Scheduler) SetSaveFunction(f func() error) {
	s.saveFunc = f
}

// Start schedules the autosave with the given cron spec (e.g. "@every 2m").
func (s *Scheduler) Start(spec string) error {
	if s.saveFunc == nil {
		log.Println("⚠️ Save function not set, autosave disabled")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		if err := s.saveFunc(); err != nil {
			log.Printf("❌ History autosave failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("📅 Autosave scheduler started (%s)", spec)
	return nil
}

// Stop waits for a running autosave to finish before returning.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Println("📅 Autosave scheduler stopped")
}

// IsRunning reports whether an autosave job is scheduled.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
