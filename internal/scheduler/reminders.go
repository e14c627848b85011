// Package scheduler runs periodic jobs. The only job in the current scope
// logs assignments whose deadline falls inside the configured reminder
// window.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avelkine/edushelf/internal/assignments"
	"github.com/avelkine/edushelf/internal/config"
)

// ReminderScheduler periodically surfaces assignments that are due soon.
type ReminderScheduler struct {
	manager *assignments.Manager
	cfg     config.Reminders

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewReminderScheduler(manager *assignments.Manager, cfg config.Reminders) *ReminderScheduler {
	return &ReminderScheduler{
		manager: manager,
		cfg:     cfg,
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if reminders are enabled.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Reminder scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runReminders()
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule '%s': %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Reminder scheduler: started with schedule '%s', window %v", s.cfg.Schedule, s.cfg.Window)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Reminder scheduler: stopped")
}

// RunNow triggers an immediate reminder pass.
func (s *ReminderScheduler) RunNow() {
	go s.runReminders()
}

// IsRunning returns whether the scheduler is active.
func (s *ReminderScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next reminder pass will occur.
func (s *ReminderScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ReminderScheduler) runReminders() {
	due := s.manager.DueWithin(s.cfg.Window)
	if len(due) == 0 {
		log.Printf("Reminders: nothing due within %v", s.cfg.Window)
		return
	}

	for _, a := range due {
		log.Printf("Reminders: '%s' (%s) is due %s", a.Title, a.Subject, a.Deadline.Format("2006-01-02"))
	}
	log.Printf("Reminders: %d assignment(s) due within %v", len(due), s.cfg.Window)
}
