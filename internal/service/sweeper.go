package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
)

// Sweep job names, as passed to OnProcessed hooks and written to the log.
const (
	JobOverdue   = "overdue"
	JobReminders = "reminders"
)

// Maintainer is what the sweeper drives.  *Service implements it.
type Maintainer interface {
	CancelOverdueReservations(ctx context.Context) (int, error)
	SendReminderEmails(ctx context.Context) (int, error)
}

// SweeperConfig sets the cadence of the two background jobs.
type SweeperConfig struct {
	OverdueDelay     time.Duration
	OverdueInterval  time.Duration
	ReminderDelay    time.Duration
	ReminderInterval time.Duration
	// TickTimeout bounds a single run of either job.
	TickTimeout time.Duration
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		OverdueDelay:     time.Minute,
		OverdueInterval:  5 * time.Minute,
		ReminderDelay:    2 * time.Minute,
		ReminderInterval: 10 * time.Minute,
		TickTimeout:      time.Minute,
	}
}

// Sweeper runs the overdue-cancel and reminder jobs on independent timers.
// A failing or panicking run is logged and the loop carries on.
type Sweeper struct {
	jobs   Maintainer
	cfg    SweeperConfig
	log    *logger.Logger
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onProcessed func(ctx context.Context, job string, n int)
}

func NewSweeper(jobs Maintainer, cfg SweeperConfig, log *logger.Logger) *Sweeper {
	d := DefaultSweeperConfig()
	if cfg.OverdueInterval <= 0 {
		cfg.OverdueInterval = d.OverdueInterval
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = d.ReminderInterval
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = d.TickTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Sweeper{jobs: jobs, cfg: cfg, log: log}
}

// OnProcessed registers fn to run after a job run that touched at least
// one reservation.  Register before Start.
func (s *Sweeper) OnProcessed(fn func(ctx context.Context, job string, n int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProcessed = fn
}

// Start launches both jobs.  Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, JobOverdue, s.cfg.OverdueDelay, s.cfg.OverdueInterval, s.jobs.CancelOverdueReservations)
	go s.loop(ctx, JobReminders, s.cfg.ReminderDelay, s.cfg.ReminderInterval, s.jobs.SendReminderEmails)
	s.log.Info("SWEEPER", fmt.Sprintf("started: overdue every %s, reminders every %s", s.cfg.OverdueInterval, s.cfg.ReminderInterval))
}

// Stop cancels both jobs and waits for any in-flight run to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info("SWEEPER", "stopped")
}

func (s *Sweeper) loop(ctx context.Context, name string, delay, interval time.Duration, run func(context.Context) (int, error)) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.tick(ctx, name, run)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, name, run)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context, name string, run func(context.Context) (int, error)) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("SWEEPER", fmt.Sprintf("[%s] panic: %v", name, rec))
		}
	}()
	tctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	start := time.Now()
	n, err := run(tctx)
	if err != nil {
		s.log.Error("SWEEPER", fmt.Sprintf("[%s] failed after %s: %v", name, time.Since(start), err))
		return
	}
	if n > 0 {
		s.log.LogSweep(name, fmt.Sprintf("processed %d reservations in %s", n, time.Since(start)))
		s.mu.Lock()
		hook := s.onProcessed
		s.mu.Unlock()
		if hook != nil {
			hook(tctx, name, n)
		}
	} else {
		s.log.Debug("SWEEPER", fmt.Sprintf("[%s] nothing to do", name))
	}
}
