package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"PolicyPulse/internal/analysis"
	"PolicyPulse/internal/notifier"
	"PolicyPulse/internal/state"
)

// Scheduler manages the daemon's cron tasks: a daily shocks refresh with
// new-shock alerting and a weekly full run of every study.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *analysis.Runner
	State    *state.Manager
	Notifier *notifier.TelegramNotifier
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner *analysis.Runner, sm *state.Manager, tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		State:    sm,
		Notifier: tn,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily and weekly tasks.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyRefresh); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyFullRun); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily refresh immediately (manual trigger).
func (s *Scheduler) RunDailyNow() {
	s.dailyRefresh()
}

// dailyRefresh rebuilds the shocks dataset, re-runs the study and alerts
// when a shock newer than the recorded one shows up.
func (s *Scheduler) dailyRefresh() {
	log.Println("[INFO] running daily shocks refresh")
	result, err := s.Runner.RunShocks(s.Ctx, true)
	if err != nil {
		log.Printf("[ERROR] daily refresh: %v", err)
		s.trySend(fmt.Sprintf("❌ Daily refresh failed: %v", err))
		return
	}

	dates := result.Frame.Dates()
	s.State.MarkRefresh("shocks", dates[len(dates)-1])

	if evt := result.LatestShock; evt != nil {
		if s.State.RecordShock(evt.Date, evt.Type) {
			s.trySend(notifier.FormatShockAlert(evt))
		} else {
			log.Printf("[INFO] shock on %s already alerted", evt.Date.Format("2006-01-02"))
		}
	}
}

func (s *Scheduler) weeklyFullRun() {
	log.Println("[INFO] running weekly full study run")
	if err := s.Runner.RunAll(s.Ctx, true); err != nil {
		log.Printf("[ERROR] weekly run: %v", err)
		s.trySend(fmt.Sprintf("❌ Weekly run failed: %v", err))
		return
	}
	st := s.State.GetState()
	s.trySend("✅ Weekly study run finished\n\n" + notifier.FormatStatus(&st))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch strings.TrimSpace(command) {
	case "/status":
		st := s.State.GetState()
		return notifier.FormatStatus(&st)
	case "/shocks":
		result, err := s.Runner.RunShocks(s.Ctx, false)
		if err != nil {
			return fmt.Sprintf("❌ shocks study failed: %v", err)
		}
		if result.LatestShock == nil {
			return "No classified shocks in the sample."
		}
		return notifier.FormatShockAlert(result.LatestShock)
	case "/refresh":
		go s.dailyRefresh()
		return "🔄 Refresh started."
	case "/help":
		return notifier.FormatHelp()
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
