// Package automation re-runs AUTOMATION sessions on their cron schedules.
package automation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kayz/zonal/internal/logger"
	"github.com/kayz/zonal/internal/orchestrator"
	"github.com/kayz/zonal/internal/session"
)

// maxTurnsPerRun bounds one automation run. Each turn feeds command results
// back to the model, so a run usually needs two or three turns.
const maxTurnsPerRun = 5

// runTimeout bounds one automation run wall-clock time.
const runTimeout = 5 * time.Minute

// TurnRunner runs one session turn. Satisfied by orchestrator.Orchestrator.
type TurnRunner interface {
	Turn(ctx context.Context, sessionID, userInput string) (*orchestrator.TurnResult, error)
}

// Scheduler watches scheduled AUTOMATION sessions and runs them.
type Scheduler struct {
	cron     *cron.Cron
	sessions *session.Store
	runner   TurnRunner
	entries  map[string]cron.EntryID // session id -> cron entry
	mu       sync.Mutex
}

// NewScheduler creates a scheduler over the session store.
func NewScheduler(sessions *session.Store, runner TurnRunner) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		runner:   runner,
		entries:  make(map[string]cron.EntryID),
	}
}

// Start loads scheduled sessions, registers the periodic re-scan and starts
// the cron loop.
func (s *Scheduler) Start(pollSchedule string) error {
	if err := s.Rescan(); err != nil {
		return err
	}
	if pollSchedule != "" {
		if _, err := s.cron.AddFunc(pollSchedule, func() {
			if err := s.Rescan(); err != nil {
				logger.Warn("automation: rescan failed: %v", err)
			}
		}); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	logger.Info("automation: scheduler started with %d session(s)", n)
	return nil
}

// Stop stops the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Rescan synchronizes cron entries with the scheduled sessions in storage:
// new sessions are added, removed or re-typed sessions are dropped.
func (s *Scheduler) Rescan() error {
	scheduled, err := s.sessions.ScheduledSessions()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(scheduled))
	for _, sess := range scheduled {
		seen[sess.ID] = true
		if _, ok := s.entries[sess.ID]; ok {
			continue
		}
		id := sess.ID
		entry, err := s.cron.AddFunc(sess.Schedule, func() { s.run(id) })
		if err != nil {
			logger.Warn("automation: bad schedule %q for session %s: %v", sess.Schedule, sess.ID, err)
			continue
		}
		s.entries[sess.ID] = entry
		logger.Info("automation: scheduled session %s (%s)", sess.ID, sess.Schedule)
	}

	for id, entry := range s.entries {
		if !seen[id] {
			s.cron.Remove(entry)
			delete(s.entries, id)
			logger.Info("automation: unscheduled session %s", id)
		}
	}
	return nil
}

// run executes one automation run: turns until the model signals completion
// or stops issuing commands.
func (s *Scheduler) run(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	logger.Info("automation: running session %s", sessionID)
	for turn := 0; turn < maxTurnsPerRun; turn++ {
		result, err := s.runner.Turn(ctx, sessionID, "")
		if err != nil {
			logger.Error("automation: session %s turn %d: %v", sessionID, turn, err)
			return
		}
		if result.Complete {
			logger.Info("automation: session %s completed after %d turn(s)", sessionID, turn+1)
			return
		}
		if len(result.Results) == 0 {
			if strings.TrimSpace(result.Reply) != "" {
				logger.Warn("automation: session %s stopped without completion signal", sessionID)
			}
			return
		}
	}
	logger.Warn("automation: session %s hit the turn limit", sessionID)
}
