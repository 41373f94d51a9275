package scheduler

import (
	"time"

	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// IdleEvicter drops sessions that have not been used within ttl
type IdleEvicter interface {
	EvictIdle(ttl time.Duration) int
}

// SessionSweeper periodically releases idle guest sessions
type SessionSweeper struct {
	cron     *cron.Cron
	sessions IdleEvicter
	schedule string
	ttl      time.Duration
}

func NewSessionSweeper(sessions IdleEvicter, schedule string, ttl time.Duration) *SessionSweeper {
	return &SessionSweeper{
		cron:     cron.New(),
		sessions: sessions,
		schedule: schedule,
		ttl:      ttl,
	}
}

// Start registers the sweep job, e.g. "@every 5m", and starts the cron runner
func (s *SessionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.Sweep)
	if err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started", map[string]interface{}{
		"schedule": s.schedule,
		"idle_ttl": s.ttl.String(),
	})
	return nil
}

// Sweep evicts idle sessions once
func (s *SessionSweeper) Sweep() {
	evicted := s.sessions.EvictIdle(s.ttl)
	logger.Debug("Session sweep finished", map[string]interface{}{
		"evicted": evicted,
	})
}

// Stop waits for a running sweep to finish
func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped", nil)
}
