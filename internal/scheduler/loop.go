package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/gofleet/internal/events"
	"github.com/me/gofleet/internal/robot"
	"github.com/me/gofleet/pkg/model"
)

// Config holds scheduler configuration.
type Config struct {
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{PollInterval: time.Second}
}

// Loop implements the Scheduler interface with a polling dispatch loop.
type Loop struct {
	repo       MissionRepository
	dispatcher robot.Dispatcher
	reconciler *Reconciler
	config     Config
	logger     *slog.Logger
	now        func() time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewLoop creates a new scheduler loop. A nil publisher disables events.
func NewLoop(repo MissionRepository, d robot.Dispatcher, pub events.Publisher, cfg Config, logger *slog.Logger) *Loop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	logger = logger.With("component", "scheduler")
	return &Loop{
		repo:       repo,
		dispatcher: d,
		reconciler: NewReconciler(repo, pub, logger),
		config:     cfg,
		logger:     logger,
		now:        time.Now,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// SetClock replaces the loop's time source.
func (l *Loop) SetClock(now func() time.Time) {
	l.now = now
}

// Start runs a first tick immediately, then one per poll interval. Blocks
// until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.logger.Info("scheduler started", "poll_interval", l.config.PollInterval)
	if err := l.Tick(ctx); err != nil && ctx.Err() == nil {
		l.logger.Error("tick error", "error", err)
	}

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scheduler stopping (context cancelled)")
			close(l.doneCh)
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("scheduler stopping (stop called)")
			close(l.doneCh)
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil && ctx.Err() == nil {
				l.logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for the current tick to finish.
func (l *Loop) Stop() error {
	close(l.stopCh)
	<-l.doneCh
	return nil
}

// Tick dispatches every pending mission whose robot is available and whose
// desired start time has passed. Missions are re-read before dispatch so that
// changes made since the listing are honoured.
func (l *Loop) Tick(ctx context.Context) error {
	pending, err := l.repo.ListMissionsByStatus(ctx, model.MissionStatusPending)
	if err != nil {
		return fmt.Errorf("list pending missions: %w", err)
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		mission, err := l.repo.GetMission(ctx, p.ID)
		if err != nil {
			l.logger.Error("reload mission", "mission_id", p.ID, "error", err)
			continue
		}
		if mission == nil {
			l.logger.Debug("mission disappeared before dispatch", "mission_id", p.ID)
			continue
		}
		if !l.eligible(mission) {
			continue
		}

		// A dispatch that has begun runs to completion and is recorded even
		// when shutdown cancels ctx.
		dctx := context.WithoutCancel(ctx)
		res := l.dispatcher.StartMission(dctx, mission.Robot, mission.ID)
		if err := l.reconciler.Apply(dctx, mission, res); err != nil {
			l.logger.Error("record dispatch result", "mission_id", mission.ID, "error", err)
		}
	}
	return nil
}

func (l *Loop) eligible(m *model.Mission) bool {
	if m.Status != model.MissionStatusPending {
		return false
	}
	if m.Robot == nil || m.Robot.Status != model.RobotStatusAvailable {
		return false
	}
	return !m.DesiredStartTime.After(l.now())
}
