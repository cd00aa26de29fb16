package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/me/gofleet/internal/events"
	"github.com/me/gofleet/internal/robot"
	"github.com/me/gofleet/pkg/model"
)

// Reconciler records the outcome of a dispatch attempt.
type Reconciler struct {
	repo   MissionRepository
	events events.Publisher
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. A nil publisher disables events.
func NewReconciler(repo MissionRepository, pub events.Publisher, logger *slog.Logger) *Reconciler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Reconciler{repo: repo, events: pub, logger: logger}
}

// Apply leaves a started mission's status to the robot controller and marks
// a failed one Failed with the failure message as its reason.
func (r *Reconciler) Apply(ctx context.Context, m *model.Mission, res robot.Result) error {
	if res.OK {
		r.logger.Info("mission started", "mission_id", m.ID, "robot_id", m.RobotID)
		// The dispatcher may have moved the mission on; publish its current state.
		current, err := r.repo.GetMission(ctx, m.ID)
		if err != nil || current == nil {
			r.logger.Warn("reload started mission", "mission_id", m.ID, "error", err)
			current = m
		}
		r.publish(ctx, events.MissionStarted, current)
		return nil
	}

	m.Status = model.MissionStatusFailed
	m.StatusReason = res.Message
	if err := r.repo.UpdateMission(ctx, m); err != nil {
		return fmt.Errorf("mark mission %s failed: %w", m.ID, err)
	}
	r.logger.Warn("mission was not started successfully",
		"mission_id", m.ID, "robot_id", m.RobotID, "status", m.Status, "reason", res.Message)
	r.publish(ctx, events.MissionFailed, m)
	return nil
}

func (r *Reconciler) publish(ctx context.Context, key string, m *model.Mission) {
	if err := r.events.Publish(ctx, key, events.MissionPayload(m)); err != nil {
		r.logger.Error("publish event", "routing_key", key, "mission_id", m.ID, "error", err)
	}
}
