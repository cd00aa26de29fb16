package robot

import (
	"context"
	"log/slog"

	"github.com/me/gofleet/pkg/model"
)

// StatusStore is the persistence the Controller updates after a robot
// accepts a mission. store.Store satisfies it.
type StatusStore interface {
	GetMission(ctx context.Context, id string) (*model.Mission, error)
	UpdateMission(ctx context.Context, m *model.Mission) error
	GetRobot(ctx context.Context, id string) (*model.Robot, error)
	UpdateRobot(ctx context.Context, r *model.Robot) error
}

// Controller starts missions through a Dispatcher and, once the robot has
// accepted, moves the mission to InProgress and the robot to
// MissionInProgress.
type Controller struct {
	dispatcher Dispatcher
	store      StatusStore
	logger     *slog.Logger
}

// NewController creates a Controller.
func NewController(d Dispatcher, st StatusStore, logger *slog.Logger) *Controller {
	return &Controller{dispatcher: d, store: st, logger: logger.With("component", "robot-controller")}
}

// StartMission dispatches the mission. Persistence problems after a
// successful dispatch are logged; the Result still reports success because
// the robot has the mission.
func (c *Controller) StartMission(ctx context.Context, robot *model.Robot, missionID string) Result {
	res := c.dispatcher.StartMission(ctx, robot, missionID)
	if !res.OK {
		return res
	}
	// The robot has the mission; record it even if ctx is cancelled now.
	ctx = context.WithoutCancel(ctx)

	m, err := c.store.GetMission(ctx, missionID)
	if err != nil || m == nil {
		c.logger.Error("load started mission", "mission_id", missionID, "error", err)
	} else if m.Status.CanTransitionTo(model.MissionStatusInProgress) {
		m.Status = model.MissionStatusInProgress
		m.StatusReason = ""
		if err := c.store.UpdateMission(ctx, m); err != nil {
			c.logger.Error("mark mission in progress", "mission_id", missionID, "error", err)
		}
	}

	r, err := c.store.GetRobot(ctx, robot.ID)
	if err != nil || r == nil {
		c.logger.Error("load robot", "robot_id", robot.ID, "error", err)
		return res
	}
	r.Status = model.RobotStatusMissionInProgress
	if err := c.store.UpdateRobot(ctx, r); err != nil {
		c.logger.Error("mark robot busy", "robot_id", robot.ID, "error", err)
	}
	return res
}
