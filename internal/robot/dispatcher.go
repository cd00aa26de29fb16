// Package robot implements the robot-control interface that starts missions
// on robots.
package robot

import (
	"context"

	"github.com/me/gofleet/pkg/model"
)

// Result is the outcome of a start-mission request.
type Result struct {
	OK      bool
	Message string // Failure reason, or the robot's acknowledgement
	Payload []byte
}

// Success returns a successful Result carrying payload.
func Success(payload []byte) Result {
	return Result{OK: true, Payload: payload}
}

// Failure returns a failed Result with a human-readable reason.
func Failure(msg string) Result {
	return Result{OK: false, Message: msg}
}

// Dispatcher starts a mission on a robot. Implementations never return
// errors: transport and protocol problems are reported as failed Results.
type Dispatcher interface {
	StartMission(ctx context.Context, robot *model.Robot, missionID string) Result
}
