package robot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/me/gofleet/pkg/model"
)

// Registry maps a robot's Transport to the Dispatcher that reaches it.
// Registration happens at startup before concurrent access, so no mutex is needed.
type Registry struct {
	dispatchers map[model.Transport]Dispatcher
	logger      *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		dispatchers: make(map[model.Transport]Dispatcher),
		logger:      logger.With("component", "dispatcher-registry"),
	}
}

// Register adds a Dispatcher for transport t.
func (r *Registry) Register(t model.Transport, d Dispatcher) {
	r.dispatchers[t] = d
	r.logger.Info("dispatcher registered", "transport", t)
}

// Get returns the Dispatcher for t or an error if none is registered.
func (r *Registry) Get(t model.Transport) (Dispatcher, error) {
	d, ok := r.dispatchers[t]
	if !ok {
		return nil, fmt.Errorf("no dispatcher registered for transport %q", t)
	}
	return d, nil
}

// StartMission routes to the dispatcher for the robot's transport. Robots
// without a transport use HTTP.
func (r *Registry) StartMission(ctx context.Context, robot *model.Robot, missionID string) Result {
	if robot == nil {
		return Failure("mission has no robot")
	}
	t := robot.Transport
	if t == "" {
		t = model.TransportHTTP
	}
	d, err := r.Get(t)
	if err != nil {
		return Failure(err.Error())
	}
	return d.StartMission(ctx, robot, missionID)
}
