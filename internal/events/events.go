// Package events publishes mission lifecycle events.
package events

import (
	"context"

	"github.com/me/gofleet/pkg/model"
)

// Routing keys.
const (
	MissionStarted = "mission.started"
	MissionFailed  = "mission.failed"
)

// Publisher emits domain events keyed by routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload map[string]any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, map[string]any) error { return nil }

// MissionPayload builds the event body for a mission.
func MissionPayload(m *model.Mission) map[string]any {
	p := map[string]any{
		"mission_id": m.ID,
		"robot_id":   m.RobotID,
		"asset_code": m.AssetCode,
		"status":     string(m.Status),
	}
	if m.StatusReason != "" {
		p["status_reason"] = m.StatusReason
	}
	if m.Map != nil && !m.Map.IsZero() {
		p["map_name"] = m.Map.MapName
	}
	return p
}
