package store

import (
	"context"

	"github.com/me/gofleet/pkg/model"
)

// Store defines the persistence layer for gofleet entities.
type Store interface {
	// Mission CRUD
	CreateMission(ctx context.Context, m *model.Mission) error
	GetMission(ctx context.Context, id string) (*model.Mission, error)
	ListMissions(ctx context.Context, opts model.ListOptions) ([]*model.Mission, int, error)
	ListMissionsByStatus(ctx context.Context, status model.MissionStatus) ([]*model.Mission, error)
	UpdateMission(ctx context.Context, m *model.Mission) error

	// Robot CRUD
	CreateRobot(ctx context.Context, r *model.Robot) error
	GetRobot(ctx context.Context, id string) (*model.Robot, error)
	ListRobots(ctx context.Context) ([]*model.Robot, error)
	UpdateRobot(ctx context.Context, r *model.Robot) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
}
