package scheduler

import (
	"context"

	"github.com/me/gofleet/pkg/model"
)

// Scheduler starts pending missions on their robots once they are eligible.
type Scheduler interface {
	// Start begins the dispatch loop. Blocks until ctx is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler.
	Stop() error

	// Tick runs a single dispatch iteration. Used for testing.
	Tick(ctx context.Context) error
}

// MissionRepository is the persistence the loop needs. store.Store satisfies it.
type MissionRepository interface {
	ListMissionsByStatus(ctx context.Context, status model.MissionStatus) ([]*model.Mission, error)
	GetMission(ctx context.Context, id string) (*model.Mission, error)
	UpdateMission(ctx context.Context, m *model.Mission) error
}
