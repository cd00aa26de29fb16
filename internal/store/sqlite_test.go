package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRobot() *model.Robot {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Robot{
		ID:           "robot_test-1",
		Name:         "taurob-1",
		SerialNumber: "SN-001",
		AssetCode:    "JSV",
		Status:       model.RobotStatusAvailable,
		Enabled:      true,
		Transport:    model.TransportHTTP,
		Host:         "10.0.0.5",
		Port:         3000,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleMission(robotID string) *model.Mission {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Mission{
		ID:               "mission_test-1",
		Name:             "weekly gauge round",
		RobotID:          robotID,
		AssetCode:        "JSV",
		DesiredStartTime: now.Add(-time.Minute),
		Status:           model.MissionStatusPending,
		Tasks: []model.PlannedTask{
			{TagID: "A-1", TagPosition: &geometry.Position{X: 3, Y: 3, Z: 1}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrate_CreatesAllColumns(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	want := map[string][]string{
		"missions": {"status_reason", "tasks", "map"},
		"robots":   {"serial_number", "transport", "enabled"},
	}
	for table, cols := range want {
		rows, err := st.db.QueryContext(ctx, "SELECT name FROM pragma_table_info('"+table+"')")
		if err != nil {
			t.Fatalf("table_info(%s): %v", table, err)
		}
		have := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				t.Fatalf("scan: %v", err)
			}
			have[name] = true
		}
		rows.Close()
		for _, c := range cols {
			if !have[c] {
				t.Errorf("%s: missing column %s", table, c)
			}
		}
	}
}

func TestRobotCRUD(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	r := sampleRobot()
	if err := st.CreateRobot(ctx, r); err != nil {
		t.Fatalf("CreateRobot: %v", err)
	}

	got, err := st.GetRobot(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRobot: %v", err)
	}
	if got == nil {
		t.Fatal("GetRobot returned nil")
	}
	if got.Name != r.Name || got.Status != model.RobotStatusAvailable || !got.Enabled || got.Port != 3000 {
		t.Errorf("robot = %+v", got)
	}

	got.Status = model.RobotStatusOffline
	if err := st.UpdateRobot(ctx, got); err != nil {
		t.Fatalf("UpdateRobot: %v", err)
	}
	got, _ = st.GetRobot(ctx, r.ID)
	if got.Status != model.RobotStatusOffline {
		t.Errorf("Status = %q, want Offline", got.Status)
	}

	robots, err := st.ListRobots(ctx)
	if err != nil {
		t.Fatalf("ListRobots: %v", err)
	}
	if len(robots) != 1 {
		t.Errorf("len(robots) = %d, want 1", len(robots))
	}
}

func TestGetRobot_NotFound(t *testing.T) {
	st := testStore(t)
	got, err := st.GetRobot(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRobot: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestUpdateRobot_NotFound(t *testing.T) {
	st := testStore(t)
	r := sampleRobot()
	if err := st.UpdateRobot(context.Background(), r); err == nil {
		t.Error("expected error updating missing robot")
	}
}

func TestMissionCRUD(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	r := sampleRobot()
	if err := st.CreateRobot(ctx, r); err != nil {
		t.Fatalf("CreateRobot: %v", err)
	}
	m := sampleMission(r.ID)
	m.Map = &model.MissionMap{
		MapName:  "jsv-deck-a.png",
		Boundary: geometry.NewBoundary(0, 0, 10, 10, 0, 5),
	}
	if err := st.CreateMission(ctx, m); err != nil {
		t.Fatalf("CreateMission: %v", err)
	}

	got, err := st.GetMission(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMission: %v", err)
	}
	if got == nil {
		t.Fatal("GetMission returned nil")
	}
	if got.Robot == nil || got.Robot.ID != r.ID {
		t.Fatalf("Robot = %+v, want joined robot %s", got.Robot, r.ID)
	}
	if got.Robot.Status != model.RobotStatusAvailable {
		t.Errorf("Robot.Status = %q", got.Robot.Status)
	}
	if !got.DesiredStartTime.Equal(m.DesiredStartTime) {
		t.Errorf("DesiredStartTime = %v, want %v", got.DesiredStartTime, m.DesiredStartTime)
	}
	if got.Map == nil || got.Map.MapName != "jsv-deck-a.png" || got.Map.Boundary.X2 != 10 {
		t.Errorf("Map = %+v", got.Map)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].TagPosition == nil || got.Tasks[0].TagPosition.X != 3 {
		t.Errorf("Tasks = %+v", got.Tasks)
	}

	got.Status = model.MissionStatusFailed
	got.StatusReason = "robot rejected mission"
	if err := st.UpdateMission(ctx, got); err != nil {
		t.Fatalf("UpdateMission: %v", err)
	}
	got, _ = st.GetMission(ctx, m.ID)
	if got.Status != model.MissionStatusFailed || got.StatusReason != "robot rejected mission" {
		t.Errorf("after update: status=%q reason=%q", got.Status, got.StatusReason)
	}
}

func TestGetMission_NotFound(t *testing.T) {
	st := testStore(t)
	got, err := st.GetMission(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetMission: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestGetMission_WithoutRobot(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	m := sampleMission("robot_gone")
	if err := st.CreateMission(ctx, m); err != nil {
		t.Fatalf("CreateMission: %v", err)
	}
	got, err := st.GetMission(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMission: %v", err)
	}
	if got.Robot != nil {
		t.Errorf("Robot = %+v, want nil", got.Robot)
	}
	if got.Map != nil {
		t.Errorf("Map = %+v, want nil", got.Map)
	}
}

func TestListMissionsByStatus(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	statuses := []model.MissionStatus{
		model.MissionStatusPending,
		model.MissionStatusFailed,
		model.MissionStatusPending,
		model.MissionStatusSuccessful,
	}
	for i, status := range statuses {
		m := sampleMission("robot_test-1")
		m.ID = fmt.Sprintf("mission_%d", i)
		m.Status = status
		m.DesiredStartTime = base.Add(time.Duration(-i) * time.Minute)
		if err := st.CreateMission(ctx, m); err != nil {
			t.Fatalf("CreateMission: %v", err)
		}
	}

	pending, err := st.ListMissionsByStatus(ctx, model.MissionStatusPending)
	if err != nil {
		t.Fatalf("ListMissionsByStatus: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2", len(pending))
	}
	// Earliest desired start first.
	if pending[0].ID != "mission_2" || pending[1].ID != "mission_0" {
		t.Errorf("order = [%s %s], want [mission_2 mission_0]", pending[0].ID, pending[1].ID)
	}
}

func TestListMissions_Filtered(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m := sampleMission("robot_test-1")
		m.ID = fmt.Sprintf("mission_%d", i)
		if i%2 == 1 {
			m.AssetCode = "HUA"
		}
		if err := st.CreateMission(ctx, m); err != nil {
			t.Fatalf("CreateMission: %v", err)
		}
	}

	all, total, err := st.ListMissions(ctx, model.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListMissions: %v", err)
	}
	if total != 5 || len(all) != 2 {
		t.Errorf("total=%d len=%d, want 5 and 2", total, len(all))
	}

	hua, total, err := st.ListMissions(ctx, model.ListOptions{AssetCode: "HUA", Status: model.MissionStatusPending})
	if err != nil {
		t.Fatalf("ListMissions(HUA): %v", err)
	}
	if total != 2 || len(hua) != 2 {
		t.Errorf("HUA total=%d len=%d, want 2", total, len(hua))
	}
}

func TestUpdateMission_NotFound(t *testing.T) {
	st := testStore(t)
	if err := st.UpdateMission(context.Background(), sampleMission("r")); err == nil {
		t.Error("expected error updating missing mission")
	}
}
