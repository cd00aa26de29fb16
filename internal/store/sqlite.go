package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/gofleet/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Mission CRUD ---

const missionColumns = `m.id, m.name, m.robot_id, m.asset_code, m.desired_start_time, m.status,
	 m.status_reason, m.map, m.tasks, m.created_at, m.updated_at,
	 r.id, r.name, r.serial_number, r.asset_code, r.status, r.enabled, r.transport,
	 r.host, r.port, r.created_at, r.updated_at`

const missionFrom = `FROM missions m LEFT JOIN robots r ON r.id = m.robot_id`

func (s *SQLiteStore) CreateMission(ctx context.Context, m *model.Mission) error {
	s.logger.Debug("sql", "op", "insert", "table", "missions", "id", m.ID)

	mapJSON, tasksJSON, err := marshalMissionJSON(m)
	if err != nil {
		return err
	}

	status := m.Status
	if status == "" {
		status = model.MissionStatusPending
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO missions (id, name, robot_id, asset_code, desired_start_time, status, status_reason, map, tasks, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.RobotID, m.AssetCode, m.DesiredStartTime.UTC().Format(time.RFC3339Nano),
		string(status), m.StatusReason, mapJSON, tasksJSON,
		m.CreatedAt.Format(time.RFC3339Nano), m.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetMission(ctx context.Context, id string) (*model.Mission, error) {
	s.logger.Debug("sql", "op", "select", "table", "missions", "id", id)

	row := s.db.QueryRowContext(ctx, `SELECT `+missionColumns+` `+missionFrom+` WHERE m.id = ?`, id)
	return s.scanMission(row)
}

func (s *SQLiteStore) ListMissions(ctx context.Context, opts model.ListOptions) ([]*model.Mission, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "missions", "limit", opts.Limit, "offset", opts.Offset, "status", opts.Status)
	opts.Clamp()

	var where []string
	var args []any
	if opts.Status != "" {
		where = append(where, "m.status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.AssetCode != "" {
		where = append(where, "m.asset_code = ?")
		args = append(args, opts.AssetCode)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM missions m`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+missionColumns+` `+missionFrom+whereSQL+` ORDER BY m.created_at DESC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	missions, err := s.scanMissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return missions, total, nil
}

// ListMissionsByStatus returns all missions in the given status, oldest desired start first.
func (s *SQLiteStore) ListMissionsByStatus(ctx context.Context, status model.MissionStatus) ([]*model.Mission, error) {
	s.logger.Debug("sql", "op", "list_by_status", "table", "missions", "status", status)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+missionColumns+` `+missionFrom+` WHERE m.status = ? ORDER BY m.desired_start_time, m.created_at`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanMissions(rows)
}

// UpdateMission persists the mutable mission fields. There is no version check:
// the last writer wins.
func (s *SQLiteStore) UpdateMission(ctx context.Context, m *model.Mission) error {
	s.logger.Debug("sql", "op", "update", "table", "missions", "id", m.ID, "status", m.Status)

	mapJSON, tasksJSON, err := marshalMissionJSON(m)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`UPDATE missions SET name=?, robot_id=?, asset_code=?, desired_start_time=?, status=?,
		 status_reason=?, map=?, tasks=?, updated_at=? WHERE id=?`,
		m.Name, m.RobotID, m.AssetCode, m.DesiredStartTime.UTC().Format(time.RFC3339Nano),
		string(m.Status), m.StatusReason, mapJSON, tasksJSON,
		m.UpdatedAt.Format(time.RFC3339Nano), m.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("mission %s not found", m.ID)
	}
	return nil
}

func marshalMissionJSON(m *model.Mission) (mapJSON *string, tasksJSON string, err error) {
	if m.Map != nil && !m.Map.IsZero() {
		b, err := json.Marshal(m.Map)
		if err != nil {
			return nil, "", fmt.Errorf("marshal map: %w", err)
		}
		v := string(b)
		mapJSON = &v
	}
	tasks := m.Tasks
	if tasks == nil {
		tasks = []model.PlannedTask{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return nil, "", fmt.Errorf("marshal tasks: %w", err)
	}
	return mapJSON, string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanMission(row scanner) (*model.Mission, error) {
	var m model.Mission
	var status, desiredStart, createdAt, updatedAt, tasksJSON string
	var mapJSON *string
	var rID, rName, rSerial, rAsset, rStatus, rTransport, rHost, rCreated, rUpdated sql.NullString
	var rEnabled, rPort sql.NullInt64

	err := row.Scan(
		&m.ID, &m.Name, &m.RobotID, &m.AssetCode, &desiredStart, &status,
		&m.StatusReason, &mapJSON, &tasksJSON, &createdAt, &updatedAt,
		&rID, &rName, &rSerial, &rAsset, &rStatus, &rEnabled, &rTransport,
		&rHost, &rPort, &rCreated, &rUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.Status = model.MissionStatus(status)
	m.DesiredStartTime, _ = time.Parse(time.RFC3339Nano, desiredStart)
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if err := json.Unmarshal([]byte(tasksJSON), &m.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	if mapJSON != nil {
		var mm model.MissionMap
		if err := json.Unmarshal([]byte(*mapJSON), &mm); err != nil {
			return nil, fmt.Errorf("unmarshal map: %w", err)
		}
		m.Map = &mm
	}

	if rID.Valid {
		r := &model.Robot{
			ID:           rID.String,
			Name:         rName.String,
			SerialNumber: rSerial.String,
			AssetCode:    rAsset.String,
			Status:       model.RobotStatus(rStatus.String),
			Enabled:      rEnabled.Int64 != 0,
			Transport:    model.Transport(rTransport.String),
			Host:         rHost.String,
			Port:         int(rPort.Int64),
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, rCreated.String)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, rUpdated.String)
		m.Robot = r
	}

	return &m, nil
}

func (s *SQLiteStore) scanMissions(rows *sql.Rows) ([]*model.Mission, error) {
	var missions []*model.Mission
	for rows.Next() {
		m, err := s.scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

// --- Robot CRUD ---

const robotColumns = `id, name, serial_number, asset_code, status, enabled, transport, host, port, created_at, updated_at`

func (s *SQLiteStore) CreateRobot(ctx context.Context, r *model.Robot) error {
	s.logger.Debug("sql", "op", "insert", "table", "robots", "id", r.ID)

	status := r.Status
	if status == "" {
		status = model.RobotStatusOffline
	}
	transport := r.Transport
	if transport == "" {
		transport = model.TransportHTTP
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO robots (`+robotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.SerialNumber, r.AssetCode, string(status), boolToInt(r.Enabled),
		string(transport), r.Host, r.Port,
		r.CreatedAt.Format(time.RFC3339Nano), r.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetRobot(ctx context.Context, id string) (*model.Robot, error) {
	s.logger.Debug("sql", "op", "select", "table", "robots", "id", id)

	row := s.db.QueryRowContext(ctx, `SELECT `+robotColumns+` FROM robots WHERE id = ?`, id)
	r, err := scanRobot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *SQLiteStore) ListRobots(ctx context.Context) ([]*model.Robot, error) {
	s.logger.Debug("sql", "op", "list", "table", "robots")

	rows, err := s.db.QueryContext(ctx, `SELECT `+robotColumns+` FROM robots ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var robots []*model.Robot
	for rows.Next() {
		r, err := scanRobot(rows)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, rows.Err()
}

func (s *SQLiteStore) UpdateRobot(ctx context.Context, r *model.Robot) error {
	s.logger.Debug("sql", "op", "update", "table", "robots", "id", r.ID, "status", r.Status)

	r.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE robots SET name=?, serial_number=?, asset_code=?, status=?, enabled=?,
		 transport=?, host=?, port=?, updated_at=? WHERE id=?`,
		r.Name, r.SerialNumber, r.AssetCode, string(r.Status), boolToInt(r.Enabled),
		string(r.Transport), r.Host, r.Port, r.UpdatedAt.Format(time.RFC3339Nano), r.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("robot %s not found", r.ID)
	}
	return nil
}

func scanRobot(row scanner) (*model.Robot, error) {
	var r model.Robot
	var status, transport, createdAt, updatedAt string
	var enabled int

	if err := row.Scan(&r.ID, &r.Name, &r.SerialNumber, &r.AssetCode, &status, &enabled,
		&transport, &r.Host, &r.Port, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RobotStatus(status)
	r.Transport = model.Transport(transport)
	r.Enabled = enabled != 0
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
