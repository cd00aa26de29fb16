package mapselect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/gofleet/internal/mapstore"
	"github.com/me/gofleet/pkg/model"
)

// MissionGetter loads a mission by ID, returning (nil, nil) when absent.
type MissionGetter interface {
	GetMission(ctx context.Context, id string) (*model.Mission, error)
}

// Service assigns maps to missions and serves map images.
type Service struct {
	provider *Provider
	store    mapstore.Store
	missions MissionGetter
	logger   *slog.Logger
}

// NewService creates a map Service.
func NewService(store mapstore.Store, missions MissionGetter, logger *slog.Logger) *Service {
	return &Service{
		provider: NewProvider(store, logger),
		store:    store,
		missions: missions,
		logger:   logger.With("component", "map-service"),
	}
}

// ListMaps returns the map candidates available for an asset.
func (s *Service) ListMaps(ctx context.Context, assetCode string) []model.MapCandidate {
	return s.provider.ListMaps(ctx, assetCode)
}

// AssignMapToMission picks the best map for tasks at an asset. It returns the
// zero MissionMap when no map is available or none covers every task.
func (s *Service) AssignMapToMission(ctx context.Context, assetCode string, tasks []model.PlannedTask) model.MissionMap {
	candidates := s.provider.ListMaps(ctx, assetCode)
	if len(candidates) == 0 {
		return model.MissionMap{}
	}

	mm, err := SelectBestMap(candidates, tasks)
	if err != nil {
		s.logger.Warn("unable to find a map for the given tasks", "asset_code", assetCode, "tasks", len(tasks))
		return model.MissionMap{}
	}
	s.logger.Debug("map assigned", "asset_code", assetCode, "map", mm.MapName)
	return mm
}

// FetchMapImage downloads the image of the map assigned to a mission.
func (s *Service) FetchMapImage(ctx context.Context, missionID string) ([]byte, error) {
	m, err := s.missions.GetMission(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("get mission %s: %w", missionID, err)
	}
	if m == nil {
		s.logger.Error("mission not found", "mission_id", missionID)
		return nil, model.NewNotFoundError("mission", missionID)
	}
	if m.Map == nil || m.Map.IsZero() {
		return nil, model.NewNotFoundError("map for mission", missionID)
	}

	data, err := s.store.FetchMapBytes(ctx, ContainerName(m.AssetCode), m.Map.MapName)
	if errors.Is(err, mapstore.ErrMapNotFound) || errors.Is(err, mapstore.ErrContainerNotFound) {
		return nil, model.NewNotFoundError("map", m.Map.MapName)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch map %s: %w", m.Map.MapName, err)
	}
	return data, nil
}

// UploadMap stores an image with metadata describing c. The boundary must be
// well formed.
func (s *Service) UploadMap(ctx context.Context, assetCode string, c model.MapCandidate, image []byte) error {
	if err := c.Boundary.Validate(); err != nil {
		return model.NewValidationError("invalid map boundary", model.FieldError{Field: "boundary", Message: err.Error()})
	}
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		return model.NewValidationError("invalid image size",
			model.FieldError{Field: "image_width", Message: "must be > 0"},
			model.FieldError{Field: "image_height", Message: "must be > 0"})
	}
	if len(image) == 0 {
		return model.NewValidationError("empty map image")
	}
	err := s.store.PutMap(ctx, ContainerName(assetCode), c.Name, image, FormatMetadata(c))
	if errors.Is(err, mapstore.ErrInvalidName) {
		return model.NewValidationError("invalid map name", model.FieldError{Field: "name", Message: err.Error()})
	}
	return err
}
