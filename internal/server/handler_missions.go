package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/me/gofleet/pkg/model"
)

type createMissionRequest struct {
	Name             string              `json:"name"`
	RobotID          string              `json:"robot_id"`
	AssetCode        string              `json:"asset_code"`
	DesiredStartTime *time.Time          `json:"desired_start_time"`
	Tasks            []model.PlannedTask `json:"tasks"`
}

func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	ctx := r.Context()

	var req createMissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.RobotID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "robot_id", Message: "robot_id is required"}))
		return
	}

	robot, err := s.store.GetRobot(ctx, req.RobotID)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if robot == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("robot", req.RobotID))
		return
	}

	now := time.Now().UTC()
	m := &model.Mission{
		ID:               "msn_" + uuid.New().String(),
		Name:             req.Name,
		RobotID:          robot.ID,
		AssetCode:        req.AssetCode,
		DesiredStartTime: now,
		Status:           model.MissionStatusPending,
		Tasks:            req.Tasks,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.DesiredStartTime != nil {
		m.DesiredStartTime = req.DesiredStartTime.UTC()
	}
	if m.AssetCode == "" {
		m.AssetCode = robot.AssetCode
	}
	if len(m.Tasks) > 0 && m.AssetCode != "" && s.maps != nil {
		if mm := s.maps.AssignMapToMission(ctx, m.AssetCode, m.Tasks); !mm.IsZero() {
			m.Map = &mm
		}
	}

	if err := s.store.CreateMission(ctx, m); err != nil {
		respondInternal(w, reqID, err)
		return
	}
	s.logger.Info("mission created", "mission_id", m.ID, "robot_id", m.RobotID, "asset_code", m.AssetCode)

	full, err := s.store.GetMission(ctx, m.ID)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	respondCreated(w, reqID, full)
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	q := r.URL.Query()

	opts := model.DefaultListOptions()
	if v := q.Get("status"); v != "" {
		st, err := model.ParseMissionStatus(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid query parameter",
					model.FieldError{Field: "status", Message: err.Error()}))
			return
		}
		opts.Status = st
	}
	opts.AssetCode = q.Get("asset_code")
	if err := parsePaging(q.Get("limit"), q.Get("offset"), &opts); err != nil {
		respondError(w, reqID, http.StatusBadRequest, err)
		return
	}
	opts.Clamp()

	missions, total, err := s.store.ListMissions(r.Context(), opts)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if missions == nil {
		missions = []*model.Mission{}
	}
	respondList(w, reqID, missions, model.NewPagination(total, opts))
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	m, err := s.store.GetMission(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if m == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("mission", id))
		return
	}
	respondOK(w, reqID, m)
}

func (s *Server) handleCancelMission(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	m, err := s.store.GetMission(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if m == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("mission", id))
		return
	}
	if !m.Status.CanTransitionTo(model.MissionStatusCancelled) {
		respondError(w, reqID, http.StatusConflict, &model.APIError{
			Code:    model.ErrConflict,
			Message: "cannot cancel mission in status " + string(m.Status),
		})
		return
	}

	m.Status = model.MissionStatusCancelled
	if err := s.store.UpdateMission(r.Context(), m); err != nil {
		respondInternal(w, reqID, err)
		return
	}
	s.logger.Info("mission cancelled", "mission_id", m.ID)
	respondOK(w, reqID, m)
}

func (s *Server) handleGetMissionMap(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if s.maps == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("map for mission", id))
		return
	}
	data, err := s.maps.FetchMapImage(r.Context(), id)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrNotFound {
			respondError(w, reqID, http.StatusNotFound, apiErr)
			return
		}
		respondInternal(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parsePaging reads limit and offset query values into opts.
func parsePaging(limit, offset string, opts *model.ListOptions) *model.APIError {
	var details []model.FieldError
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			details = append(details, model.FieldError{Field: "limit", Message: "must be an integer"})
		}
		opts.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			details = append(details, model.FieldError{Field: "offset", Message: "must be an integer"})
		}
		opts.Offset = n
	}
	if len(details) > 0 {
		return model.NewValidationError("invalid query parameter", details...)
	}
	return nil
}
