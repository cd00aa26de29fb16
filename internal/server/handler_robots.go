package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/me/gofleet/pkg/model"
)

type createRobotRequest struct {
	Name         string          `json:"name"`
	SerialNumber string          `json:"serial_number"`
	AssetCode    string          `json:"asset_code"`
	Status       string          `json:"status"`
	Enabled      *bool           `json:"enabled"`
	Transport    model.Transport `json:"transport"`
	Host         string          `json:"host"`
	Port         int             `json:"port"`
}

func (req createRobotRequest) validate() []model.FieldError {
	var errs []model.FieldError
	if req.Name == "" {
		errs = append(errs, model.FieldError{Field: "name", Message: "name is required"})
	}
	switch req.Transport {
	case "", model.TransportHTTP:
		if req.Host == "" {
			errs = append(errs, model.FieldError{Field: "host", Message: "host is required for http robots"})
		}
	case model.TransportMQTT:
		if req.SerialNumber == "" {
			errs = append(errs, model.FieldError{Field: "serial_number", Message: "serial_number is required for mqtt robots"})
		}
	default:
		errs = append(errs, model.FieldError{Field: "transport", Message: "must be http or mqtt"})
	}
	if req.Port < 0 || req.Port > 65535 {
		errs = append(errs, model.FieldError{Field: "port", Message: "must be between 0 and 65535"})
	}
	return errs
}

func (s *Server) handleCreateRobot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req createRobotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid robot", errs...))
		return
	}

	status := model.RobotStatusOffline
	if req.Status != "" {
		st, err := model.ParseRobotStatus(req.Status)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid robot", model.FieldError{Field: "status", Message: err.Error()}))
			return
		}
		status = st
	}

	now := time.Now().UTC()
	robot := &model.Robot{
		ID:           "rbt_" + uuid.New().String(),
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		AssetCode:    req.AssetCode,
		Status:       status,
		Enabled:      req.Enabled == nil || *req.Enabled,
		Transport:    req.Transport,
		Host:         req.Host,
		Port:         req.Port,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if robot.Transport == "" {
		robot.Transport = model.TransportHTTP
	}

	if err := s.store.CreateRobot(r.Context(), robot); err != nil {
		respondInternal(w, reqID, err)
		return
	}
	s.logger.Info("robot registered", "robot_id", robot.ID, "transport", robot.Transport)
	respondCreated(w, reqID, robot)
}

func (s *Server) handleListRobots(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	robots, err := s.store.ListRobots(r.Context())
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if robots == nil {
		robots = []*model.Robot{}
	}
	respondOK(w, reqID, robots)
}

func (s *Server) handleGetRobot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	robot, err := s.store.GetRobot(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if robot == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("robot", id))
		return
	}
	respondOK(w, reqID, robot)
}

func (s *Server) handleUpdateRobotStatus(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	status, err := model.ParseRobotStatus(req.Status)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid robot status", model.FieldError{Field: "status", Message: err.Error()}))
		return
	}

	robot, err := s.store.GetRobot(r.Context(), id)
	if err != nil {
		respondInternal(w, reqID, err)
		return
	}
	if robot == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("robot", id))
		return
	}

	robot.Status = status
	if err := s.store.UpdateRobot(r.Context(), robot); err != nil {
		respondInternal(w, reqID, err)
		return
	}
	s.logger.Info("robot status updated", "robot_id", robot.ID, "status", status)
	respondOK(w, reqID, robot)
}
