package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/gofleet/pkg/model"
)

type healthResponse struct {
	Status    string               `json:"status"`
	Version   string               `json:"version"`
	GoVersion string               `json:"go_version"`
	Uptime    string               `json:"uptime"`
	Scheduler string               `json:"scheduler"`
	Store     string               `json:"store"`
	Missions  model.MissionSummary `json:"missions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	ctx := r.Context()

	resp := healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Scheduler: "not_configured",
		Store:     "ok",
	}
	if s.scheduler != nil {
		resp.Scheduler = "running"
	}

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("store ping", "error", err)
		resp.Status = "degraded"
		resp.Store = "unavailable"
		respondOK(w, reqID, resp)
		return
	}

	var all []*model.Mission
	for _, st := range model.AllMissionStatuses {
		missions, err := s.store.ListMissionsByStatus(ctx, st)
		if err != nil {
			s.logger.Error("count missions", "status", st, "error", err)
			resp.Status = "degraded"
			break
		}
		all = append(all, missions...)
	}
	resp.Missions = model.ComputeMissionSummary(all)
	respondOK(w, reqID, resp)
}
