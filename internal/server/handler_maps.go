package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	code := chi.URLParam(r, "code")

	maps := []model.MapCandidate{}
	if s.maps != nil {
		if listed := s.maps.ListMaps(r.Context(), code); listed != nil {
			maps = listed
		}
	}
	respondOK(w, reqID, maps)
}

type uploadMapRequest struct {
	Boundary    geometry.Boundary `json:"boundary"`
	ImageWidth  int               `json:"image_width"`
	ImageHeight int               `json:"image_height"`
	Image       []byte            `json:"image"` // base64 in JSON
}

func (s *Server) handleUploadMap(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	code := chi.URLParam(r, "code")
	name := chi.URLParam(r, "name")

	if s.maps == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("map store for asset", code))
		return
	}

	var req uploadMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	c := model.MapCandidate{
		Name:        name,
		Boundary:    req.Boundary,
		ImageWidth:  req.ImageWidth,
		ImageHeight: req.ImageHeight,
	}
	if err := s.maps.UploadMap(r.Context(), code, c, req.Image); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrValidation {
			respondError(w, reqID, http.StatusBadRequest, apiErr)
			return
		}
		respondInternal(w, reqID, err)
		return
	}
	s.logger.Info("map uploaded", "asset_code", code, "map", name, "bytes", len(req.Image))
	respondCreated(w, reqID, c)
}
