package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "gofleet API",
		Version:     "v1",
		Description: "Robot fleet mission scheduling and map assignment",
		Endpoints: []endpointInfo{
			{"/api/v1/missions", []string{"GET", "POST"}, "List missions (?status=, ?asset_code=) or submit one; POST assigns a map from task positions"},
			{"/api/v1/missions/{id}", []string{"GET"}, "Single mission with its robot and map"},
			{"/api/v1/missions/{id}/cancel", []string{"POST"}, "Cancel a pending mission"},
			{"/api/v1/missions/{id}/map", []string{"GET"}, "Image of the map assigned to a mission"},
			{"/api/v1/robots", []string{"GET", "POST"}, "Robot registration"},
			{"/api/v1/robots/{id}", []string{"GET"}, "Single robot"},
			{"/api/v1/robots/{id}/status", []string{"PUT"}, "Report robot availability"},
			{"/api/v1/assets/{code}/maps", []string{"GET"}, "Maps available for an asset"},
			{"/api/v1/assets/{code}/maps/{name}", []string{"PUT"}, "Upload a map image with its boundary"},
			{"/api/v1/health", []string{"GET"}, "Server health and mission counts"},
		},
	})
}
