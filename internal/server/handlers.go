// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/layer"
	"github.com/woozymasta/quakemap/internal/mapview"
)

// maxStateBody bounds the body of the state change requests.
const maxStateBody = 4 << 10

// layerStateHeader tells the client whether an overlay is populated or failed.
const layerStateHeader = "X-Layer-State"

// HandleMap serves the map definition: view, base layers, overlays and control.
func (s *ServerContext) HandleMap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, s.Map.Definition())
}

// HandleSelectBase switches the active base layer and answers with the updated definition.
func (s *ServerContext) HandleSelectBase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected {\"name\": string}"})
		return
	}

	if err := s.Map.SelectBase(req.Name); err != nil {
		writeStateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.Map.Definition())
}

// HandleOverlayVisibility shows or hides one overlay and answers with the updated definition.
func (s *ServerContext) HandleOverlayVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Visible == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected {\"visible\": bool}"})
		return
	}

	if err := s.Map.SetOverlayVisible(r.PathValue("id"), *req.Visible); err != nil {
		writeStateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.Map.Definition())
}

// HandleLayer serves the primitives of one overlay as GeoJSON.
// While the feed is still loading it answers 202 so the client can poll.
// The bbox filter applies to marker overlays only; polyline overlays answer 400.
func (s *ServerContext) HandleLayer(w http.ResponseWriter, r *http.Request) {
	group, ok := s.Map.Overlay(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	state, reason := group.State()
	w.Header().Set(layerStateHeader, state.String())
	w.Header().Set("Cache-Control", "no-cache")

	if state == layer.StatePending {
		writeJSON(w, http.StatusAccepted, map[string]string{"state": state.String()})
		return
	}

	var fc geo.GeoJSONFeatureCollection
	if bbox := r.URL.Query().Get("bbox"); bbox != "" {
		bound, err := geo.ParseBBox(bbox)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		found, err := group.Search(bound)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		fc = layer.ToFeatureCollection(found)
	} else {
		fc = group.FeatureCollection()
	}

	if state == layer.StateFailed {
		w.Header().Set("X-Layer-Error", reason)
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(fc)
}

// HandleNotices serves the messages about feeds that failed to load.
func (s *ServerContext) HandleNotices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, s.Map.Notices())
}

// HandleLegend serves the depth legend image.
func (s *ServerContext) HandleLegend(w http.ResponseWriter, r *http.Request) {
	img, err := s.legendImage()
	if err != nil {
		http.Error(w, "legend unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(img)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleHealth reports that the process is serving.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleReady reports whether both feeds have been processed.
func (s *ServerContext) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.Map.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStateBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeStateError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, mapview.ErrUnknownLayer) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
