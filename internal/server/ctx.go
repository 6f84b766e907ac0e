package server

import (
	"net/http"
	"sync"

	"github.com/woozymasta/quakemap/assets"
	"github.com/woozymasta/quakemap/internal/legend"
	"github.com/woozymasta/quakemap/internal/mapview"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Map       *mapview.Map
	IndexHTML []byte
	Favicon   []byte

	legendOnce sync.Once
	legend     []byte
	legendErr  error
}

// NewServerContext initializes the context around an assembled map.
func NewServerContext(m *mapview.Map) *ServerContext {
	def := m.Definition()
	log.Info().
		Str("base", def.Base).
		Int("base_layers", len(def.BaseLayers)).
		Int("overlays", len(def.Overlays)).
		Msg("Server context initialized")

	return &ServerContext{
		Map:       m,
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
	}
}

// Routes registers every handler on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/map", s.HandleMap)
	mux.HandleFunc("POST /api/map/base", s.HandleSelectBase)
	mux.HandleFunc("GET /api/layers/{id}", s.HandleLayer)
	mux.HandleFunc("POST /api/layers/{id}/visibility", s.HandleOverlayVisibility)
	mux.HandleFunc("GET /api/notices", s.HandleNotices)
	mux.HandleFunc("GET /legend.webp", s.HandleLegend)
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.HandleFunc("GET /readyz", s.HandleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /", s.HandleIndex)
	return mux
}

// legendImage renders the legend on first use.
func (s *ServerContext) legendImage() ([]byte, error) {
	s.legendOnce.Do(func() {
		s.legend, s.legendErr = legend.Bytes()
		if s.legendErr != nil {
			log.Error().Err(s.legendErr).Msg("Failed to render legend")
		}
	})
	return s.legend, s.legendErr
}
