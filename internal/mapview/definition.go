package mapview

import (
	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/layer"
	"github.com/woozymasta/quakemap/internal/style"
)

// Definition is the JSON document the browser builds its Leaflet map from.
type Definition struct {
	Title      string              `json:"title"`
	Base       string              `json:"base"`
	BaseLayers []config.BaseLayer  `json:"base_layers"`
	Overlays   []OverlayDefinition `json:"overlays"`
	Legend     []style.LegendEntry `json:"legend"`
	Center     [2]float64          `json:"center"`
	Zoom       int                 `json:"zoom"`
	Control    ControlDefinition   `json:"control"`
}

// OverlayDefinition describes one overlay entry of the layer control.
type OverlayDefinition struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	URL     string      `json:"url"`
	State   layer.State `json:"state"`
	Count   int         `json:"count"`
	Visible bool        `json:"visible"`
}

// ControlDefinition configures the layer visibility control.
type ControlDefinition struct {
	Collapsed bool `json:"collapsed"`
}

// Definition returns the current map definition.
func (m *Map) Definition() Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overlays := make([]OverlayDefinition, 0, len(m.overlays))
	for _, o := range m.overlays {
		state, _ := o.Group.State()
		overlays = append(overlays, OverlayDefinition{
			ID:      o.Group.ID(),
			Name:    o.Group.Name(),
			URL:     "/api/layers/" + o.Group.ID(),
			State:   state,
			Count:   o.Group.Len(),
			Visible: o.Visible,
		})
	}

	return Definition{
		Title:      m.cfg.Title,
		Base:       m.base,
		BaseLayers: m.cfg.BaseLayers,
		Overlays:   overlays,
		Legend:     style.Legend(),
		Center:     m.cfg.Center,
		Zoom:       m.cfg.Zoom,
		Control:    ControlDefinition{Collapsed: m.cfg.Collapsed},
	}
}
