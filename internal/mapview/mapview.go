// Package mapview assembles the map: base layers, overlay groups, the layer control
// and the loading of both feeds into their overlays.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/layer"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnknownLayer is returned for a base layer or overlay name that does not exist.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrAlreadyLoaded is returned when Load is called a second time.
	ErrAlreadyLoaded = errors.New("map already loaded")
)

// Fetcher retrieves a feed document.
type Fetcher interface {
	Fetch(ctx context.Context, name, url string) (*feed.Document, error)
}

// Overlay is a toggleable layer group shown above the base map.
type Overlay struct {
	Group   *layer.Group
	URL     string
	Visible bool
}

// Notice is a visible, non-blocking message about a feed that could not be shown.
type Notice struct {
	Time    time.Time `json:"time"`
	Overlay string    `json:"overlay"`
	Message string    `json:"message"`
}

// Map is the application state of one map session.
type Map struct {
	cfg      *config.Config
	fetcher  Fetcher
	composer *layer.Composer
	clock    clockwork.Clock

	mu       sync.RWMutex
	base     string
	overlays []*Overlay
	notices  []Notice
	loading  bool
	done     chan struct{}
}

// New builds the map from configuration. Both overlays start empty and visible,
// and the initial base layer is selected.
func New(cfg *config.Config, fetcher Fetcher, composer *layer.Composer, clock clockwork.Clock) *Map {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	m := &Map{
		cfg:      cfg,
		fetcher:  fetcher,
		composer: composer,
		clock:    clock,
		base:     cfg.InitialBase(),
		done:     make(chan struct{}),
		overlays: []*Overlay{
			{
				Group:   layer.NewGroup(config.OverlayEarthquakes, cfg.Earthquakes.Name),
				URL:     cfg.Earthquakes.URL,
				Visible: true,
			},
			{
				Group:   layer.NewGroup(config.OverlayPlates, cfg.Plates.Name),
				URL:     cfg.Plates.URL,
				Visible: true,
			},
		},
	}

	log.Debug().
		Str("base", m.base).
		Int("base_layers", len(cfg.BaseLayers)).
		Int("overlays", len(m.overlays)).
		Msg("Map assembled")

	return m
}

// Load fetches both feeds concurrently and populates their overlays.
// Neither feed waits for the other. A feed that fails leaves its overlay empty and adds a notice;
// Load itself only fails when called twice.
func (m *Map) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return ErrAlreadyLoaded
	}
	m.loading = true
	m.mu.Unlock()

	defer close(m.done)

	g, ctx := errgroup.WithContext(ctx)
	for _, o := range m.overlays {
		o := o
		g.Go(func() error {
			m.loadOverlay(ctx, o)
			return nil
		})
	}

	return g.Wait()
}

func (m *Map) loadOverlay(ctx context.Context, o *Overlay) {
	id := o.Group.ID()

	doc, err := m.fetcher.Fetch(ctx, id, o.URL)
	if err != nil {
		m.fail(o, err)
		return
	}

	switch id {
	case config.OverlayEarthquakes:
		_, err = m.composer.ComposeEarthquakes(doc, o.Group)
	case config.OverlayPlates:
		_, err = m.composer.ComposePlates(doc, o.Group)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownLayer, id)
	}
	if err != nil {
		m.fail(o, err)
	}
}

func (m *Map) fail(o *Overlay, err error) {
	log.Error().
		Err(err).
		Str("overlay", o.Group.ID()).
		Str("url", o.URL).
		Msg("Overlay left empty")

	if ferr := o.Group.Fail(err.Error()); ferr != nil {
		log.Debug().Err(ferr).Str("overlay", o.Group.ID()).Msg("Overlay state unchanged")
	}

	m.mu.Lock()
	m.notices = append(m.notices, Notice{
		Time:    m.clock.Now(),
		Overlay: o.Group.Name(),
		Message: fmt.Sprintf("%s could not be loaded: %v", o.Group.Name(), err),
	})
	m.mu.Unlock()
}

// Done is closed once Load has finished with both feeds.
func (m *Map) Done() <-chan struct{} {
	return m.done
}

// Ready reports whether both feeds have been processed.
func (m *Map) Ready() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Notices returns the failure notices collected so far.
func (m *Map) Notices() []Notice {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Notice, len(m.notices))
	copy(out, m.notices)
	return out
}

// Overlay returns the overlay with the given identifier.
func (m *Map) Overlay(id string) (*layer.Group, bool) {
	for _, o := range m.overlays {
		if o.Group.ID() == id {
			return o.Group, true
		}
	}
	return nil, false
}

// SelectBase makes name the active base layer. Base layers are mutually exclusive.
func (m *Map) SelectBase(name string) error {
	for _, b := range m.cfg.BaseLayers {
		if b.Name == name {
			m.mu.Lock()
			m.base = name
			m.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: base %q", ErrUnknownLayer, name)
}

// ActiveBase returns the selected base layer.
func (m *Map) ActiveBase() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.base
}

// SetOverlayVisible changes the visibility flag of one overlay without touching its primitives
// or any other overlay.
func (m *Map) SetOverlayVisible(id string, visible bool) error {
	for _, o := range m.overlays {
		if o.Group.ID() == id {
			m.mu.Lock()
			o.Visible = visible
			m.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: overlay %q", ErrUnknownLayer, id)
}

// OverlayVisible reports the visibility flag of an overlay.
func (m *Map) OverlayVisible(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.overlays {
		if o.Group.ID() == id {
			return o.Visible
		}
	}
	return false
}
