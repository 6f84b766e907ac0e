package mapview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/layer"
	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	quakesURL = "http://feeds.test/quakes"
	platesURL = "http://feeds.test/plates"

	quakesBody = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"mag":5.0,"place":"A"},"geometry":{"type":"Point","coordinates":[10,20,5]}},
		{"type":"Feature","properties":{"mag":0,"place":"B"},"geometry":{"type":"Point","coordinates":[30,40,40]}}
	]}`
	platesBody = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}
	]}`
)

// fakeFetcher serves documents by URL. A URL listed in gates blocks until its channel closes.
type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
	gates  map[string]chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ string, url string) (*feed.Document, error) {
	if gate, ok := f.gates[url]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return feed.Parse([]byte(f.bodies[url]))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Earthquakes.URL = quakesURL
	cfg.Plates.URL = platesURL
	return cfg
}

func newTestMap(f Fetcher, clock clockwork.Clock) *Map {
	return New(testConfig(), f, layer.NewComposer(observability.NewMetricsForTesting()), clock)
}

func groupOf(t *testing.T, m *Map, id string) *layer.Group {
	t.Helper()
	g, ok := m.Overlay(id)
	require.True(t, ok)
	return g
}

func TestNewInitialState(t *testing.T) {
	m := newTestMap(&fakeFetcher{}, nil)

	assert.Equal(t, "Street Map", m.ActiveBase())
	assert.True(t, m.OverlayVisible(config.OverlayEarthquakes))
	assert.True(t, m.OverlayVisible(config.OverlayPlates))
	assert.False(t, m.Ready())
	assert.Empty(t, m.Notices())

	def := m.Definition()
	assert.Equal(t, [2]float64{37.10, -95.71}, def.Center)
	assert.Equal(t, 5, def.Zoom)
	assert.False(t, def.Control.Collapsed)
	require.Len(t, def.BaseLayers, 2)
	require.Len(t, def.Overlays, 2)
	assert.Equal(t, "Earthquakes", def.Overlays[0].Name)
	assert.Equal(t, "Tectonic Plates", def.Overlays[1].Name)
	assert.Equal(t, layer.StatePending, def.Overlays[0].State)
	assert.Len(t, def.Legend, 4)
}

func TestLoadPopulatesBothOverlays(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{quakesURL: quakesBody, platesURL: platesBody}}
	m := newTestMap(f, nil)

	require.NoError(t, m.Load(context.Background()))
	assert.True(t, m.Ready())
	assert.Empty(t, m.Notices())

	quakes := groupOf(t, m, config.OverlayEarthquakes)
	plates := groupOf(t, m, config.OverlayPlates)
	assert.Equal(t, 2, quakes.Len())
	assert.Equal(t, 1, plates.Len())

	ms := quakes.Primitives()
	assert.Equal(t, 20.0, ms[0].(layer.CircleMarker).Style.Radius)
	assert.Equal(t, 1.0, ms[1].(layer.CircleMarker).Style.Radius)

	def := m.Definition()
	assert.Equal(t, layer.StatePopulated, def.Overlays[0].State)
	assert.Equal(t, 2, def.Overlays[0].Count)
}

func TestLoadTwice(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{quakesURL: quakesBody, platesURL: platesBody}}
	m := newTestMap(f, nil)

	require.NoError(t, m.Load(context.Background()))
	assert.ErrorIs(t, m.Load(context.Background()), ErrAlreadyLoaded)
	assert.Equal(t, 2, groupOf(t, m, config.OverlayEarthquakes).Len())
}

func TestLoadFailureLeavesOverlayEmptyWithNotice(t *testing.T) {
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeFetcher{
		bodies: map[string]string{platesURL: platesBody},
		errs:   map[string]error{quakesURL: errors.New("connection refused")},
	}
	m := newTestMap(f, clockwork.NewFakeClockAt(at))

	require.NoError(t, m.Load(context.Background()))

	quakes := groupOf(t, m, config.OverlayEarthquakes)
	state, reason := quakes.State()
	assert.Equal(t, layer.StateFailed, state)
	assert.Contains(t, reason, "connection refused")
	assert.Equal(t, 0, quakes.Len())

	// the other feed is unaffected
	assert.Equal(t, 1, groupOf(t, m, config.OverlayPlates).Len())

	notices := m.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Earthquakes", notices[0].Overlay)
	assert.Equal(t, at, notices[0].Time)
	assert.Contains(t, notices[0].Message, "connection refused")
}

func TestLoadFeedsAreIndependent(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		bodies: map[string]string{quakesURL: quakesBody, platesURL: platesBody},
		gates:  map[string]chan struct{}{quakesURL: gate},
	}
	m := newTestMap(f, nil)

	errc := make(chan error, 1)
	go func() { errc <- m.Load(context.Background()) }()

	plates := groupOf(t, m, config.OverlayPlates)
	require.Eventually(t, func() bool {
		state, _ := plates.State()
		return state == layer.StatePopulated
	}, 2*time.Second, 10*time.Millisecond)

	quakesState, _ := groupOf(t, m, config.OverlayEarthquakes).State()
	assert.Equal(t, layer.StatePending, quakesState)
	assert.False(t, m.Ready())

	close(gate)
	require.NoError(t, <-errc)
	assert.True(t, m.Ready())
	assert.Equal(t, 2, groupOf(t, m, config.OverlayEarthquakes).Len())
}

func TestLoadWithHTTPLoader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quakes", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(quakesBody))
	})
	mux.HandleFunc("/plates", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.Earthquakes.URL = srv.URL + "/quakes"
	cfg.Plates.URL = srv.URL + "/plates"

	metrics := observability.NewMetricsForTesting()
	m := New(cfg, feed.NewLoader(5*time.Second, metrics), layer.NewComposer(metrics), nil)
	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, 2, groupOf(t, m, config.OverlayEarthquakes).Len())
	state, reason := groupOf(t, m, config.OverlayPlates).State()
	assert.Equal(t, layer.StateFailed, state)
	assert.Contains(t, reason, "404")
	require.Len(t, m.Notices(), 1)
}

func TestOverlayVisibilityIsIndependent(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{quakesURL: quakesBody, platesURL: platesBody}}
	m := newTestMap(f, nil)
	require.NoError(t, m.Load(context.Background()))

	before := groupOf(t, m, config.OverlayPlates).Primitives()

	require.NoError(t, m.SetOverlayVisible(config.OverlayEarthquakes, false))
	assert.False(t, m.OverlayVisible(config.OverlayEarthquakes))
	assert.True(t, m.OverlayVisible(config.OverlayPlates))
	assert.Equal(t, before, groupOf(t, m, config.OverlayPlates).Primitives())
	assert.Equal(t, 2, groupOf(t, m, config.OverlayEarthquakes).Len(), "hiding keeps primitives")

	require.NoError(t, m.SetOverlayVisible(config.OverlayEarthquakes, true))
	assert.True(t, m.OverlayVisible(config.OverlayEarthquakes))

	assert.ErrorIs(t, m.SetOverlayVisible("volcanoes", false), ErrUnknownLayer)
}

func TestSelectBaseIsExclusive(t *testing.T) {
	m := newTestMap(&fakeFetcher{}, nil)

	require.NoError(t, m.SelectBase("Satellite Map"))
	assert.Equal(t, "Satellite Map", m.ActiveBase())
	assert.Equal(t, "Satellite Map", m.Definition().Base)

	assert.ErrorIs(t, m.SelectBase("Watercolor"), ErrUnknownLayer)
	assert.Equal(t, "Satellite Map", m.ActiveBase())
}

func TestOverlayUnknown(t *testing.T) {
	m := newTestMap(&fakeFetcher{}, nil)
	_, ok := m.Overlay("volcanoes")
	assert.False(t, ok)
	assert.False(t, m.OverlayVisible("volcanoes"))
}
