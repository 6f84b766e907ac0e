package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quakeFeed = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "a", "properties": {"mag": 5.0, "place": "A"},
     "geometry": {"type": "Point", "coordinates": [-120.5, 36.1, 5]}},
    {"type": "Feature", "id": "b", "properties": {"mag": 0, "place": "B"},
     "geometry": {"type": "Point", "coordinates": [-150.2, 61.3, 40]}}
  ]
}`

const plateFeed = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"Name": "AF-AN"},
     "geometry": {"type": "LineString", "coordinates": [[-0.4, -54.8], [0.0, -54.6], [1.2, -54.0]]}}
  ]
}`

func newTestLoader(timeout time.Duration) (*Loader, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewLoader(timeout, m), m
}

func TestParseEarthquakes(t *testing.T) {
	doc, err := Parse([]byte(quakeFeed))
	require.NoError(t, err)
	require.Len(t, doc.Features, 2)

	first := doc.Features[0]
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, orb.Point{-120.5, 36.1}, first.Geometry)

	depth, ok := first.Depth()
	require.True(t, ok)
	assert.Equal(t, 5.0, depth)

	mag, ok := first.Magnitude()
	require.True(t, ok)
	assert.Equal(t, 5.0, mag)
	assert.Equal(t, "A", first.Place())

	depth, ok = doc.Features[1].Depth()
	require.True(t, ok)
	assert.Equal(t, 40.0, depth)
}

func TestParsePlates(t *testing.T) {
	doc, err := Parse([]byte(plateFeed))
	require.NoError(t, err)
	require.Len(t, doc.Features, 1)

	ls, ok := doc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, 3)

	_, ok = doc.Features[0].Depth()
	assert.False(t, ok)
	_, ok = doc.Features[0].Magnitude()
	assert.False(t, ok)
}

func TestParseToleratesBrokenFeatures(t *testing.T) {
	doc, err := Parse([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":null,"properties":null},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"mag":null}},
		{"type":"Feature","geometry":{"type":"Bogus","coordinates":7},"properties":{}}
	]}`))
	require.NoError(t, err)
	require.Len(t, doc.Features, 3)

	assert.Nil(t, doc.Features[0].Geometry)
	assert.NotNil(t, doc.Features[0].Properties)

	_, ok := doc.Features[1].Depth()
	assert.False(t, ok, "two coordinates carry no depth")
	_, ok = doc.Features[1].Magnitude()
	assert.False(t, ok, "null magnitude")

	assert.Nil(t, doc.Features[2].Geometry)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`<html>`))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Parse([]byte(`{"type":"Feature"}`))
	assert.ErrorIs(t, err, ErrNotFeatureCollection)
}

func TestLoaderFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(quakeFeed))
	}))
	defer srv.Close()

	l, m := newTestLoader(5 * time.Second)
	doc, err := l.Fetch(context.Background(), "earthquakes", srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, doc.URL)
	assert.Len(t, doc.Features, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequests.WithLabelValues("earthquakes", "success")))
}

func TestLoaderFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	l, m := newTestLoader(5 * time.Second)
	_, err := l.Fetch(context.Background(), "plates", srv.URL)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequests.WithLabelValues("plates", "error")))
}

func TestLoaderFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features": [`))
	}))
	defer srv.Close()

	l, _ := newTestLoader(5 * time.Second)
	_, err := l.Fetch(context.Background(), "earthquakes", srv.URL)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestLoaderFetchBodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(quakeFeed))
	}))
	defer srv.Close()

	l, m := newTestLoader(5 * time.Second)
	l.maxBody = 32
	_, err := l.Fetch(context.Background(), "earthquakes", srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequests.WithLabelValues("earthquakes", "error")))

	// exactly at the limit still parses
	l.maxBody = int64(len(quakeFeed))
	doc, err := l.Fetch(context.Background(), "earthquakes", srv.URL)
	require.NoError(t, err)
	assert.Len(t, doc.Features, 2)
}

func TestLoaderFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(quakeFeed))
	}))
	defer srv.Close()

	l, _ := newTestLoader(50 * time.Millisecond)
	_, err := l.Fetch(context.Background(), "earthquakes", srv.URL)
	require.Error(t, err)
}

func TestLoaderFetchCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(quakeFeed))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, _ := newTestLoader(5 * time.Second)
	_, err := l.Fetch(ctx, "earthquakes", srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
