package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/woozymasta/quakemap/internal/observability"

	"github.com/rs/zerolog/log"
)

// maxBodySize bounds the size of a feed body.
const maxBodySize = 64 << 20

var (
	// ErrStatus is returned when the server answers with a non-200 status.
	ErrStatus = errors.New("unexpected status")
	// ErrTooLarge is returned when the body exceeds the size limit.
	ErrTooLarge = errors.New("feed body too large")
)

// Loader fetches feeds over HTTP.
type Loader struct {
	client  *http.Client
	metrics *observability.Metrics
	maxBody int64
}

// NewLoader creates a loader with the given request timeout.
func NewLoader(timeout time.Duration, metrics *observability.Metrics) *Loader {
	return &Loader{
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
		maxBody: maxBodySize,
	}
}

// Fetch downloads and parses the document at url. The name labels logs and metrics.
func (l *Loader) Fetch(ctx context.Context, name, url string) (*Document, error) {
	start := time.Now()
	doc, err := l.fetch(ctx, url)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if l.metrics != nil {
		l.metrics.FeedRequests.WithLabelValues(name, outcome).Inc()
		l.metrics.FeedDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}

	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}

	log.Info().
		Str("feed", name).
		Str("url", url).
		Int("features", len(doc.Features)).
		Dur("duration", elapsed).
		Msg("Feed loaded")

	if len(doc.Features) > 0 {
		first := doc.Features[0]
		if mag, ok := first.Magnitude(); ok {
			log.Debug().
				Str("feed", name).
				Float64("mag", mag).
				Str("place", first.Place()).
				Msg("First feature")
		}
	}

	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > l.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, l.maxBody)
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}
	doc.URL = url

	return doc, nil
}
