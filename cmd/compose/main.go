package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/layer"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/mapview"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"  description:"Path to configuration file, built-in defaults when empty"`
	Output     string        `short:"o" long:"out"     description:"Output file path. Writes to stdout if empty"`
	Format     string        `short:"f" long:"format"  description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Layers     []string      `short:"l" long:"layer"   description:"Limit output to specific overlays" choice:"earthquakes" choice:"plates"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"FEED_TIMEOUT" description:"Feed request timeout"`
	Strict     bool          `short:"s" long:"strict"  description:"Exit with an error when a feed fails"`
}

// output is the composed document: overlay id to styled GeoJSON.
type output struct {
	Layers  map[string]geo.GeoJSONFeatureCollection `json:"layers" yaml:"layers"`
	Notices []mapview.Notice                        `json:"notices,omitempty" yaml:"notices,omitempty"`
}

// errFeedsFailed is returned in strict mode when any feed could not be loaded.
var errFeedsFailed = errors.New("feeds failed to load")

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Compose failed")
	}
}

// run loads both feeds and writes the selected layers to opts.Output, or to stdout when empty.
func run(ctx context.Context, opts Options, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	m := mapview.New(cfg, feed.NewLoader(cfg.Timeout, nil), layer.NewComposer(nil), nil)
	if err := m.Load(ctx); err != nil {
		return fmt.Errorf("load feeds: %w", err)
	}

	notices := m.Notices()
	if opts.Strict && len(notices) > 0 {
		for _, n := range notices {
			log.Error().Str("overlay", n.Overlay).Msg(n.Message)
		}
		return fmt.Errorf("%w: %d of 2", errFeedsFailed, len(notices))
	}

	ids := opts.Layers
	if len(ids) == 0 {
		ids = []string{config.OverlayEarthquakes, config.OverlayPlates}
	}

	out := output{Layers: make(map[string]geo.GeoJSONFeatureCollection, len(ids)), Notices: notices}
	for _, id := range ids {
		g, ok := m.Overlay(id)
		if !ok {
			return fmt.Errorf("%w: %s", mapview.ErrUnknownLayer, id)
		}
		out.Layers[id] = g.FeatureCollection()
	}

	// marshal
	var data []byte
	if opts.Format == "yaml" {
		data, err = yaml.Marshal(out)
	} else {
		data, err = json.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal layers: %w", err)
	}

	if opts.Output == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.Output, err)
	}

	log.Info().
		Str("path", opts.Output).
		Str("format", opts.Format).
		Int("layers", len(out.Layers)).
		Int("notices", len(notices)).
		Msg("Layers composed")

	return nil
}
