// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Overlay identifiers used in routes and in the map definition.
const (
	OverlayEarthquakes = "earthquakes"
	OverlayPlates      = "plates"
)

// Config represents the root configuration file structure.
type Config struct {
	Title       string        `yaml:"title,omitempty" json:"title"`
	Earthquakes Feed          `yaml:"earthquakes" json:"-"`
	Plates      Feed          `yaml:"plates" json:"-"`
	BaseLayers  []BaseLayer   `yaml:"base_layers" json:"base_layers"`
	Center      [2]float64    `yaml:"center" json:"center"` // [Lat, Lon]
	Zoom        int           `yaml:"zoom" json:"zoom"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"-"`
	Collapsed   bool          `yaml:"collapsed,omitempty" json:"collapsed"`
}

// Feed describes one remote GeoJSON document and the overlay it populates.
type Feed struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"-"`
}

// BaseLayer represents a tile layer selectable as the map background.
type BaseLayer struct {
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Attribution string `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	Initial     bool   `yaml:"initial,omitempty" json:"initial,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Title:   "Earthquakes and Tectonic Plates",
		Center:  [2]float64{37.10, -95.71},
		Zoom:    5,
		Timeout: 15 * time.Second,
		Earthquakes: Feed{
			Name: "Earthquakes",
			URL:  "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson",
		},
		Plates: Feed{
			Name: "Tectonic Plates",
			URL:  "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json",
		},
		BaseLayers: []BaseLayer{
			{
				Name:        "Street Map",
				URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
				Attribution: "© OpenStreetMap contributors",
				Initial:     true,
			},
			{
				Name:        "Satellite Map",
				URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
				Attribution: "Map data: © OpenStreetMap contributors, SRTM | Map style: © OpenTopoMap (CC-BY-SA)",
			},
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Values present in the file override the defaults; an empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can build a map.
func (c *Config) Validate() error {
	if c.Earthquakes.URL == "" {
		return errors.New("earthquakes feed url is empty")
	}
	if c.Plates.URL == "" {
		return errors.New("plates feed url is empty")
	}
	if len(c.BaseLayers) == 0 {
		return errors.New("at least one base layer is required")
	}

	initial := 0
	seen := make(map[string]bool, len(c.BaseLayers))
	for _, b := range c.BaseLayers {
		if b.Name == "" || b.URL == "" {
			return errors.New("base layer requires name and url")
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate base layer %q", b.Name)
		}
		seen[b.Name] = true
		if b.Initial {
			initial++
		}
	}
	if initial > 1 {
		return fmt.Errorf("%d base layers marked initial, expected at most one", initial)
	}

	return nil
}

// InitialBase returns the name of the base layer shown at startup.
// Without an explicit choice the first configured layer wins.
func (c *Config) InitialBase() string {
	for _, b := range c.BaseLayers {
		if b.Initial {
			return b.Name
		}
	}
	return c.BaseLayers[0].Name
}
