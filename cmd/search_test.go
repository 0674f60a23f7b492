package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarch/roofscout/internal/config"
)

func testSearchConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{
			CenterLat: 46.9481,
			CenterLon: 7.4474,
			RadiusKM:  3.5,
			MinAreaM2: 250,
			Limit:     200,
		},
		Export: config.ExportConfig{
			Dir:     "/data/out",
			Formats: []string{"csv", "xlsx"},
		},
	}
}

func TestResolveSearchOptionsFromConfig(t *testing.T) {
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	registerSearchFlags(flags)
	require.NoError(t, flags.Parse(nil))

	opts := resolveSearchOptions(flags, testSearchConfig())

	// With no flags set, every value comes from the config file.
	assert.InDelta(t, 46.9481, opts.lat, 1e-9)
	assert.InDelta(t, 7.4474, opts.lon, 1e-9)
	assert.InDelta(t, 3.5, opts.radiusKM, 1e-9)
	assert.InDelta(t, 250.0, opts.minArea, 1e-9)
	assert.Equal(t, 200, opts.limit)
	assert.Equal(t, "/data/out/roof_candidates", opts.outPrefix)
	assert.Equal(t, []string{"csv", "xlsx"}, opts.formats)
}

func TestResolveSearchOptionsFlagsOverrideConfig(t *testing.T) {
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	registerSearchFlags(flags)
	require.NoError(t, flags.Parse([]string{
		"--lat", "47.05", "--radius-km", "1.2", "--formats", "geojson",
		"--out-prefix", "bern_roofs",
	}))

	opts := resolveSearchOptions(flags, testSearchConfig())

	assert.InDelta(t, 47.05, opts.lat, 1e-9)
	assert.InDelta(t, 1.2, opts.radiusKM, 1e-9)
	assert.Equal(t, []string{"geojson"}, opts.formats)
	assert.Equal(t, "bern_roofs", opts.outPrefix)

	// Untouched flags still fall back to config.
	assert.InDelta(t, 7.4474, opts.lon, 1e-9)
	assert.InDelta(t, 250.0, opts.minArea, 1e-9)
	assert.Equal(t, 200, opts.limit)
}
