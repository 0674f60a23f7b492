package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/solarch/roofscout/internal/candidate"
	"github.com/solarch/roofscout/internal/config"
	"github.com/solarch/roofscout/internal/export"
	"github.com/solarch/roofscout/internal/model"
	"github.com/solarch/roofscout/internal/overpass"
	"github.com/solarch/roofscout/internal/pipeline"
	"github.com/solarch/roofscout/internal/projection"
)

// searchOptions are the effective per-run parameters after merging flags
// over config.
type searchOptions struct {
	lat       float64
	lon       float64
	radiusKM  float64
	minArea   float64
	limit     int
	outPrefix string
	formats   []string
}

// resolveSearchOptions starts from the config file values and overlays any
// flag the user explicitly set. Flags always win over config.
func resolveSearchOptions(flags *pflag.FlagSet, cfg *config.Config) searchOptions {
	opts := searchOptions{
		lat:       cfg.Search.CenterLat,
		lon:       cfg.Search.CenterLon,
		radiusKM:  cfg.Search.RadiusKM,
		minArea:   cfg.Search.MinAreaM2,
		limit:     cfg.Search.Limit,
		outPrefix: filepath.Join(cfg.Export.Dir, "roof_candidates"),
		formats:   cfg.Export.Formats,
	}
	if flags.Changed("lat") {
		opts.lat, _ = flags.GetFloat64("lat")
	}
	if flags.Changed("lon") {
		opts.lon, _ = flags.GetFloat64("lon")
	}
	if flags.Changed("radius-km") {
		opts.radiusKM, _ = flags.GetFloat64("radius-km")
	}
	if flags.Changed("min-area") {
		opts.minArea, _ = flags.GetFloat64("min-area")
	}
	if flags.Changed("limit") {
		opts.limit, _ = flags.GetInt("limit")
	}
	if flags.Changed("out-prefix") {
		opts.outPrefix, _ = flags.GetString("out-prefix")
	}
	if flags.Changed("formats") {
		opts.formats, _ = flags.GetStringSlice("formats")
	}
	return opts
}

func registerSearchFlags(flags *pflag.FlagSet) {
	flags.Float64("lat", 47.4319, "search center latitude (WGS84, default from config)")
	flags.Float64("lon", 9.6397, "search center longitude (WGS84, default from config)")
	flags.Float64("radius-km", 10, "search radius in kilometres (default from config)")
	flags.Float64("min-area", 100, "minimum roof area in square metres (default from config)")
	flags.Int("limit", 1000, "max number of ranked candidates, -1 for all (default from config)")
	flags.String("out-prefix", "roof_candidates", "output file prefix (default from config export.dir)")
	flags.StringSlice("formats", []string{"csv", "geojson"}, "export formats: csv, geojson, xlsx, shp (default from config)")
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for large building roofs around a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := resolveSearchOptions(cmd.Flags(), cfg)

		center := model.GeoPoint{Lon: opts.lon, Lat: opts.lat}
		if err := projection.CheckDomain(center); err != nil {
			return err
		}
		if opts.radiusKM <= 0 {
			return eris.Errorf("radius-km must be positive, got %g", opts.radiusKM)
		}

		proj := projection.NewLV95()
		factory := candidate.NewFactory(proj, candidate.ScoreWeights{
			Area:         cfg.Score.AreaWeight,
			Compactness:  cfg.Score.CompactnessWeight,
			CompactScale: cfg.Score.CompactScale,
		})
		client := overpass.NewClient(cfg.Overpass.Endpoints,
			overpass.WithTimeout(time.Duration(cfg.Overpass.TimeoutSecs)*time.Second),
			overpass.WithRateLimit(cfg.Overpass.RateLimitPerSec),
		)
		runner := pipeline.NewRunner(client, factory, cfg.Search.Concurrency)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		params := model.RunParams{
			CenterLat: opts.lat,
			CenterLon: opts.lon,
			RadiusM:   int(opts.radiusKM * 1000),
			MinAreaM2: opts.minArea,
			Limit:     opts.limit,
		}
		run, err := st.CreateRun(ctx, params)
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx, pipeline.Params{
			Center:    center,
			RadiusM:   int(opts.radiusKM * 1000),
			MinAreaM2: opts.minArea,
			Limit:     opts.limit,
		})
		if err != nil {
			if failErr := st.FailRun(ctx, run.ID, err); failErr != nil {
				zap.L().Error("record failed run", zap.Error(failErr))
			}
			return err
		}

		if err := st.SaveCandidates(ctx, run.ID, result.Candidates); err != nil {
			return err
		}
		if err := st.CompleteRun(ctx, run.ID, result.Stats); err != nil {
			return err
		}

		if err := writeExports(opts.outPrefix, opts.formats, proj, result.Candidates); err != nil {
			return err
		}

		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stdout, "Run %s: fetched %d footprints, built %d polygons, ranked %d candidates (radius %.1f km, min area %.0f m²)\n",
			truncateID(run.ID), result.Stats.Fetched, result.Stats.Built, result.Stats.Ranked, opts.radiusKM, opts.minArea)
		for i, c := range result.Candidates {
			if i >= 10 {
				p.Fprintf(os.Stdout, "... and %d more\n", len(result.Candidates)-10)
				break
			}
			name := c.Name
			if name == "" {
				name = "(unnamed)"
			}
			p.Fprintf(os.Stdout, "%2d. %-30s %10.1f m²  compact %.3f  score %.0f\n",
				i+1, name, c.AreaM2, c.Compactness, c.Score)
		}

		return nil
	},
}

func writeExports(prefix string, formats []string, proj projection.Projector, cands []model.RoofCandidate) error {
	for _, format := range formats {
		var err error
		switch format {
		case "csv":
			err = export.WriteCSV(prefix+".csv", cands)
		case "geojson":
			err = export.WriteGeoJSON(prefix+".geojson", proj, cands)
		case "xlsx":
			err = export.WriteXLSX(prefix+".xlsx", cands)
		case "shp":
			err = export.WriteShapefile(prefix+".shp", cands)
		default:
			return eris.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s.%s\n", prefix, format)
	}
	return nil
}

func init() {
	registerSearchFlags(searchCmd.Flags())
	rootCmd.AddCommand(searchCmd)
}
