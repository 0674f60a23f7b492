package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/solarch/roofscout/internal/model"
	"github.com/solarch/roofscout/internal/projection"
)

// Config holds the full application configuration.
type Config struct {
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Score    ScoreConfig    `yaml:"score" mapstructure:"score"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SearchConfig holds the default search parameters.
type SearchConfig struct {
	CenterLat   float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon   float64 `yaml:"center_lon" mapstructure:"center_lon"`
	RadiusKM    float64 `yaml:"radius_km" mapstructure:"radius_km"`
	MinAreaM2   float64 `yaml:"min_area_m2" mapstructure:"min_area_m2"`
	Limit       int     `yaml:"limit" mapstructure:"limit"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// ScoreConfig holds the candidate scoring weights.
type ScoreConfig struct {
	AreaWeight        float64 `yaml:"area_weight" mapstructure:"area_weight"`
	CompactnessWeight float64 `yaml:"compactness_weight" mapstructure:"compactness_weight"`
	CompactScale      float64 `yaml:"compact_scale" mapstructure:"compact_scale"`
}

// OverpassConfig configures the Overpass API client.
type OverpassConfig struct {
	Endpoints       []string `yaml:"endpoints" mapstructure:"endpoints"`
	TimeoutSecs     int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig configures result file output.
type ExportConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// ServerConfig configures the result viewer server.
type ServerConfig struct {
	Port      int    `yaml:"port" mapstructure:"port"`
	PortRange int    `yaml:"port_range" mapstructure:"port_range"`
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROOFSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Au SG, the default search center.
	v.SetDefault("search.center_lat", 47.4319)
	v.SetDefault("search.center_lon", 9.6397)
	v.SetDefault("search.radius_km", 10.0)
	v.SetDefault("search.min_area_m2", 100.0)
	v.SetDefault("search.limit", 1000)
	v.SetDefault("search.concurrency", 8)
	v.SetDefault("score.area_weight", 0.7)
	v.SetDefault("score.compactness_weight", 0.3)
	v.SetDefault("score.compact_scale", 10000.0)
	v.SetDefault("overpass.endpoints", []string{
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
		"https://overpass.openstreetmap.ru/api/interpreter",
	})
	v.SetDefault("overpass.timeout_secs", 180)
	v.SetDefault("overpass.rate_limit_per_sec", 1.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "roofscout.db")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.formats", []string{"csv", "geojson"})
	v.SetDefault("server.port", 0)
	v.SetDefault("server.port_range", 100)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that the configuration describes a usable search.
func (c *Config) Validate() error {
	center := model.GeoPoint{Lon: c.Search.CenterLon, Lat: c.Search.CenterLat}
	if err := projection.CheckDomain(center); err != nil {
		return eris.Wrap(err, "config: search center")
	}
	if c.Search.RadiusKM <= 0 {
		return eris.Errorf("config: radius_km must be positive, got %g", c.Search.RadiusKM)
	}
	if c.Search.MinAreaM2 < 0 {
		return eris.Errorf("config: min_area_m2 must not be negative, got %g", c.Search.MinAreaM2)
	}
	if len(c.Overpass.Endpoints) == 0 {
		return eris.New("config: at least one overpass endpoint is required")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: database_url is required for the postgres driver")
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "config: unmarshal defaults")
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal yaml")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "config: write %s", path)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
