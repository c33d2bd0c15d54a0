// Package config holds the JSON configuration of a journal session.
//
// Every field has a default, so a config file only needs the values it
// changes:
//
//	{
//	  "layout": {"mode": "standard"},
//	  "storage": {"type": "redis", "host": "127.0.0.1", "port": 6379}
//	}
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gogpu/journal/scene"
)

// Storage backend names.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Config is the complete session configuration.
type Config struct {
	Media   Media   `json:"media"`
	Layout  Layout  `json:"layout"`
	Render  Render  `json:"render"`
	Export  Export  `json:"export"`
	Session Session `json:"session"`
	Storage Storage `json:"storage"`
}

// Media bounds uploads.
type Media struct {
	MaxBytes     int64    `json:"max_bytes"`
	MaxDimension int      `json:"max_dimension"`
	MaxPixels    int64    `json:"max_pixels"`
	Quality      int      `json:"quality"`
	Timeout      Duration `json:"timeout"`
}

// Layout configures initial placement.
type Layout struct {
	Mode   scene.LayoutMode `json:"mode"`
	Seed   uint64           `json:"seed"`
	Jitter float64          `json:"jitter"`
}

// Render configures the rasterizer.
type Render struct {
	FontFile       string  `json:"font_file"` // empty selects the built-in font
	FontSize       float64 `json:"font_size"`
	LineSpacing    float64 `json:"line_spacing"`
	BaseScale      float64 `json:"base_scale"`
	MaxDensity     float64 `json:"max_density"`
	ComplexShaping bool    `json:"complex_shaping"` // process-wide, applied by cmd/journal
	CacheMB        int64   `json:"cache_mb"`        // 0 disables the bound
}

// Export configures the PDF and preview output.
type Export struct {
	Density        float64 `json:"density"`
	PageWidthMM    float64 `json:"page_width_mm"`
	PageHeightMM   float64 `json:"page_height_mm"`
	JPEGQuality    int     `json:"jpeg_quality"`
	PreviewWidth   int     `json:"preview_width"`
	PreviewQuality int     `json:"preview_quality"`
}

// Session configures the editing loop timings.
type Session struct {
	ThemeDebounce    Duration `json:"theme_debounce"`
	AutosaveDebounce Duration `json:"autosave_debounce"`
	BatchDelay       Duration `json:"batch_delay"`
	DraftKey         string   `json:"draft_key"`
}

// Storage selects the draft backend. Host/Port/PW/DB apply to redis,
// Dir to the file backend.
type Storage struct {
	Type  string `json:"type"`
	Dir   string `json:"dir"`
	Host  string `json:"host"`
	Port  int    `json:"port"`
	PW    string `json:"pw"`
	DB    int    `json:"db"`
	Quota int    `json:"quota"` // per-value byte limit of the memory backend, 0 = none
}

// Addr returns the redis host:port address.
func (s Storage) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Media: Media{
			MaxBytes:     10 << 20,
			MaxDimension: 2048,
			MaxPixels:    40_000_000,
			Quality:      85,
			Timeout:      Duration(30 * time.Second),
		},
		Layout: Layout{
			Mode:   scene.LayoutFreeflow,
			Seed:   1,
			Jitter: 50,
		},
		Render: Render{
			FontSize:    48,
			LineSpacing: 1.4,
			BaseScale:   0.125,
			MaxDensity:  8,
			CacheMB:     256,
		},
		Export: Export{
			Density:        8,
			PageWidthMM:    210,
			PageHeightMM:   297,
			JPEGQuality:    92,
			PreviewWidth:   480,
			PreviewQuality: 70,
		},
		Session: Session{
			ThemeDebounce:    Duration(300 * time.Millisecond),
			AutosaveDebounce: Duration(2 * time.Second),
			BatchDelay:       Duration(100 * time.Millisecond),
			DraftKey:         "journal_draft",
		},
		Storage: Storage{
			Type: StorageMemory,
			Host: "127.0.0.1",
			Port: 6379,
		},
	}
}

// Load reads a JSON file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("config: "+format, args...))
		}
	}
	check(c.Media.MaxBytes > 0, "media.max_bytes must be positive")
	check(c.Media.MaxDimension >= scene.MinSize, "media.max_dimension must be at least %d", scene.MinSize)
	check(c.Media.MaxPixels > 0, "media.max_pixels must be positive")
	check(c.Media.Quality >= 1 && c.Media.Quality <= 100, "media.quality must be in [1, 100]")
	check(c.Media.Timeout > 0, "media.timeout must be positive")
	check(c.Layout.Jitter >= 0, "layout.jitter must not be negative")
	check(c.Render.FontSize > 0, "render.font_size must be positive")
	check(c.Render.LineSpacing >= 1, "render.line_spacing must be at least 1")
	check(c.Render.BaseScale > 0, "render.base_scale must be positive")
	check(c.Render.MaxDensity >= 1, "render.max_density must be at least 1")
	check(c.Render.CacheMB >= 0, "render.cache_mb must not be negative")
	check(c.Export.Density > 0 && c.Export.Density <= c.Render.MaxDensity,
		"export.density must be in (0, %v]", c.Render.MaxDensity)
	check(c.Export.PageWidthMM > 0 && c.Export.PageHeightMM > 0, "export page size must be positive")
	check(c.Export.JPEGQuality >= 1 && c.Export.JPEGQuality <= 100, "export.jpeg_quality must be in [1, 100]")
	check(c.Export.PreviewWidth > 0, "export.preview_width must be positive")
	check(c.Export.PreviewQuality >= 1 && c.Export.PreviewQuality <= 100, "export.preview_quality must be in [1, 100]")
	check(c.Session.ThemeDebounce >= 0 && c.Session.AutosaveDebounce >= 0 && c.Session.BatchDelay >= 0,
		"session durations must not be negative")
	check(c.Session.DraftKey != "", "session.draft_key must not be empty")
	switch c.Storage.Type {
	case StorageMemory:
		check(c.Storage.Quota >= 0, "storage.quota must not be negative")
	case StorageFile:
		check(c.Storage.Dir != "", "storage.dir is required for the file backend")
	case StorageRedis:
		check(c.Storage.Host != "" && c.Storage.Port > 0, "storage.host and storage.port are required for redis")
	default:
		check(false, "unknown storage.type %q", c.Storage.Type)
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration encoded as a Go duration string ("300ms").
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return fmt.Errorf("config: invalid duration %s", data)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*d = Duration(v)
	return nil
}
