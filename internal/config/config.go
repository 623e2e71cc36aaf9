// Package config holds the service configuration: analysis defaults, the
// vision and narrative collaborators, export settings and logging.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig    = "PLANTROI_CONFIG"
	EnvLogLevel  = "PLANTROI_LOG_LEVEL"
	EnvVisionURL = "PLANTROI_VISION_URL"
	EnvOllamaURL = "PLANTROI_OLLAMA_URL"
)

// Config holds the application configuration
type Config struct {
	Analysis  AnalysisConfig  `json:"analysis"`
	Vision    VisionConfig    `json:"vision"`
	Narrative NarrativeConfig `json:"narrative"`
	Labels    LabelsConfig    `json:"labels"`
	Export    ExportConfig    `json:"export"`
	Log       LogConfig       `json:"log"`
}

// AnalysisConfig holds the pipeline defaults for a new session
type AnalysisConfig struct {
	Threshold       float64         `json:"threshold"`
	Target          analysis.Target `json:"target"`
	Slope           *float64        `json:"slope,omitempty"`
	Intercept       *float64        `json:"intercept,omitempty"`
	HandleTolerance float64         `json:"handle_tolerance"`
	PixelsPerUnit   float64         `json:"pixels_per_unit"`
}

// VisionConfig holds the marker detection settings
type VisionConfig struct {
	// URL of a remote detector. Empty uses the local OpenCV detector when
	// built with it, otherwise marker detection is unavailable.
	URL            string   `json:"url"`
	MarkerSize     float64  `json:"marker_size"`
	JPEGQuality    int      `json:"jpeg_quality"`
	Timeout        Duration `json:"timeout"`
	AutoStraighten bool     `json:"auto_straighten"`
}

// NarrativeConfig holds the Ollama settings for report text
type NarrativeConfig struct {
	URL     string   `json:"url"`
	Model   string   `json:"model"`
	Timeout Duration `json:"timeout"`
}

// LabelsConfig holds the OCR settings
type LabelsConfig struct {
	Language       string `json:"language"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
	Padding        int    `json:"padding"`
}

// ExportConfig holds report artifact settings
type ExportConfig struct {
	Dir     string `json:"dir"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
	MaxSide int    `json:"max_side"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level"`
}

// Duration is a time.Duration that reads and writes as "30s" in JSON.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n float64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Threshold:       20,
			Target:          analysis.TargetMACI,
			HandleTolerance: 8,
		},
		Vision: VisionConfig{
			MarkerSize:  5,
			JPEGQuality: 90,
			Timeout:     Duration(30 * time.Second),
		},
		Narrative: NarrativeConfig{
			URL:     "http://localhost:11434",
			Model:   "llama3.2",
			Timeout: Duration(300 * time.Second),
		},
		Labels: LabelsConfig{
			Language: "eng",
			Padding:  4,
		},
		Export: ExportConfig{
			Dir:     "./output",
			Format:  "png",
			Quality: 90,
			MaxSide: 2048,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a JSON configuration file on top of the defaults. A missing file
// is not an error: the defaults are returned.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is normally
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvVisionURL); ok {
		c.Vision.URL = v
	}
	if v, ok := lookup(EnvOllamaURL); ok {
		c.Narrative.URL = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Analysis.Threshold < -510 || c.Analysis.Threshold > 510 {
		return fmt.Errorf("analysis.threshold must be between -510 and 510")
	}
	if c.Analysis.HandleTolerance <= 0 {
		return fmt.Errorf("analysis.handle_tolerance must be positive")
	}
	if c.Analysis.PixelsPerUnit < 0 {
		return fmt.Errorf("analysis.pixels_per_unit must not be negative")
	}
	if c.Vision.MarkerSize < 0 {
		return fmt.Errorf("vision.marker_size must not be negative")
	}
	if c.Vision.JPEGQuality < 1 || c.Vision.JPEGQuality > 100 {
		return fmt.Errorf("vision.jpeg_quality must be between 1 and 100")
	}
	if c.Vision.Timeout < 0 || c.Narrative.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if _, err := imaging.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100")
	}
	if c.Export.MaxSide < 0 {
		return fmt.Errorf("export.max_side must not be negative")
	}
	if c.Labels.Padding < 0 {
		return fmt.Errorf("labels.padding must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Regression returns the starting regression for a session.
func (c *Config) Regression() analysis.Regression {
	reg := analysis.DefaultRegression(c.Analysis.Target)
	if c.Analysis.Slope != nil {
		reg.Slope = *c.Analysis.Slope
	}
	if c.Analysis.Intercept != nil {
		reg.Intercept = *c.Analysis.Intercept
	}
	return reg
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", s)
}

// GetConfigPath returns the configuration file path: $PLANTROI_CONFIG if set,
// otherwise plantroi/config.json under the user config directory.
func GetConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "plantroi.json"
	}
	return filepath.Join(dir, "plantroi", "config.json")
}
