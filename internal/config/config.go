// Package config handles objtool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Faultbox/objmesh/pkg/formats"
	"github.com/Faultbox/objmesh/pkg/mesh"
)

// Config holds all objtool settings.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds mesh pipeline settings.
type LoaderConfig struct {
	ZeroIndexFix    bool `yaml:"zero_index_fix"`   // shift every index when a 0 index is seen
	RelativeMTLLib  bool `yaml:"relative_mtllib"`  // resolve mtllib against the OBJ directory
	HashGap         int  `yaml:"hash_gap"`         // index table slots per position
	GenerateNormals bool `yaml:"generate_normals"` // compute normals for meshes without them
}

// ViewerConfig holds display settings for objtool view.
type ViewerConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	Wireframe  bool    `yaml:"wireframe"`
	Center     bool    `yaml:"center"`     // move the model's bounds center to the origin
	FOV        float32 `yaml:"fov"`        // vertical field of view in degrees
	Background string  `yaml:"background"` // hex RGB, e.g. "#202020"

	ScreenshotDir    string `yaml:"screenshot_dir"`    // F12 captures, empty for the working directory
	ScreenshotFormat string `yaml:"screenshot_format"` // png or webp
}

// WatchConfig holds settings for objtool watch.
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce"`
	WatchMTL    bool          `yaml:"watch_mtl"`
	SplitGroups bool          `yaml:"split_groups"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			ZeroIndexFix:    false,
			RelativeMTLLib:  true,
			HashGap:         mesh.DefaultHashGap,
			GenerateNormals: true,
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Wireframe:  false,
			Center:     true,
			FOV:        45,
			Background: "#202428",

			ScreenshotFormat: "png",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
			WatchMTL: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the tools cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Loader.HashGap < 1 {
		errs = append(errs, fmt.Errorf("loader.hash_gap must be at least 1, got %d", c.Loader.HashGap))
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height))
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		errs = append(errs, fmt.Errorf("viewer.fov must be in (0, 180), got %g", c.Viewer.FOV))
	}
	if _, err := ParseColor(c.Viewer.Background); err != nil {
		errs = append(errs, fmt.Errorf("viewer.background: %w", err))
	}
	switch c.Viewer.ScreenshotFormat {
	case "", "png", "webp":
	default:
		errs = append(errs, fmt.Errorf("viewer.screenshot_format must be png or webp, got %q", c.Viewer.ScreenshotFormat))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce))
	}
	return errors.Join(errs...)
}

// MeshOptions converts the loader section to pipeline options.
func (c *Config) MeshOptions() mesh.Options {
	return mesh.Options{
		Parse: formats.ParseOptions{
			ZeroIndexFix:        c.Loader.ZeroIndexFix,
			RelativeMaterialLib: c.Loader.RelativeMTLLib,
		},
		Build:       mesh.BuildOptions{HashGap: c.Loader.HashGap},
		SkipNormals: !c.Loader.GenerateNormals,
	}
}

// ParseColor parses "#rrggbb" or "rrggbb" into RGB components in [0, 1].
func ParseColor(s string) ([3]float32, error) {
	var rgb [3]float32
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return rgb, fmt.Errorf("invalid color %q", s)
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return rgb, fmt.Errorf("invalid color %q: %w", s, err)
		}
		rgb[i] = float32(v) / 255
	}
	return rgb, nil
}
