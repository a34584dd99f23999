package config

import "flag"

var (
	flagConfig         = flag.String("config", "", "Path to config file")
	flagDebug          = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile        = flag.String("log-file", "", "Also write logs to this file")
	flagZeroFix        = flag.Bool("zero-fix", false, "Treat 0 face indices as a 0-based exporter quirk")
	flagAbsoluteMTLLib = flag.Bool("absolute-mtllib", false, "Do not resolve mtllib against the OBJ directory")
	flagHashGap        = flag.Int("hash-gap", 0, "Index table slots per position")
	flagNoNormals      = flag.Bool("no-normals", false, "Do not generate missing normals")
	flagWindowed       = flag.Bool("windowed", false, "Run the viewer in windowed mode")
	flagFullscreen     = flag.Bool("fullscreen", false, "Run the viewer in fullscreen mode")
	flagWidth          = flag.Int("width", 0, "Viewer window width")
	flagHeight         = flag.Int("height", 0, "Viewer window height")
	flagWireframe      = flag.Bool("wireframe", false, "Start the viewer in wireframe mode")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments: the subcommand and its operands.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagZeroFix {
		cfg.Loader.ZeroIndexFix = true
	}
	if *flagAbsoluteMTLLib {
		cfg.Loader.RelativeMTLLib = false
	}
	if *flagHashGap > 0 {
		cfg.Loader.HashGap = *flagHashGap
	}
	if *flagNoNormals {
		cfg.Loader.GenerateNormals = false
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	if *flagWireframe {
		cfg.Viewer.Wireframe = true
	}
}
