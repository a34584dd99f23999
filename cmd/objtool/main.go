// objtool is a CLI utility for loading, indexing and viewing Wavefront OBJ models.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/internal/logger"
)

// errUsage is returned by commands called with bad arguments. The usage
// line has already been printed.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run())
}

func run() int {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		return 1
	}

	command := args[0]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, os.Stdout, logger.Log)
	if err := a.run(ctx, command, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Println(`objtool - Wavefront OBJ mesh utility

Usage:
  objtool [flags] <command> [options]

Commands:
  info <file.obj>              Show parsed counts and warnings
  materials <file.mtl>         Print the material table as YAML
  index <file.obj>             Build one indexed model and show dedup stats
  split <file.obj>             Build one indexed model per material group
  dump <file.obj>              Print the indexed model as YAML
  view [-watch] <file.obj>     Open the model in a window
  watch <file.obj>             Re-index the model whenever it changes

Flags:
  -config <path>       Config file (default ./objtool.yaml)
  -debug               Enable debug logging
  -log-file <path>     Also write logs to this file
  -zero-fix            Treat 0 face indices as a 0-based exporter quirk
  -absolute-mtllib     Do not resolve mtllib against the OBJ directory
  -hash-gap <n>        Index table slots per position
  -no-normals          Do not generate missing normals
  -width, -height      Viewer window size
  -fullscreen          Run the viewer fullscreen
  -windowed            Run the viewer in a window
  -wireframe           Start the viewer in wireframe mode

Examples:
  objtool info teapot.obj
  objtool -zero-fix index scan.obj
  objtool -debug view -watch sponza.obj`)
}
