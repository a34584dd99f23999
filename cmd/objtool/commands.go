package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/pkg/formats"
	"github.com/Faultbox/objmesh/pkg/mesh"
)

// app holds what every command needs. Output goes to out so commands can
// be tested; diagnostics go to the logger.
type app struct {
	cfg  *config.Config
	opts mesh.Options
	out  io.Writer
	log  *zap.Logger
}

func newApp(cfg *config.Config, out io.Writer, log *zap.Logger) *app {
	opts := cfg.MeshOptions()
	opts.Logger = log.Named("mesh")
	return &app{cfg: cfg, opts: opts, out: out, log: log}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "info":
		return a.cmdInfo(args)
	case "materials", "mtl":
		return a.cmdMaterials(args)
	case "index":
		return a.cmdIndex(args)
	case "split":
		return a.cmdSplit(args)
	case "dump":
		return a.cmdDump(args)
	case "view":
		return a.cmdView(ctx, args)
	case "watch":
		return a.cmdWatch(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return errUsage
	}
}

// oneArg checks that exactly one operand was given.
func oneArg(args []string, usage string) (string, error) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: objtool "+usage)
		return "", errUsage
	}
	return args[0], nil
}

func (a *app) cmdInfo(args []string) error {
	path, err := oneArg(args, "info <file.obj>")
	if err != nil {
		return err
	}

	raw, err := formats.LoadOBJ(path, a.opts.Parse)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "File:       %s\n", path)
	fmt.Fprintf(a.out, "Positions:  %d\n", len(raw.Positions))
	fmt.Fprintf(a.out, "Normals:    %d\n", len(raw.Normals))
	fmt.Fprintf(a.out, "TexCoords:  %d\n", len(raw.TexCoords))
	fmt.Fprintf(a.out, "Faces:      %d\n", raw.FaceCount())
	fmt.Fprintf(a.out, "Corners:    %d\n", raw.CornerCount()-raw.FaceCount())
	fmt.Fprintf(a.out, "Groups:     %d\n", raw.GroupCount())
	if raw.MaterialLib != "" {
		fmt.Fprintf(a.out, "MTL:        %s (%d materials)\n", raw.MaterialLib, len(raw.Materials))
	}

	if len(raw.Warnings) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "Warnings (%d):\n", len(raw.Warnings))
		for _, w := range raw.Warnings {
			fmt.Fprintf(a.out, "  %s\n", w)
		}
	}
	return nil
}

func (a *app) cmdMaterials(args []string) error {
	path, err := oneArg(args, "materials <file.mtl>")
	if err != nil {
		return err
	}

	materials, err := formats.LoadMTL(path)
	if err != nil {
		return err
	}
	return a.writeYAML(materials)
}

func (a *app) cmdIndex(args []string) error {
	path, err := oneArg(args, "index <file.obj>")
	if err != nil {
		return err
	}

	start := time.Now()
	model, err := mesh.Load(path, a.opts)
	if err != nil {
		return err
	}
	a.printIndexStats(path, model, time.Since(start))
	return nil
}

func (a *app) printIndexStats(path string, model *mesh.IndexedModel, elapsed time.Duration) {
	fmt.Fprintf(a.out, "File:       %s\n", path)
	fmt.Fprintf(a.out, "Vertices:   %d\n", model.VertexCount())
	fmt.Fprintf(a.out, "Indices:    %d\n", model.IndexCount())
	fmt.Fprintf(a.out, "Triangles:  %d\n", model.TriangleCount())
	fmt.Fprintf(a.out, "Groups:     %d\n", len(model.Groups))
	if model.IndexCount() > 0 {
		ratio := float64(model.VertexCount()) / float64(model.IndexCount())
		fmt.Fprintf(a.out, "Dedup:      %.1f%% of corners kept\n", ratio*100)
	}
	if model.Material != nil {
		fmt.Fprintf(a.out, "Material:   %s\n", model.Material.Name)
	}
	fmt.Fprintf(a.out, "Time:       %s\n", elapsed.Round(time.Microsecond))
}

func (a *app) cmdSplit(args []string) error {
	path, err := oneArg(args, "split <file.obj>")
	if err != nil {
		return err
	}

	models, err := mesh.LoadSet(path, a.opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "File: %s (%d submeshes)\n\n", path, len(models))
	fmt.Fprintf(a.out, "  %-4s %-24s %10s %10s\n", "#", "MATERIAL", "VERTICES", "TRIANGLES")
	for i, m := range models {
		name := "(none)"
		if m.Material != nil {
			name = m.Material.Name
		}
		fmt.Fprintf(a.out, "  %-4d %-24s %10d %10d\n", i, name, m.VertexCount(), m.TriangleCount())
	}
	return nil
}

func (a *app) cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	split := fs.Bool("split", false, "Dump one model per material group")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	path, err := oneArg(fs.Args(), "dump [-split] <file.obj>")
	if err != nil {
		return err
	}

	if *split {
		models, err := mesh.LoadSet(path, a.opts)
		if err != nil {
			return err
		}
		return a.writeYAML(models)
	}

	model, err := mesh.Load(path, a.opts)
	if err != nil {
		return err
	}
	return a.writeYAML(model)
}

func (a *app) writeYAML(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	path, err := oneArg(args, "watch <file.obj>")
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", formats.ErrFileNotFound, err)
	}

	w, err := newModelWatcher(path, a.cfg.Watch.WatchMTL, a.cfg.Loader.RelativeMTLLib, a.cfg.Watch.Debounce, a.log.Named("watch"))
	if err != nil {
		return err
	}

	reindex := func() string {
		lib, err := a.reindex(path)
		if err != nil {
			a.log.Warn("reindex failed", zap.String("file", path), zap.Error(err))
		}
		return lib
	}

	if err := w.refresh(reindex()); err != nil {
		w.Close()
		return err
	}
	a.log.Info("watching", zap.String("file", path), zap.Duration("debounce", a.cfg.Watch.Debounce))
	return w.Run(ctx, reindex)
}

// reindex runs the pipeline on path and prints the stats. It returns the
// mtllib argument of the parsed file.
func (a *app) reindex(path string) (string, error) {
	start := time.Now()
	raw, err := mesh.LoadRaw(path, a.opts)
	if err != nil {
		return "", err
	}

	if a.cfg.Watch.SplitGroups {
		models, err := mesh.BuildSet(raw, a.opts)
		if err != nil {
			return raw.MaterialLib, err
		}
		fmt.Fprintf(a.out, "%s: %d submeshes\n", path, len(models))
		for i, m := range models {
			fmt.Fprintf(a.out, "  %d: %d vertices, %d triangles\n", i, m.VertexCount(), m.TriangleCount())
		}
		return raw.MaterialLib, nil
	}

	model, err := mesh.Build(raw, a.opts)
	if err != nil {
		return raw.MaterialLib, err
	}
	a.printIndexStats(path, model, time.Since(start))
	fmt.Fprintln(a.out)
	return raw.MaterialLib, nil
}
