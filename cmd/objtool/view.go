package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/internal/viewer"
	"github.com/Faultbox/objmesh/pkg/mesh"
)

func (a *app) cmdView(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "Reload the model when the file changes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	path, err := oneArg(fs.Args(), "view [-watch] <file.obj>")
	if err != nil {
		return err
	}

	models, lib, err := a.loadForView(path)
	if err != nil {
		return err
	}
	// A watched file may gain geometry later.
	if !*watch && !hasGeometry(models) {
		return fmt.Errorf("%s: %w", path, mesh.ErrEmptyMesh)
	}

	opts, err := viewerOptions(a.cfg.Viewer, path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *watch {
		updates := make(chan []*mesh.IndexedModel, 1)
		opts.Updates = updates

		w, err := newModelWatcher(path, a.cfg.Watch.WatchMTL, a.cfg.Loader.RelativeMTLLib, a.cfg.Watch.Debounce, a.log.Named("watch"))
		if err != nil {
			return err
		}
		if err := w.refresh(lib); err != nil {
			w.Close()
			return err
		}
		go func() {
			defer close(updates)
			err := w.Run(ctx, func() string {
				models, lib, err := a.loadForView(path)
				if err != nil {
					a.log.Warn("reload failed", zap.String("file", path), zap.Error(err))
					return lib
				}
				select {
				case updates <- models:
				case <-ctx.Done():
				}
				return lib
			})
			if err != nil {
				a.log.Warn("watcher stopped", zap.Error(err))
			}
		}()
	}

	v, err := viewer.New(opts, models, a.log.Named("viewer"))
	if err != nil {
		return err
	}
	defer v.Close()

	v.Run()
	return nil
}

func hasGeometry(models []*mesh.IndexedModel) bool {
	for _, m := range models {
		if m.VertexCount() > 0 {
			return true
		}
	}
	return false
}

// loadForView builds one model per material group, centered as a set
// when the config asks for it. It also returns the file's mtllib argument.
func (a *app) loadForView(path string) ([]*mesh.IndexedModel, string, error) {
	raw, err := mesh.LoadRaw(path, a.opts)
	if err != nil {
		return nil, "", err
	}
	models, err := mesh.BuildSet(raw, a.opts)
	if err != nil {
		return nil, raw.MaterialLib, err
	}
	if a.cfg.Viewer.Center {
		mesh.CenterSet(models)
	}
	return models, raw.MaterialLib, nil
}

func viewerOptions(cfg config.ViewerConfig, path string) (viewer.Options, error) {
	bg, err := config.ParseColor(cfg.Background)
	if err != nil {
		return viewer.Options{}, fmt.Errorf("viewer.background: %w", err)
	}
	return viewer.Options{
		Title:      "objtool - " + filepath.Base(path),
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
		Wireframe:  cfg.Wireframe,
		FOV:        cfg.FOV,
		Background: bg,
		BaseDir:    filepath.Dir(path),

		ScreenshotDir:    cfg.ScreenshotDir,
		ScreenshotFormat: cfg.ScreenshotFormat,
	}, nil
}
