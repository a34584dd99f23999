package mesh

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// Options configures Load and LoadSet.
type Options struct {
	Parse formats.ParseOptions
	Build BuildOptions

	// SkipNormals disables normal generation for meshes without normals.
	SkipNormals bool

	// Logger receives parse warnings and stage timings. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the options used by the tools.
func DefaultOptions() Options {
	return Options{
		Parse: formats.DefaultParseOptions(),
		Build: BuildOptions{HashGap: DefaultHashGap},
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Load reads an OBJ file and builds a single indexed model from all of
// its faces.
func Load(path string, opts Options) (*IndexedModel, error) {
	raw, err := LoadRaw(path, opts)
	if err != nil {
		return nil, err
	}
	return Build(raw, opts)
}

// LoadSet reads an OBJ file and builds one indexed model per material group.
func LoadSet(path string, opts Options) ([]*IndexedModel, error) {
	raw, err := LoadRaw(path, opts)
	if err != nil {
		return nil, err
	}
	return BuildSet(raw, opts)
}

// LoadRaw parses an OBJ file and its material library without building
// a model. Parse warnings are logged through opts.Logger.
func LoadRaw(path string, opts Options) (*formats.RawMesh, error) {
	log := opts.logger()
	start := time.Now()

	raw, err := formats.LoadOBJ(path, opts.Parse)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	for _, w := range raw.Warnings {
		log.Warn("obj parse warning", zap.String("file", path), zap.String("warning", w))
	}
	log.Debug("parsed obj",
		zap.String("file", path),
		zap.Int("positions", len(raw.Positions)),
		zap.Int("normals", len(raw.Normals)),
		zap.Int("texcoords", len(raw.TexCoords)),
		zap.Int("faces", raw.FaceCount()),
		zap.Int("groups", raw.GroupCount()),
		zap.Int("materials", len(raw.Materials)),
		zap.Duration("elapsed", time.Since(start)))

	return raw, nil
}

// Build triangulates raw, generates normals if needed and deduplicates it
// into one model. raw is modified in place.
func Build(raw *formats.RawMesh, opts Options) (*IndexedModel, error) {
	log := opts.logger()
	start := time.Now()

	Triangulate(raw)
	if !opts.SkipNormals && GenerateNormals(raw) {
		log.Debug("generated normals", zap.Int("count", len(raw.Normals)))
	}

	model, err := BuildModel(raw, opts.Build)
	if err != nil {
		return nil, err
	}

	log.Debug("built model",
		zap.Int("corners", len(raw.PositionIndex)),
		zap.Int("vertices", model.VertexCount()),
		zap.Int("triangles", model.TriangleCount()),
		zap.Duration("elapsed", time.Since(start)))

	return model, nil
}

// BuildSet splits raw by material group and builds one model per group.
func BuildSet(raw *formats.RawMesh, opts Options) ([]*IndexedModel, error) {
	subs, err := Split(raw)
	if err != nil {
		return nil, err
	}

	models := make([]*IndexedModel, 0, len(subs))
	for i, sub := range subs {
		model, err := Build(sub, opts)
		if err != nil {
			return nil, fmt.Errorf("submesh %d: %w", i, err)
		}
		models = append(models, model)
	}
	return models, nil
}
