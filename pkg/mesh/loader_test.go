package mesh

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/objmesh/pkg/formats"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_SingleTriangle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tri.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

	model, err := Load(path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, model.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, model.Indices)
	require.Len(t, model.Normals, 3)
	for _, n := range model.Normals {
		assert.InDelta(t, 1, n[2], 1e-6)
	}
	assert.Nil(t, model.Material)
}

func TestLoad_SkipNormals(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tri.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

	opts := DefaultOptions()
	opts.SkipNormals = true
	model, err := Load(path, opts)
	require.NoError(t, err)
	assert.Nil(t, model.Normals)
}

func TestLoad_MissingMaterialLibrary(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeFile(t, t.TempDir(), "model.obj",
		"mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n")

	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	model, err := Load(path, opts)
	require.NoError(t, err)

	assert.Nil(t, model.Material)
	assert.Equal(t, 1, logs.FilterMessage("obj parse warning").Len())
}

func TestLoad_Material(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scene.mtl", "newmtl red\nKd 1 0 0\nmap_Kd red.tga\n")
	path := writeFile(t, dir, "model.obj",
		"mtllib scene.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n")

	model, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, model.Material)
	assert.Equal(t, "red", model.Material.Name)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, model.Material.Diffuse)
	assert.Equal(t, "red.tga", model.Material.MapDiffuse)
}

func TestLoadSet_MaterialGroups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model.mtl", "newmtl left\nKd 1 0 0\nnewmtl right\nKd 0 0 1\n")
	path := writeFile(t, dir, "model.obj", twoGroupOBJ)

	models, err := LoadSet(path, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, models, 2)

	for _, m := range models {
		assert.Equal(t, 3, m.VertexCount())
		assert.Equal(t, []uint32{0, 1, 2}, m.Indices)
		assert.NoError(t, m.Validate())
	}
	require.NotNil(t, models[0].Material)
	require.NotNil(t, models[1].Material)
	assert.Equal(t, "left", models[0].Material.Name)
	assert.Equal(t, "right", models[1].Material.Name)
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, models[1].Vertices[0])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.obj"), DefaultOptions())
	assert.True(t, errors.Is(err, formats.ErrFileNotFound))

	_, err = LoadSet(filepath.Join(t.TempDir(), "missing.obj"), DefaultOptions())
	assert.True(t, errors.Is(err, formats.ErrFileNotFound))
}

func TestLoadSet_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.obj", "# nothing\n")

	models, err := LoadSet(path, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Zero(t, models[0].VertexCount())

	// Load agrees with LoadSet on files without geometry.
	model, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, model.VertexCount())
}

func TestLoadRaw_LogsWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeFile(t, t.TempDir(), "bad.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n")

	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	raw, err := LoadRaw(path, opts)
	require.NoError(t, err)
	require.NotEmpty(t, raw.Warnings)
	assert.Equal(t, len(raw.Warnings), logs.FilterMessage("obj parse warning").Len())

	_, err = LoadRaw(filepath.Join(t.TempDir(), "missing.obj"), opts)
	assert.True(t, errors.Is(err, formats.ErrFileNotFound))
}

func TestBuild_LogsStages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	raw := formats.ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), formats.DefaultParseOptions())

	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	_, err := Build(raw, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("generated normals").Len())
	assert.Equal(t, 1, logs.FilterMessage("built model").Len())
}
