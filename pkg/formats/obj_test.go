package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOBJ_Triangle(t *testing.T) {
	mesh := ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), DefaultParseOptions())

	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, mesh.Positions)
	assert.Equal(t, []int32{0, 1, 2, -1}, mesh.PositionIndex)
	assert.Nil(t, mesh.NormalIndex)
	assert.Nil(t, mesh.TexIndex)
	assert.Nil(t, mesh.Normals)
	assert.Equal(t, 1, mesh.FaceCount())
	assert.Equal(t, []int{0}, mesh.GroupStarts)
	assert.Empty(t, mesh.Warnings)
}

func TestParseOBJ_CornerForms(t *testing.T) {
	data := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0 0.5
vn 0 0 1
f 1/1/1 2/2/1 3//1
f 1/2 2/1 3
`
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())

	assert.Equal(t, []mgl32.Vec2{{0, 0}, {1, 0}}, mesh.TexCoords)
	assert.Equal(t, []mgl32.Vec3{{0, 0, 1}}, mesh.Normals)
	assert.Equal(t, []int32{0, 1, 2, -1, 0, 1, 2, -1}, mesh.PositionIndex)
	assert.Equal(t, []int32{0, 1, -1, -1, 1, 0, -1, -1}, mesh.TexIndex)
	assert.Equal(t, []int32{0, 0, 0, -1, -1, -1, -1, -1}, mesh.NormalIndex)
}

func TestParseOBJ_NegativeIndices(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 2 0 0\nv 3 0 0\nv 4 0 0\nf -1 -2 -3\n"
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())
	assert.Equal(t, []int32{4, 3, 2, -1}, mesh.PositionIndex)
}

func TestParseOBJ_RelativeToRunningCount(t *testing.T) {
	// Relative indices refer to the vertices defined so far, not the total.
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\nv 5 5 5\nf -4 -3 -1\n"
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())
	assert.Equal(t, []int32{0, 1, 2, -1, 0, 1, 3, -1}, mesh.PositionIndex)
}

func TestParseOBJ_ZeroIndex(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3\nf 0 1 2\n"

	t.Run("fix disabled", func(t *testing.T) {
		mesh := ParseOBJ([]byte(data), DefaultParseOptions())
		assert.Equal(t, []int32{0, 1, 2, -1, 0, 1, -1}, mesh.PositionIndex)
		assert.NotEmpty(t, mesh.Warnings)
	})

	t.Run("fix enabled", func(t *testing.T) {
		opts := DefaultParseOptions()
		opts.ZeroIndexFix = true
		mesh := ParseOBJ([]byte(data), opts)
		// The correction is file-wide: the first face is shifted as well.
		assert.Equal(t, []int32{1, 2, 3, -1, 0, 1, 2, -1}, mesh.PositionIndex)
	})
}

func TestParseOBJ_OutOfRange(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/5 3/1 9/1\n"
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())

	assert.Equal(t, []int32{0, 1, 2, -1}, mesh.PositionIndex)
	assert.Equal(t, []int32{0, -1, 0, -1}, mesh.TexIndex)
	assert.Len(t, mesh.Warnings, 3)
}

func TestParseOBJ_ForwardReference(t *testing.T) {
	data := "f 1 2 3\nv 0 0 0\nv 1 0 0\nv 0 1 0\n"
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())
	assert.Equal(t, []int32{0, 1, 2, -1}, mesh.PositionIndex)
}

func TestParseOBJ_MaterialGroups(t *testing.T) {
	data := `mtllib scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
usemtl red
f 1 2 3
f 2 4 3
usemtl ignored
usemtl blue
f 1 2 4 3
usemtl trailing
`
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())

	assert.Equal(t, "scene.mtl", mesh.MaterialLib)
	assert.Equal(t, []int{0, 8}, mesh.GroupStarts)
	assert.Equal(t, []string{"red", "blue"}, mesh.MaterialNames)
	assert.Equal(t, 2, mesh.GroupCount())

	from, to := mesh.GroupRange(1)
	assert.Equal(t, 8, from)
	assert.Equal(t, 13, to)

	require.Len(t, mesh.Warnings, 1)
	assert.Contains(t, mesh.Warnings[0], "blue")
}

func TestParseOBJ_GeometryBeforeFirstMaterial(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\nusemtl red\nf 3 2 1\n"
	mesh := ParseOBJ([]byte(data), DefaultParseOptions())

	assert.Equal(t, []int{0, 4}, mesh.GroupStarts)
	assert.Equal(t, []string{"", "red"}, mesh.MaterialNames)
}

func TestParseOBJ_Empty(t *testing.T) {
	mesh := ParseOBJ([]byte("# nothing here\n"), DefaultParseOptions())
	assert.Empty(t, mesh.PositionIndex)
	assert.Nil(t, mesh.Positions)
	assert.Nil(t, mesh.GroupStarts)
	assert.Equal(t, 0, mesh.FaceCount())
}

func TestParseOBJ_DegenerateFace(t *testing.T) {
	mesh := ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nf 1 2\nf\n"), DefaultParseOptions())
	assert.Equal(t, []int32{0, 1, -1, -1}, mesh.PositionIndex)
	assert.Equal(t, 2, mesh.FaceCount())
}

func TestLoadOBJ_Materials(t *testing.T) {
	dir := t.TempDir()
	obj := "mtllib mats/scene.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mats"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.obj"), []byte(obj), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mats", "scene.mtl"), []byte("newmtl red\nKd 1 0 0\n"), 0644))

	mesh, err := LoadOBJ(filepath.Join(dir, "model.obj"), DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, mesh.Materials, 1)
	assert.Equal(t, "red", mesh.Materials[0].Name)
}

func TestLoadOBJ_FirstOfSeveralLibraries(t *testing.T) {
	dir := t.TempDir()
	obj := "mtllib a.mtl b.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.obj"), []byte(obj), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mtl"), []byte("newmtl red\nKd 1 0 0\n"), 0644))

	mesh, err := LoadOBJ(filepath.Join(dir, "model.obj"), DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, "a.mtl", mesh.MaterialLib)
	require.Len(t, mesh.Materials, 1)
	assert.Equal(t, "red", mesh.Materials[0].Name)
	assert.Empty(t, mesh.Warnings)
}

func TestLoadOBJ_MaterialFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		mtlFile string
	}{
		{"underscore suffix", "model_.mtl"},
		{"plain suffix", "model.mtl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			obj := "mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
			require.NoError(t, os.WriteFile(filepath.Join(dir, "model.obj"), []byte(obj), 0644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.mtlFile), []byte("newmtl found\n"), 0644))

			mesh, err := LoadOBJ(filepath.Join(dir, "model.obj"), DefaultParseOptions())
			require.NoError(t, err)
			require.Len(t, mesh.Materials, 1)
			assert.Equal(t, "found", mesh.Materials[0].Name)
		})
	}
}

func TestLoadOBJ_MissingMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	obj := "mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n"
	path := filepath.Join(dir, "model.obj")
	require.NoError(t, os.WriteFile(path, []byte(obj), 0644))

	mesh, err := LoadOBJ(path, DefaultParseOptions())
	require.NoError(t, err)
	assert.Nil(t, mesh.Materials)
	assert.Equal(t, []string{"red"}, mesh.MaterialNames)
	assert.NotEmpty(t, mesh.Warnings)
}

func TestLoadOBJ_MissingFile(t *testing.T) {
	mesh, err := LoadOBJ(filepath.Join(t.TempDir(), "nope.obj"), DefaultParseOptions())
	assert.Nil(t, mesh)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestMaterialCandidates(t *testing.T) {
	got := MaterialCandidates("models/cube.obj", "cube.mtl", true)
	assert.Equal(t, []string{
		filepath.Join("models", "cube.mtl"),
		"models/cube_.mtl",
		"models/cube.mtl",
	}, got)

	got = MaterialCandidates("models/cube.obj", "cube.mtl", false)
	assert.Equal(t, "cube.mtl", got[0])

	assert.Empty(t, MaterialCandidates("a.o", "", true))
}
