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

const testMTL = `# two materials
Kd 9 9 9
newmtl red
Ka 0.1 0.1 0.1
Kd 1 0 0
Ks 0.5 0.5 0.5
Ke 0 0 0.2
Ns 96
Tr 0.3
illum 2
map_Kd textures/red.tga
map_bump -bm 0.5 red_bump.tga

newmtl glass
d 0.25
map_d glass_alpha.tga
bump glass_n.tga
unknown_keyword 1 2 3
`

func TestParseMTL(t *testing.T) {
	materials := ParseMTL([]byte(testMTL))
	require.Len(t, materials, 2)

	red := materials[0]
	assert.Equal(t, "red", red.Name)
	assert.Equal(t, mgl32.Vec3{0.1, 0.1, 0.1}, red.Ambient)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, red.Diffuse)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, red.Specular)
	assert.Equal(t, mgl32.Vec3{0, 0, 0.2}, red.Emissive)
	assert.Equal(t, float32(96), red.Shininess)
	assert.Equal(t, 2, red.Illumination)
	assert.Equal(t, "textures/red.tga", red.MapDiffuse)
	assert.Equal(t, "red_bump.tga", red.MapBump)

	glass := materials[1]
	assert.Equal(t, "glass", glass.Name)
	assert.Equal(t, "glass_alpha.tga", glass.MapOpacity)
	assert.Equal(t, "glass_n.tga", glass.MapBump)
	assert.Equal(t, mgl32.Vec3{}, glass.Diffuse)
}

func TestParseMTL_Complementarity(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		wantD  float32
		wantTr float32
	}{
		{"Tr sets d", "newmtl a\nTr 0.3\n", 0.7, 0.3},
		{"d sets Tr", "newmtl a\nd 0.7\n", 0.7, 0.3},
		{"last wins", "newmtl a\nTr 0.9\nd 0.4\n", 0.4, 0.6},
		{"default opaque", "newmtl a\n", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			materials := ParseMTL([]byte(tt.data))
			require.Len(t, materials, 1)
			assert.InDelta(t, tt.wantD, materials[0].Opacity, 1e-6)
			assert.InDelta(t, tt.wantTr, materials[0].Transparency, 1e-6)
		})
	}
}

func TestParseMTL_Empty(t *testing.T) {
	materials := ParseMTL(nil)
	assert.NotNil(t, materials)
	assert.Empty(t, materials)
}

func TestLoadMTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mtl")
	require.NoError(t, os.WriteFile(path, []byte(testMTL), 0644))

	materials, err := LoadMTL(path)
	require.NoError(t, err)
	assert.Len(t, materials, 2)

	_, err = LoadMTL(filepath.Join(dir, "missing.mtl"))
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestFindMaterial(t *testing.T) {
	materials := ParseMTL([]byte(testMTL))

	m := FindMaterial(materials, "glass")
	require.NotNil(t, m)
	assert.Equal(t, "glass", m.Name)

	assert.Nil(t, FindMaterial(materials, "gla"))
	assert.Nil(t, FindMaterial(nil, "glass"))
}

func TestMaterial_Maps(t *testing.T) {
	materials := ParseMTL([]byte(testMTL))
	assert.Equal(t, map[string]string{
		"map_Kd":   "textures/red.tga",
		"map_bump": "red_bump.tga",
	}, materials[0].Maps())
}
