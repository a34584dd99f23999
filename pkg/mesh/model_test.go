package mesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromData_ReleaseKeepsCallerArrays(t *testing.T) {
	vertices := []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	colors := []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	indices := []uint32{0, 1, 2}

	model := FromData(vertices, nil, nil, colors, indices)
	assert.True(t, model.External())
	require.NoError(t, model.Validate())

	model.Release()
	assert.Nil(t, model.Vertices)
	assert.Nil(t, model.Indices)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, vertices[0])
	assert.Equal(t, uint32(2), indices[2])
}

func TestRelease_Owned(t *testing.T) {
	model := buildOBJ(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	vertices := model.Vertices

	assert.False(t, model.External())
	model.Release()
	assert.Nil(t, model.Vertices)
	assert.Equal(t, mgl32.Vec3{}, vertices[1])
}

func TestIndexedModel_Validate(t *testing.T) {
	vertices := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	tests := []struct {
		name  string
		model *IndexedModel
		ok    bool
	}{
		{"valid", FromData(vertices, nil, nil, nil, []uint32{0, 1, 2}), true},
		{"empty", &IndexedModel{}, true},
		{"stride", FromData(vertices, nil, nil, nil, []uint32{0, 1}), false},
		{"out of range", FromData(vertices, nil, nil, nil, []uint32{0, 1, 3}), false},
		{"normals misaligned", FromData(vertices, []mgl32.Vec3{{0, 0, 1}}, nil, nil, []uint32{0, 1, 2}), false},
		{"texcoords misaligned", FromData(vertices, nil, []mgl32.Vec2{{0, 0}}, nil, []uint32{0, 1, 2}), false},
		{"colors misaligned", FromData(vertices, nil, nil, []mgl32.Vec3{{1, 1, 1}}, []uint32{0, 1, 2}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvariantViolated), "got %v", err)
			}
		})
	}
}

func TestIndexedModel_BoundsCenterScale(t *testing.T) {
	model := FromData([]mgl32.Vec3{{1, 2, 3}, {3, 6, 5}, {2, 4, 4}}, nil, nil, nil, []uint32{0, 1, 2})

	min, max := model.Bounds()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, min)
	assert.Equal(t, mgl32.Vec3{3, 6, 5}, max)

	model.Center()
	min, max = model.Bounds()
	assert.Equal(t, mgl32.Vec3{-1, -2, -1}, min)
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, max)

	model.Scale(2, 0.5, -1)
	assert.Equal(t, mgl32.Vec3{-2, -1, 1}, model.Vertices[0])

	empty := &IndexedModel{}
	min, max = empty.Bounds()
	assert.Equal(t, mgl32.Vec3{}, min)
	assert.Equal(t, mgl32.Vec3{}, max)
}

func TestCenterSet(t *testing.T) {
	a := FromData([]mgl32.Vec3{{0, 0, 0}, {2, 2, 2}}, nil, nil, nil, nil)
	b := FromData([]mgl32.Vec3{{4, -2, 0}}, nil, nil, nil, nil)
	empty := &IndexedModel{}

	min, max := SetBounds([]*IndexedModel{empty, a, b})
	assert.Equal(t, mgl32.Vec3{0, -2, 0}, min)
	assert.Equal(t, mgl32.Vec3{4, 2, 2}, max)

	CenterSet([]*IndexedModel{a, b, empty})
	assert.Equal(t, mgl32.Vec3{-2, 0, -1}, a.Vertices[0])
	assert.Equal(t, mgl32.Vec3{2, -2, -1}, b.Vertices[0])
}
