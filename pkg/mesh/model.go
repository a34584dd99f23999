package mesh

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// DrawGroup is a contiguous range of the index array sharing one material.
type DrawGroup struct {
	Start    int32  `yaml:"start"`
	Count    int32  `yaml:"count"`
	Material string `yaml:"material,omitempty"`
}

// IndexedModel is a deduplicated, indexed triangle mesh ready for upload.
// Vertices, Normals, TexCoords and Colors are index-aligned; an attribute
// the source did not have is nil.
type IndexedModel struct {
	Vertices  []mgl32.Vec3 `yaml:"vertices,flow"`
	Normals   []mgl32.Vec3 `yaml:"normals,flow,omitempty"`
	TexCoords []mgl32.Vec2 `yaml:"texcoords,flow,omitempty"`
	Colors    []mgl32.Vec3 `yaml:"colors,flow,omitempty"`
	Indices   []uint32     `yaml:"indices,flow"`

	Groups   []DrawGroup       `yaml:"groups,omitempty"`
	Material *formats.Material `yaml:"material,omitempty"`

	// external is set when the arrays were supplied by the caller.
	external bool
}

// FromData wraps caller-owned arrays in a model. Release leaves them alone.
func FromData(vertices, normals []mgl32.Vec3, texCoords []mgl32.Vec2, colors []mgl32.Vec3, indices []uint32) *IndexedModel {
	return &IndexedModel{
		Vertices:  vertices,
		Normals:   normals,
		TexCoords: texCoords,
		Colors:    colors,
		Indices:   indices,
		external:  true,
	}
}

// VertexCount returns the number of unique vertices.
func (m *IndexedModel) VertexCount() int {
	return len(m.Vertices)
}

// IndexCount returns the length of the index array.
func (m *IndexedModel) IndexCount() int {
	return len(m.Indices)
}

// TriangleCount returns the number of triangles.
func (m *IndexedModel) TriangleCount() int {
	return len(m.Indices) / 3
}

// External reports whether the arrays were supplied by the caller.
func (m *IndexedModel) External() bool {
	return m.external
}

// Release drops the arrays the model owns. Caller-supplied arrays are
// only detached, never cleared.
func (m *IndexedModel) Release() {
	if !m.external {
		clear(m.Vertices)
		clear(m.Normals)
		clear(m.TexCoords)
		clear(m.Indices)
	}
	m.Vertices = nil
	m.Normals = nil
	m.TexCoords = nil
	m.Colors = nil
	m.Indices = nil
	m.Groups = nil
	m.Material = nil
}

// Validate checks that the index array is a triangle list within the
// vertex arrays and that every present attribute is aligned with Vertices.
func (m *IndexedModel) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvariantViolated, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d at %d exceeds %d vertices", ErrInvariantViolated, idx, i, len(m.Vertices))
		}
	}
	if m.Normals != nil && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvariantViolated, len(m.Normals), len(m.Vertices))
	}
	if m.TexCoords != nil && len(m.TexCoords) != len(m.Vertices) {
		return fmt.Errorf("%w: %d texcoords for %d vertices", ErrInvariantViolated, len(m.TexCoords), len(m.Vertices))
	}
	if m.Colors != nil && len(m.Colors) != len(m.Vertices) {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrInvariantViolated, len(m.Colors), len(m.Vertices))
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the vertices.
// An empty model returns zero vectors.
func (m *IndexedModel) Bounds() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	min = mgl32.Vec3{1e10, 1e10, 1e10}
	max = mgl32.Vec3{-1e10, -1e10, -1e10}
	for _, v := range m.Vertices {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}

// Center translates the vertices so the bounding box is centered on the origin.
func (m *IndexedModel) Center() {
	min, max := m.Bounds()
	m.Translate(min.Add(max).Mul(-0.5))
}

// Translate adds offset to every vertex position.
func (m *IndexedModel) Translate(offset mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(offset)
	}
}

// Scale multiplies every vertex position component-wise.
func (m *IndexedModel) Scale(sx, sy, sz float32) {
	for i, v := range m.Vertices {
		m.Vertices[i] = mgl32.Vec3{v[0] * sx, v[1] * sy, v[2] * sz}
	}
}

// SetBounds returns the combined bounding box of models. Empty models
// are ignored.
func SetBounds(models []*IndexedModel) (min, max mgl32.Vec3) {
	first := true
	for _, m := range models {
		if len(m.Vertices) == 0 {
			continue
		}
		lo, hi := m.Bounds()
		if first {
			min, max = lo, hi
			first = false
			continue
		}
		for i := 0; i < 3; i++ {
			min[i] = math32.Min(min[i], lo[i])
			max[i] = math32.Max(max[i], hi[i])
		}
	}
	return min, max
}

// CenterSet translates every model by the same offset so the combined
// bounding box is centered on the origin.
func CenterSet(models []*IndexedModel) {
	min, max := SetBounds(models)
	offset := min.Add(max).Mul(-0.5)
	for _, m := range models {
		m.Translate(offset)
	}
}
