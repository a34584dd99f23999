package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// Split partitions m into one mesh per material group. Each submesh gets
// compact attribute arrays holding only the values its corners reference,
// in first-seen order, with indices rewritten to match. The index streams
// keep their polygon sentinels, so Split may run before or after
// Triangulate.
//
// The material name of each group moves to its submesh and the slot in
// m.MaterialNames is cleared. Submeshes share m.Materials.
//
// A mesh without positions yields a single empty submesh, matching what
// BuildModel produces for it.
func Split(m *formats.RawMesh) ([]*formats.RawMesh, error) {
	if len(m.Positions) == 0 {
		return []*formats.RawMesh{{
			MaterialLib: m.MaterialLib,
			Materials:   m.Materials,
		}}, nil
	}

	posMap := newRemap(len(m.Positions))
	normMap := newRemap(len(m.Normals))
	texMap := newRemap(len(m.TexCoords))

	groups := m.GroupCount()
	if groups == 0 {
		groups = 1
	}
	out := make([]*formats.RawMesh, 0, groups)

	for g := 0; g < groups; g++ {
		from, to := 0, len(m.PositionIndex)
		if m.GroupCount() > 0 {
			from, to = m.GroupRange(g)
		}

		// First sub-pass sizes the local arrays.
		posMap.reset()
		normMap.reset()
		texMap.reset()
		for i := from; i < to; i++ {
			posMap.count(m.PositionIndex[i])
			if m.NormalIndex != nil {
				normMap.count(m.NormalIndex[i])
			}
			if m.TexIndex != nil {
				texMap.count(m.TexIndex[i])
			}
		}

		sub := &formats.RawMesh{
			PositionIndex: make([]int32, to-from),
			GroupStarts:   []int{0},
			MaterialNames: []string{""},
			MaterialLib:   m.MaterialLib,
			Materials:     m.Materials,
		}
		if posMap.used > 0 {
			sub.Positions = make([]mgl32.Vec3, 0, posMap.used)
		}
		if m.NormalIndex != nil {
			sub.NormalIndex = make([]int32, to-from)
			if normMap.used > 0 {
				sub.Normals = make([]mgl32.Vec3, 0, normMap.used)
			}
		}
		if m.TexIndex != nil {
			sub.TexIndex = make([]int32, to-from)
			if texMap.used > 0 {
				sub.TexCoords = make([]mgl32.Vec2, 0, texMap.used)
			}
		}

		// Second sub-pass assigns local indices and copies values.
		posMap.reset()
		normMap.reset()
		texMap.reset()
		for i := from; i < to; i++ {
			local := i - from
			sub.PositionIndex[local] = posMap.assign(m.PositionIndex[i], func(idx int32) {
				sub.Positions = append(sub.Positions, m.Positions[idx])
			})
			if sub.NormalIndex != nil {
				sub.NormalIndex[local] = normMap.assign(m.NormalIndex[i], func(idx int32) {
					sub.Normals = append(sub.Normals, m.Normals[idx])
				})
			}
			if sub.TexIndex != nil {
				sub.TexIndex[local] = texMap.assign(m.TexIndex[i], func(idx int32) {
					sub.TexCoords = append(sub.TexCoords, m.TexCoords[idx])
				})
			}
		}

		if g < len(m.MaterialNames) {
			sub.MaterialNames[0] = m.MaterialNames[g]
			m.MaterialNames[g] = ""
		}
		if len(sub.PositionIndex) == 0 {
			sub.GroupStarts = nil
			sub.MaterialNames = nil
		}
		out = append(out, sub)
	}

	return out, nil
}

// remap maps global attribute indices to local ones. Unmapped entries
// are -1.
type remap struct {
	local []int32
	used  int32
}

func newRemap(size int) *remap {
	return &remap{local: make([]int32, size)}
}

func (r *remap) reset() {
	for i := range r.local {
		r.local[i] = -1
	}
	r.used = 0
}

func (r *remap) count(idx int32) {
	if idx < 0 || int(idx) >= len(r.local) || r.local[idx] != -1 {
		return
	}
	r.local[idx] = r.used
	r.used++
}

// assign returns the local index for idx, calling add the first time idx
// is seen. Invalid indices, including sentinels, map to -1.
func (r *remap) assign(idx int32, add func(int32)) int32 {
	if idx < 0 || int(idx) >= len(r.local) {
		return -1
	}
	if r.local[idx] == -1 {
		r.local[idx] = r.used
		r.used++
		add(idx)
	}
	return r.local[idx]
}
