package mesh

import "github.com/Faultbox/objmesh/pkg/formats"

// Triangulate replaces the sentinel-terminated polygon streams of m with
// flat triangle streams, fanning every polygon around its first corner.
// Polygons with fewer than three corners produce no triangles. Normal and
// texcoord streams are rewritten in lockstep, and GroupStarts is remapped
// to offsets in the new streams.
func Triangulate(m *formats.RawMesh) {
	src := m.PositionIndex

	triangles := 0
	corners := 0
	for i := 0; i <= len(src); i++ {
		if i == len(src) || src[i] == -1 {
			if corners > 2 {
				triangles += corners - 2
			}
			corners = 0
			continue
		}
		corners++
	}

	positions := make([]int32, 0, triangles*3)
	var normals, texCoords []int32
	if m.NormalIndex != nil {
		normals = make([]int32, 0, triangles*3)
	}
	if m.TexIndex != nil {
		texCoords = make([]int32, 0, triangles*3)
	}

	groupStarts := make([]int, len(m.GroupStarts))
	group := 0

	first := 0
	corners = 0
	for i := 0; i < len(src); i++ {
		for group < len(m.GroupStarts) && m.GroupStarts[group] <= i {
			groupStarts[group] = len(positions)
			group++
		}

		if src[i] == -1 {
			corners = 0
			first = i + 1
			continue
		}

		corners++
		if corners < 3 {
			continue
		}
		positions = append(positions, src[first], src[i-1], src[i])
		if normals != nil {
			normals = append(normals, m.NormalIndex[first], m.NormalIndex[i-1], m.NormalIndex[i])
		}
		if texCoords != nil {
			texCoords = append(texCoords, m.TexIndex[first], m.TexIndex[i-1], m.TexIndex[i])
		}
	}
	for ; group < len(m.GroupStarts); group++ {
		groupStarts[group] = len(positions)
	}

	m.PositionIndex = positions
	m.NormalIndex = normals
	m.TexIndex = texCoords
	if len(m.GroupStarts) > 0 {
		m.GroupStarts = groupStarts
	}
}
