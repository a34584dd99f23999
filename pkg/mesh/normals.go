package mesh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/objmesh/pkg/formats"
)

const (
	// minEdgeLength replaces the length of near-zero edges when computing
	// corner angles.
	minEdgeLength = 1e-3

	// normalizeThreshold is the accumulated length below which a vertex
	// normal is left unnormalized.
	normalizeThreshold = 0.01
)

// GenerateNormals computes smooth per-position normals for a triangulated
// mesh that has positions but no usable normals. Each triangle adds its
// unnormalized face normal, weighted by the interior angle at each
// corner, to that corner's vertex. The normal index stream becomes a copy
// of the position index stream. It reports whether normals were generated.
func GenerateNormals(m *formats.RawMesh) bool {
	if len(m.Positions) == 0 {
		return false
	}
	if len(m.Normals) > 0 && m.NormalIndex != nil {
		return false
	}

	normals := make([]mgl32.Vec3, len(m.Positions))
	m.NormalIndex = make([]int32, len(m.PositionIndex))
	copy(m.NormalIndex, m.PositionIndex)

	for face := 0; face*3+2 < len(m.PositionIndex); face++ {
		i0 := m.PositionIndex[face*3]
		i1 := m.PositionIndex[face*3+1]
		i2 := m.PositionIndex[face*3+2]
		if !validIndex(i0, len(m.Positions)) || !validIndex(i1, len(m.Positions)) || !validIndex(i2, len(m.Positions)) {
			continue
		}

		p0, p1, p2 := m.Positions[i0], m.Positions[i1], m.Positions[i2]
		e0 := p1.Sub(p0)
		e1 := p2.Sub(p0)
		e2 := p2.Sub(p1)

		len0 := edgeLength(e0)
		len1 := edgeLength(e1)
		len2 := edgeLength(e2)

		angle0 := clampedAcos(e0.Dot(e1) / (len0 * len1))
		angle1 := clampedAcos(-e0.Dot(e2) / (len0 * len2))
		angle2 := clampedAcos(e1.Dot(e2) / (len1 * len2))

		normal := e0.Cross(e1)
		normals[i0] = normals[i0].Add(normal.Mul(angle0))
		normals[i1] = normals[i1].Add(normal.Mul(angle1))
		normals[i2] = normals[i2].Add(normal.Mul(angle2))
	}

	for i, n := range normals {
		if l := n.Len(); l > normalizeThreshold {
			normals[i] = n.Mul(1 / l)
		}
	}

	m.Normals = normals
	return true
}

func edgeLength(e mgl32.Vec3) float32 {
	sq := e.Dot(e)
	if sq < minEdgeLength*minEdgeLength {
		return minEdgeLength
	}
	return math32.Sqrt(sq)
}

// clampedAcos maps arguments at or beyond ±1 to 0 or π.
func clampedAcos(x float32) float32 {
	if x >= 1 {
		return 0
	}
	if x <= -1 {
		return math32.Pi
	}
	return math32.Acos(x)
}

func validIndex(i int32, n int) bool {
	return i >= 0 && int(i) < n
}
