package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// BuildOptions controls vertex deduplication.
type BuildOptions struct {
	// HashGap is the number of table slots reserved per position.
	// Zero means DefaultHashGap.
	HashGap int
}

// indexEntry is one slot of the index table. out is -1 while the slot is free.
type indexEntry struct {
	pos, norm, tex int32
	out            int32
}

// indexTable deduplicates (position, normal, texcoord) triplets. A triplet
// is anchored at slot pos*gap and probes linearly forward, so the entries
// of one position stay together.
type indexTable struct {
	entries []indexEntry
	gap     int
	next    int32
}

func newIndexTable(positions, corners, gap int) *indexTable {
	entries := make([]indexEntry, positions*gap+corners)
	for i := range entries {
		entries[i].out = -1
	}
	return &indexTable{entries: entries, gap: gap}
}

// insert returns the output index for the triplet, assigning a new one
// the first time the triplet is seen.
func (t *indexTable) insert(pos, norm, tex int32) (int32, error) {
	slot := 0
	if pos >= 0 {
		slot = int(pos) * t.gap
	}
	for ; slot < len(t.entries); slot++ {
		e := &t.entries[slot]
		if e.out == -1 {
			*e = indexEntry{pos: pos, norm: norm, tex: tex, out: t.next}
			t.next++
			return e.out, nil
		}
		if e.pos == pos && e.norm == norm && e.tex == tex {
			return e.out, nil
		}
	}
	return 0, fmt.Errorf("%w: index table overflow at position %d", ErrInvariantViolated, pos)
}

// BuildModel deduplicates the corners of a triangulated mesh into an
// IndexedModel. Each distinct (position, normal, texcoord) triplet becomes
// one output vertex. Only attributes present in m are materialized. If m
// has a single material group whose material is in m.Materials, a deep
// copy of that material is attached.
func BuildModel(m *formats.RawMesh, opts BuildOptions) (*IndexedModel, error) {
	corners := len(m.PositionIndex)
	if corners%3 != 0 {
		return nil, fmt.Errorf("%w: %d corners", ErrNotTriangulated, corners)
	}
	for _, idx := range m.PositionIndex {
		if idx == -1 {
			return nil, fmt.Errorf("%w: polygon sentinel in triangle stream", ErrNotTriangulated)
		}
	}
	if err := checkStream(m.PositionIndex, len(m.Positions), "position"); err != nil {
		return nil, err
	}
	if err := checkParallel(m.NormalIndex, corners, len(m.Normals), "normal"); err != nil {
		return nil, err
	}
	if err := checkParallel(m.TexIndex, corners, len(m.TexCoords), "texcoord"); err != nil {
		return nil, err
	}

	gap := opts.HashGap
	if gap <= 0 {
		gap = DefaultHashGap
	}

	table := newIndexTable(len(m.Positions), corners, gap)
	model := &IndexedModel{Indices: make([]uint32, corners)}

	for i := 0; i < corners; i++ {
		pos := m.PositionIndex[i]
		norm, tex := int32(-1), int32(-1)
		if m.NormalIndex != nil {
			norm = m.NormalIndex[i]
		}
		if m.TexIndex != nil {
			tex = m.TexIndex[i]
		}

		out, err := table.insert(pos, norm, tex)
		if err != nil {
			return nil, err
		}
		model.Indices[i] = uint32(out)
	}

	unique := int(table.next)
	if len(m.Positions) > 0 {
		model.Vertices = make([]mgl32.Vec3, unique)
	}
	if len(m.Normals) > 0 && m.NormalIndex != nil {
		model.Normals = make([]mgl32.Vec3, unique)
	}
	if len(m.TexCoords) > 0 && m.TexIndex != nil {
		model.TexCoords = make([]mgl32.Vec2, unique)
	}

	for _, e := range table.entries {
		if e.out == -1 {
			continue
		}
		if model.Vertices != nil && e.pos >= 0 {
			model.Vertices[e.out] = m.Positions[e.pos]
		}
		if model.Normals != nil && e.norm >= 0 {
			model.Normals[e.out] = m.Normals[e.norm]
		}
		if model.TexCoords != nil && e.tex >= 0 {
			model.TexCoords[e.out] = m.TexCoords[e.tex]
		}
	}

	model.Groups = drawGroups(m)

	if name := singleMaterial(m); name != "" {
		if src := formats.FindMaterial(m.Materials, name); src != nil {
			material := &formats.Material{}
			if err := copier.CopyWithOption(material, src, copier.Option{DeepCopy: true}); err != nil {
				return nil, fmt.Errorf("copy material %q: %w", name, err)
			}
			model.Material = material
		}
	}

	return model, nil
}

// drawGroups converts the corner offsets of m's material groups into
// ranges of the index array.
func drawGroups(m *formats.RawMesh) []DrawGroup {
	if len(m.GroupStarts) == 0 {
		return nil
	}
	groups := make([]DrawGroup, 0, len(m.GroupStarts))
	for i := range m.GroupStarts {
		from, to := m.GroupRange(i)
		if to <= from {
			continue
		}
		var name string
		if i < len(m.MaterialNames) {
			name = m.MaterialNames[i]
		}
		groups = append(groups, DrawGroup{Start: int32(from), Count: int32(to - from), Material: name})
	}
	return groups
}

// singleMaterial returns the material name of a mesh with exactly one
// group, or "" otherwise.
func singleMaterial(m *formats.RawMesh) string {
	if len(m.MaterialNames) != 1 {
		return ""
	}
	return m.MaterialNames[0]
}

func checkStream(stream []int32, size int, attr string) error {
	for i, idx := range stream {
		if idx < -1 || int(idx) >= size {
			return fmt.Errorf("%w: %s index %d at corner %d outside [0,%d)", ErrInvariantViolated, attr, idx, i, size)
		}
	}
	return nil
}

func checkParallel(stream []int32, corners, size int, attr string) error {
	if stream == nil {
		return nil
	}
	if len(stream) != corners {
		return fmt.Errorf("%w: %s stream has %d corners, want %d", ErrInvariantViolated, attr, len(stream), corners)
	}
	return checkStream(stream, size, attr)
}
