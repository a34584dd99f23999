// OBJ (Wavefront object) parser.
package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// RawMesh is the polygon-soup form of a parsed OBJ file.
//
// Each index stream holds one entry per face corner and a -1 sentinel
// after the last corner of every face. NormalIndex and TexIndex are nil
// when no face referenced that attribute; otherwise all three streams
// have the same length and sentinel placement. Corners without a
// reference to a present attribute hold -1.
type RawMesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2

	PositionIndex []int32
	NormalIndex   []int32
	TexIndex      []int32

	// GroupStarts holds the corner offset at which each material group
	// begins. MaterialNames has one entry per group ("" if none).
	GroupStarts   []int
	MaterialNames []string

	MaterialLib string     // first mtllib argument as written in the file
	Materials   []Material // resolved material table, nil if none was found

	Warnings []string // recoverable problems found while parsing
}

// CornerCount returns the length of the index streams, sentinels included.
func (m *RawMesh) CornerCount() int {
	return len(m.PositionIndex)
}

// FaceCount returns the number of sentinel-terminated polygons.
func (m *RawMesh) FaceCount() int {
	n := 0
	for _, idx := range m.PositionIndex {
		if idx == -1 {
			n++
		}
	}
	return n
}

// GroupCount returns the number of material groups.
func (m *RawMesh) GroupCount() int {
	return len(m.GroupStarts)
}

// GroupRange returns the corner range [from, to) of group i.
func (m *RawMesh) GroupRange(i int) (from, to int) {
	from = m.GroupStarts[i]
	if i+1 < len(m.GroupStarts) {
		return from, m.GroupStarts[i+1]
	}
	return from, len(m.PositionIndex)
}

func (m *RawMesh) warnf(format string, args ...any) {
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}

// ParseOptions controls OBJ parsing.
type ParseOptions struct {
	// ZeroIndexFix enables the compatibility mode for exporters that write
	// 0-based face indices. Once a 0 index is seen, every index in the file
	// is shifted by one. When disabled, a 0 index is treated as missing.
	ZeroIndexFix bool

	// RelativeMaterialLib resolves a relative mtllib name against the
	// directory of the OBJ file.
	RelativeMaterialLib bool
}

// DefaultParseOptions returns the options used by the tools.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		ZeroIndexFix:        false,
		RelativeMaterialLib: true,
	}
}

type attribute int

const (
	attrPosition attribute = iota
	attrTexCoord
	attrNormal
)

func (a attribute) String() string {
	switch a {
	case attrPosition:
		return "position"
	case attrTexCoord:
		return "texcoord"
	default:
		return "normal"
	}
}

// parseContext is the mutable state of one ParseOBJ call. It is shared by
// the counting pass and the filling pass.
type parseContext struct {
	mesh *RawMesh
	opts ParseOptions
	fill bool
	line int

	vertexCount int
	normalCount int
	texCount    int
	cornerCount int
	groupCount  int

	// lastBoundary is the corner offset of the most recent group boundary.
	lastBoundary int

	// zeroFix is 1 once a 0 index has been seen with ZeroIndexFix enabled.
	// It is not reset between passes.
	zeroFix int

	hasTex    bool
	hasNormal bool
}

// ParseOBJ parses OBJ data into a RawMesh.
//
// The data is read twice. The counting pass only sizes the attribute
// arrays and index streams; the filling pass writes into the arrays
// allocated from those counts. Material libraries are not loaded; use
// LoadOBJ for that.
func ParseOBJ(data []byte, opts ParseOptions) *RawMesh {
	mesh := &RawMesh{}
	ctx := &parseContext{mesh: mesh, opts: opts}

	ctx.run(data)
	ctx.allocate()

	ctx.fill = true
	ctx.run(data)
	ctx.finish()

	return mesh
}

// LoadOBJ reads the OBJ file at path, parses it and resolves its material
// library. An unreadable OBJ returns an error wrapping ErrFileNotFound; a
// missing material library only adds a warning.
func LoadOBJ(path string, opts ParseOptions) (*RawMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	mesh := ParseOBJ(data, opts)
	for _, candidate := range MaterialCandidates(path, mesh.MaterialLib, opts.RelativeMaterialLib) {
		materials, err := LoadMTL(candidate)
		if err == nil {
			mesh.Materials = materials
			return mesh, nil
		}
	}
	if mesh.MaterialLib != "" {
		mesh.warnf("material library %q not found", mesh.MaterialLib)
	}

	return mesh, nil
}

// MaterialCandidates returns the MTL paths tried for an OBJ file, in order:
// the mtllib name, then the OBJ path with its last four characters replaced
// by "_.mtl", then by ".mtl".
func MaterialCandidates(objPath, lib string, relative bool) []string {
	var candidates []string
	if lib != "" {
		if relative && !filepath.IsAbs(lib) {
			lib = filepath.Join(filepath.Dir(objPath), lib)
		}
		candidates = append(candidates, lib)
	}
	if len(objPath) > 4 {
		stem := objPath[:len(objPath)-4]
		candidates = append(candidates, stem+"_.mtl", stem+".mtl")
	}
	return candidates
}

func (ctx *parseContext) run(data []byte) {
	ctx.vertexCount = 0
	ctx.normalCount = 0
	ctx.texCount = 0
	ctx.cornerCount = 0
	ctx.groupCount = 1
	ctx.lastBoundary = 0
	ctx.line = 0

	eachLine(data, func(line string) {
		ctx.line++
		s := NewScanner(line)
		keyword, _ := s.Next()

		switch keyword {
		case "v":
			v := s.Vec3()
			if ctx.fill {
				ctx.mesh.Positions[ctx.vertexCount] = v
			}
			ctx.vertexCount++
		case "vn":
			v := s.Vec3()
			if ctx.fill {
				ctx.mesh.Normals[ctx.normalCount] = v
			}
			ctx.normalCount++
		case "vt":
			v := s.Vec3()
			if ctx.fill {
				ctx.mesh.TexCoords[ctx.texCount] = mgl32.Vec2{v[0], v[1]}
			}
			ctx.texCount++
		case "f":
			ctx.face(s)
		case "mtllib":
			// Only the first of several listed libraries is used.
			if libs := strings.Fields(s.Rest()); ctx.fill && len(libs) > 0 {
				ctx.mesh.MaterialLib = libs[0]
			}
		case "usemtl":
			ctx.useMaterial(s.Rest())
		}
	})
}

// allocate sizes the mesh from the counting pass.
func (ctx *parseContext) allocate() {
	m := ctx.mesh
	if ctx.vertexCount > 0 {
		m.Positions = make([]mgl32.Vec3, ctx.vertexCount)
	}
	if ctx.normalCount > 0 {
		m.Normals = make([]mgl32.Vec3, ctx.normalCount)
	}
	if ctx.texCount > 0 {
		m.TexCoords = make([]mgl32.Vec2, ctx.texCount)
	}

	m.PositionIndex = make([]int32, ctx.cornerCount)
	if ctx.hasNormal {
		m.NormalIndex = make([]int32, ctx.cornerCount)
	}
	if ctx.hasTex {
		m.TexIndex = make([]int32, ctx.cornerCount)
	}

	m.GroupStarts = make([]int, 1, ctx.groupCount)
	m.MaterialNames = make([]string, 1, ctx.groupCount)
}

// finish trims the streams to the corners actually written and drops
// empty groups.
func (ctx *parseContext) finish() {
	m := ctx.mesh
	n := ctx.cornerCount

	m.PositionIndex = m.PositionIndex[:n]
	if m.NormalIndex != nil {
		m.NormalIndex = m.NormalIndex[:n]
	}
	if m.TexIndex != nil {
		m.TexIndex = m.TexIndex[:n]
	}

	if n == 0 {
		m.GroupStarts = nil
		m.MaterialNames = nil
		return
	}
	if last := len(m.GroupStarts) - 1; last > 0 && m.GroupStarts[last] == n {
		m.GroupStarts = m.GroupStarts[:last]
		m.MaterialNames = m.MaterialNames[:last]
	}
}

// face parses the corners of an "f" directive. Each corner is
// pos[/tex][/norm]; the face is closed with a sentinel in every stream.
func (ctx *parseContext) face(s *Scanner) {
	m := ctx.mesh
	for {
		pos, term := s.Next()
		if pos == "" && term == 0 {
			break
		}

		var tex, norm string
		if term == '/' {
			tex, term = s.Next()
			if term == '/' {
				norm, _ = s.Next()
			}
		}
		if tex != "" {
			ctx.hasTex = true
		}
		if norm != "" {
			ctx.hasNormal = true
		}

		p := ctx.resolve(pos, attrPosition)
		t := ctx.resolve(tex, attrTexCoord)
		n := ctx.resolve(norm, attrNormal)

		if !ctx.fill {
			ctx.cornerCount++
			continue
		}
		if p < 0 {
			m.warnf("line %d: dropped corner with invalid position index %q", ctx.line, pos)
			continue
		}

		i := ctx.cornerCount
		m.PositionIndex[i] = p
		if m.TexIndex != nil {
			m.TexIndex[i] = t
		}
		if m.NormalIndex != nil {
			m.NormalIndex[i] = n
		}
		ctx.cornerCount++
	}

	if ctx.fill {
		i := ctx.cornerCount
		m.PositionIndex[i] = -1
		if m.TexIndex != nil {
			m.TexIndex[i] = -1
		}
		if m.NormalIndex != nil {
			m.NormalIndex[i] = -1
		}
	}
	ctx.cornerCount++
}

// resolve converts a 1-based or negative relative OBJ index to a 0-based
// index, or -1 if it is absent or invalid. Relative indices are taken
// against the running count of the attribute.
func (ctx *parseContext) resolve(tok string, attr attribute) int32 {
	if tok == "" {
		return -1
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		if ctx.fill {
			ctx.mesh.warnf("line %d: malformed %s index %q", ctx.line, attr, tok)
		}
		return -1
	}

	if v == 0 {
		if !ctx.opts.ZeroIndexFix {
			if ctx.fill {
				ctx.mesh.warnf("line %d: zero %s index", ctx.line, attr)
			}
			return -1
		}
		ctx.zeroFix = 1
	}

	count, total := ctx.counts(attr)
	if v < 0 {
		v = count + v + 1
	}
	v += ctx.zeroFix
	if v <= 0 {
		if ctx.fill {
			ctx.mesh.warnf("line %d: %s index %q out of range", ctx.line, attr, tok)
		}
		return -1
	}

	idx := v - 1
	if ctx.fill && idx >= total {
		ctx.mesh.warnf("line %d: %s index %q out of range", ctx.line, attr, tok)
		return -1
	}
	return int32(idx)
}

// counts returns the running count of attr and, in the filling pass, the
// final size of its array.
func (ctx *parseContext) counts(attr attribute) (running, total int) {
	switch attr {
	case attrPosition:
		return ctx.vertexCount, len(ctx.mesh.Positions)
	case attrTexCoord:
		return ctx.texCount, len(ctx.mesh.TexCoords)
	default:
		return ctx.normalCount, len(ctx.mesh.Normals)
	}
}

// useMaterial closes the current group and opens a new one named name.
// A usemtl with no geometry since the last boundary renames the current
// group instead of opening an empty one.
func (ctx *parseContext) useMaterial(name string) {
	m := ctx.mesh
	if ctx.cornerCount > 0 {
		if ctx.cornerCount != ctx.lastBoundary {
			ctx.lastBoundary = ctx.cornerCount
			ctx.groupCount++
			if ctx.fill {
				m.GroupStarts = append(m.GroupStarts, ctx.cornerCount)
				m.MaterialNames = append(m.MaterialNames, "")
			}
		} else if ctx.fill {
			m.warnf("line %d: usemtl %q without geometry since previous usemtl", ctx.line, name)
		}
	}
	if ctx.fill {
		m.MaterialNames[len(m.MaterialNames)-1] = name
	}
}
