package gpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/objmesh/pkg/mesh"
)

// Vertex attribute locations shared by every program built with CompileProgram.
const (
	LocPosition uint32 = 0
	LocNormal   uint32 = 1
	LocTexCoord uint32 = 2
	LocColor    uint32 = 3
)

var attribLocations = map[string]uint32{
	"aPosition": LocPosition,
	"aNormal":   LocNormal,
	"aTexCoord": LocTexCoord,
	"aColor":    LocColor,
}

// ErrEmptyModel is returned when a model has no triangles to upload.
var ErrEmptyModel = errors.New("model has no triangles")

// Buffers holds the GL objects of one uploaded model.
type Buffers struct {
	vao uint32
	vbo [4]uint32 // position, normal, texcoord, color
	ebo uint32

	indexCount int32
	groups     []mesh.DrawGroup

	HasNormals   bool
	HasTexCoords bool
	HasColors    bool
}

// Upload copies a model's arrays into new vertex and index buffers.
// Absent attributes are disabled and read a constant default instead.
func Upload(model *mesh.IndexedModel) (*Buffers, error) {
	b := &Buffers{}
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(int32(len(b.vbo)), &b.vbo[0])
	gl.GenBuffers(1, &b.ebo)

	if err := b.Reload(model); err != nil {
		b.Delete()
		return nil, err
	}
	return b, nil
}

// Reload replaces the buffer contents with model's arrays, reusing the
// GL objects.
func (b *Buffers) Reload(model *mesh.IndexedModel) error {
	if model.TriangleCount() == 0 {
		return ErrEmptyModel
	}
	if err := model.Validate(); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	gl.BindVertexArray(b.vao)

	uploadVec3(b.vbo[0], LocPosition, model.Vertices, mgl32.Vec3{})
	b.HasNormals = uploadVec3(b.vbo[1], LocNormal, model.Normals, mgl32.Vec3{})
	b.HasTexCoords = uploadVec2(b.vbo[2], LocTexCoord, model.TexCoords)
	b.HasColors = uploadVec3(b.vbo[3], LocColor, model.Colors, mgl32.Vec3{1, 1, 1})

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(model.Indices)*4, gl.Ptr(model.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	b.indexCount = int32(len(model.Indices))
	b.groups = model.Groups
	return nil
}

// uploadVec3 fills vbo and enables loc when data is present. Otherwise
// the attribute is disabled and reads def. It reports whether data was
// uploaded.
func uploadVec3(vbo, loc uint32, data []mgl32.Vec3, def mgl32.Vec3) bool {
	if len(data) == 0 {
		gl.DisableVertexAttribArray(loc)
		gl.VertexAttrib3f(loc, def[0], def[1], def[2])
		return false
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*int(unsafe.Sizeof(data[0])), gl.Ptr(data), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(loc, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(loc)
	return true
}

func uploadVec2(vbo, loc uint32, data []mgl32.Vec2) bool {
	if len(data) == 0 {
		gl.DisableVertexAttribArray(loc)
		gl.VertexAttrib2f(loc, 0, 0)
		return false
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*int(unsafe.Sizeof(data[0])), gl.Ptr(data), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(loc, 2, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(loc)
	return true
}

// IndexCount returns the number of uploaded indices.
func (b *Buffers) IndexCount() int32 {
	return b.indexCount
}

// Groups returns the draw groups of the uploaded model.
func (b *Buffers) Groups() []mesh.DrawGroup {
	return b.groups
}

// bind binds the VAO and sets the constant values read by disabled
// attributes. Those values are context state, not VAO state.
func (b *Buffers) bind() {
	gl.BindVertexArray(b.vao)
	if !b.HasNormals {
		gl.VertexAttrib3f(LocNormal, 0, 0, 0)
	}
	if !b.HasTexCoords {
		gl.VertexAttrib2f(LocTexCoord, 0, 0)
	}
	if !b.HasColors {
		gl.VertexAttrib3f(LocColor, 1, 1, 1)
	}
}

// Draw draws every triangle.
func (b *Buffers) Draw() {
	b.bind()
	gl.DrawElements(gl.TRIANGLES, b.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// DrawGroup draws the index range of one draw group.
func (b *Buffers) DrawGroup(g mesh.DrawGroup) {
	b.bind()
	gl.DrawElementsWithOffset(gl.TRIANGLES, g.Count, gl.UNSIGNED_INT, uintptr(g.Start)*4)
	gl.BindVertexArray(0)
}

// DrawWireframe draws every triangle as lines.
func (b *Buffers) DrawWireframe() {
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	b.Draw()
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

// Delete releases the GL objects. The Buffers must not be used afterwards.
func (b *Buffers) Delete() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.vbo[0] != 0 {
		gl.DeleteBuffers(int32(len(b.vbo)), &b.vbo[0])
		b.vbo = [4]uint32{}
	}
	if b.ebo != 0 {
		gl.DeleteBuffers(1, &b.ebo)
		b.ebo = 0
	}
	b.indexCount = 0
	b.groups = nil
}
