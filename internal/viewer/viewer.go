// Package viewer renders indexed models in an SDL2 window with an orbit
// camera. It is the interactive half of objtool.
package viewer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/internal/gpu"
	"github.com/Faultbox/objmesh/internal/input"
	"github.com/Faultbox/objmesh/internal/texture"
	"github.com/Faultbox/objmesh/internal/window"
	"github.com/Faultbox/objmesh/pkg/mesh"
)

// Options configures a Viewer.
type Options struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Wireframe  bool
	FOV        float32 // vertical, degrees
	Background [3]float32

	// BaseDir resolves relative texture filenames.
	BaseDir string

	// ScreenshotDir receives F12 captures. Empty means the working directory.
	ScreenshotDir    string
	ScreenshotFormat string // "png" (default) or "webp"

	// Updates delivers replacement model sets, e.g. from a file watcher.
	// Models are uploaded on the render thread.
	Updates <-chan []*mesh.IndexedModel
}

type drawable struct {
	model   *mesh.IndexedModel
	buffers *gpu.Buffers
	texture uint32 // 0 binds the white fallback
}

type uniforms struct {
	mvp        int32
	model      int32
	texture    int32
	useTexture int32
	ambient    int32
	diffuse    int32
	lightDir   int32
	opacity    int32
	wireframe  int32
}

// Viewer owns the window, GL program and uploaded models.
type Viewer struct {
	opts Options
	log  *zap.Logger

	win   *window.Window
	input *input.Input

	program  uint32
	uniforms uniforms
	white    uint32

	// textures caches uploads by resolved path.
	textures map[string]uint32

	drawables []*drawable
	camera    *OrbitCamera
	wireframe bool
	width     int
	height    int
}

// New opens a window and uploads models. Call Close when done.
func New(opts Options, models []*mesh.IndexedModel, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.FOV <= 0 {
		opts.FOV = 45
	}

	win, err := window.New(window.Config{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Fullscreen: opts.Fullscreen,
		VSync:      opts.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		opts:      opts,
		log:       log,
		win:       win,
		input:     input.New(),
		textures:  make(map[string]uint32),
		camera:    NewOrbitCamera(),
		wireframe: opts.Wireframe,
	}

	if err := v.initGL(); err != nil {
		v.Close()
		return nil, err
	}
	if err := v.Reload(models); err != nil {
		v.Close()
		return nil, err
	}
	v.ResetCamera()

	return v, nil
}

func (v *Viewer) initGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	v.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	bg := v.opts.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1)

	program, err := gpu.CompileProgram(vertexShader, fragmentShader)
	if err != nil {
		return fmt.Errorf("failed to create shader program: %w", err)
	}
	v.program = program
	v.uniforms = uniforms{
		mvp:        gpu.Uniform(program, "uMVP"),
		model:      gpu.Uniform(program, "uModel"),
		texture:    gpu.Uniform(program, "uTexture"),
		useTexture: gpu.Uniform(program, "uUseTexture"),
		ambient:    gpu.Uniform(program, "uAmbient"),
		diffuse:    gpu.Uniform(program, "uDiffuse"),
		lightDir:   gpu.Uniform(program, "uLightDir"),
		opacity:    gpu.Uniform(program, "uOpacity"),
		wireframe:  gpu.Uniform(program, "uWireframe"),
	}
	v.white = gpu.SolidTexture(255, 255, 255, 255)

	v.width, v.height = v.win.DrawableSize()
	gl.Viewport(0, 0, int32(v.width), int32(v.height))
	return nil
}

// Reload replaces the displayed models, reusing existing buffers where it
// can. Empty models are skipped.
func (v *Viewer) Reload(models []*mesh.IndexedModel) error {
	var errs []error
	next := make([]*drawable, 0, len(models))

	// Texture files may have changed along with the models.
	for path, id := range v.textures {
		gpu.DeleteTexture(id)
		delete(v.textures, path)
	}

	for i, model := range models {
		if model.TriangleCount() == 0 {
			v.log.Debug("skipping empty model", zap.Int("index", i))
			continue
		}

		var buffers *gpu.Buffers
		if len(next) < len(v.drawables) {
			buffers = v.drawables[len(next)].buffers
			if err := buffers.Reload(model); err != nil {
				errs = append(errs, fmt.Errorf("model %d: %w", i, err))
				continue
			}
		} else {
			var err error
			buffers, err = gpu.Upload(model)
			if err != nil {
				errs = append(errs, fmt.Errorf("model %d: %w", i, err))
				continue
			}
		}

		next = append(next, &drawable{
			model:   model,
			buffers: buffers,
			texture: v.diffuseTexture(model),
		})
	}

	for _, d := range v.drawables[min(len(next), len(v.drawables)):] {
		d.buffers.Delete()
	}
	v.drawables = next

	v.log.Info("models uploaded", zap.Int("count", len(next)))
	if len(next) == 0 && len(models) > 0 {
		errs = append(errs, gpu.ErrEmptyModel)
	}
	return errors.Join(errs...)
}

// diffuseTexture uploads the material's map_Kd once per path.
func (v *Viewer) diffuseTexture(model *mesh.IndexedModel) uint32 {
	m := model.Material
	if m == nil || m.MapDiffuse == "" || len(model.TexCoords) == 0 {
		return 0
	}

	path := texture.MapPath(m.MapDiffuse, v.opts.BaseDir)
	if id, ok := v.textures[path]; ok {
		return id
	}

	img, err := texture.Load(path)
	if err != nil {
		v.log.Warn("failed to load diffuse map",
			zap.String("material", m.Name),
			zap.String("path", path),
			zap.Error(err),
		)
		v.textures[path] = 0
		return 0
	}

	id := gpu.UploadTexture(img)
	v.textures[path] = id
	v.log.Debug("texture uploaded",
		zap.String("path", path),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return id
}

// ResetCamera frames every loaded model.
func (v *Viewer) ResetCamera() {
	models := make([]*mesh.IndexedModel, len(v.drawables))
	for i, d := range v.drawables {
		models[i] = d.model
	}
	lo, hi := mesh.SetBounds(models)
	v.camera.FitToBounds(lo, hi, mgl32.DegToRad(v.opts.FOV))
}

// Run drives the event and render loop until the window is closed or
// Escape is pressed.
func (v *Viewer) Run() {
	v.log.Info("viewer running",
		zap.Int("models", len(v.drawables)),
		zap.Bool("wireframe", v.wireframe),
	)

	for {
		if v.input.Update() || v.input.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
			return
		}
		v.handleInput()
		v.pollUpdates()
		v.render()
		v.win.SwapBuffers()
	}
}

func (v *Viewer) handleInput() {
	for _, e := range v.input.Events() {
		if e.Type == input.EventWindowResize {
			v.width, v.height = v.win.DrawableSize()
			gl.Viewport(0, 0, int32(v.width), int32(v.height))
		}
	}

	if v.input.IsKeyPressed(sdl.SCANCODE_W) {
		v.wireframe = !v.wireframe
		v.log.Debug("wireframe toggled", zap.Bool("enabled", v.wireframe))
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_R) {
		v.ResetCamera()
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_F12) {
		v.render()
		if path, err := v.screenshot(); err != nil {
			v.log.Warn("screenshot failed", zap.Error(err))
		} else {
			v.log.Info("screenshot saved", zap.String("path", path))
		}
	}

	if dx, dy := v.input.Drag(sdl.BUTTON_LEFT); dx != 0 || dy != 0 {
		v.camera.HandleDrag(float32(dx), float32(dy))
	}
	if wheel := v.input.Wheel(); wheel != 0 {
		v.camera.HandleZoom(wheel)
	}
}

func (v *Viewer) pollUpdates() {
	if v.opts.Updates == nil {
		return
	}
	select {
	case models, ok := <-v.opts.Updates:
		if !ok {
			v.opts.Updates = nil
			return
		}
		if err := v.Reload(models); err != nil {
			v.log.Warn("reload failed", zap.Error(err))
		}
	default:
	}
}

func (v *Viewer) render() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if v.height == 0 || len(v.drawables) == 0 {
		return
	}

	near, far := v.camera.NearFar()
	projection := mgl32.Perspective(mgl32.DegToRad(v.opts.FOV), float32(v.width)/float32(v.height), near, far)
	model := mgl32.Ident4()
	mvp := projection.Mul4(v.camera.ViewMatrix()).Mul4(model)

	gl.UseProgram(v.program)
	gl.UniformMatrix4fv(v.uniforms.mvp, 1, false, &mvp[0])
	gl.UniformMatrix4fv(v.uniforms.model, 1, false, &model[0])
	light := v.camera.Center.Sub(v.camera.Position()).Normalize()
	gl.Uniform3f(v.uniforms.lightDir, light[0], light[1], light[2])
	gl.Uniform1i(v.uniforms.texture, 0)
	gl.ActiveTexture(gl.TEXTURE0)

	for _, d := range v.drawables {
		v.bindMaterial(d)
		if v.wireframe {
			gl.Uniform1i(v.uniforms.wireframe, 1)
			d.buffers.DrawWireframe()
			continue
		}
		gl.Uniform1i(v.uniforms.wireframe, 0)
		groups := d.buffers.Groups()
		if len(groups) == 0 {
			d.buffers.Draw()
			continue
		}
		for _, g := range groups {
			d.buffers.DrawGroup(g)
		}
	}
	gl.UseProgram(0)
}

func (v *Viewer) bindMaterial(d *drawable) {
	ambient := mgl32.Vec3{}
	diffuse := mgl32.Vec3{0.8, 0.8, 0.8}
	opacity := float32(1)
	if m := d.model.Material; m != nil {
		ambient = m.Ambient
		diffuse = m.Diffuse
		opacity = m.Opacity
	}
	gl.Uniform3f(v.uniforms.ambient, ambient[0], ambient[1], ambient[2])
	gl.Uniform3f(v.uniforms.diffuse, diffuse[0], diffuse[1], diffuse[2])
	gl.Uniform1f(v.uniforms.opacity, opacity)

	tex := d.texture
	if tex == 0 {
		tex = v.white
	}
	gl.Uniform1i(v.uniforms.useTexture, boolToInt(d.texture != 0))
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Close releases GL resources and the window.
func (v *Viewer) Close() {
	for _, d := range v.drawables {
		d.buffers.Delete()
	}
	v.drawables = nil
	for _, id := range v.textures {
		gpu.DeleteTexture(id)
	}
	gpu.DeleteTexture(v.white)
	if v.program != 0 {
		gl.DeleteProgram(v.program)
	}
	v.win.Close()
}
