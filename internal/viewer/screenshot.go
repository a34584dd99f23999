package viewer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/objmesh/internal/texture"
)

// screenshotName returns the output path for a capture taken at t.
// format is "png" or "webp".
func screenshotName(dir, prefix, format string, t time.Time) string {
	name := fmt.Sprintf("%s_%s.%s", prefix, t.Format("2006-01-02_15-04-05"), format)
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// savePixels writes bottom-up RGBA pixels, as read back from OpenGL, to
// path. A .webp extension selects lossless WebP, anything else PNG.
func savePixels(path string, pixels []byte, width, height int) error {
	if len(pixels) != width*height*4 {
		return fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	img := &image.RGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	texture.FlipVertical(img)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		err = nativewebp.Encode(file, img, nil)
	} else {
		err = png.Encode(file, img)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", filepath.Ext(path), err)
	}
	return file.Close()
}

// screenshot reads the current framebuffer and saves it.
func (v *Viewer) screenshot() (string, error) {
	width, height := v.width, v.height
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	format := v.opts.ScreenshotFormat
	if format == "" {
		format = "png"
	}
	path := screenshotName(v.opts.ScreenshotDir, "objtool", format, time.Now())
	if err := savePixels(path, pixels, width, height); err != nil {
		return "", err
	}
	return path, nil
}
