// Package texture decodes the image files referenced by material maps.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// ErrUnsupported is returned for image data no decoder recognizes.
var ErrUnsupported = errors.New("unsupported image format")

// decoders maps sniffed content types to their decoders. The image
// package registry is not used: the tga package registers with an empty
// magic string, which would claim every format.
var decoders = map[types.Type]func(io.Reader) (image.Image, error){
	matchers.TypePng:  png.Decode,
	matchers.TypeJpeg: jpeg.Decode,
	matchers.TypeBmp:  bmp.Decode,
	matchers.TypeGif:  gif.Decode,
	matchers.TypeWebp: webp.Decode,
}

// Decode decodes image data. The format is sniffed from the content;
// TGA has no magic number and is recognized by name.
func Decode(data []byte, name string) (image.Image, error) {
	kind, _ := filetype.Match(data)
	if decode, ok := decoders[kind]; ok {
		img, err := decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s as %s: %w", name, kind.Extension, err)
		}
		return img, nil
	}

	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err := tga.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s as tga: %w", name, err)
		}
		return img, nil
	}

	return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// Load reads and decodes an image file and converts it to RGBA with the
// first row at the bottom, the order OpenGL and OBJ texture coordinates
// expect.
func Load(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	img, err := Decode(data, path)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	rgba := ToRGBA(img)
	FlipVertical(rgba)
	return rgba, nil
}

// ToRGBA converts any image.Image to *image.RGBA with bounds starting at
// the origin. An *image.RGBA already at the origin is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// FlipVertical reverses the row order of img in place.
func FlipVertical(img *image.RGBA) {
	h := img.Bounds().Dy()
	rowLen := img.Bounds().Dx() * 4
	tmp := make([]byte, rowLen)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-1-y)*img.Stride+rowLen]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// LoadMaterialMaps loads every texture map of m, keyed by MTL keyword
// (map_Kd, map_bump, ...). Relative filenames are resolved against dir.
// Maps that fail to load are skipped and reported in the returned error.
func LoadMaterialMaps(m *formats.Material, dir string) (map[string]*image.RGBA, error) {
	maps := make(map[string]*image.RGBA)
	var errs []error
	for key, name := range m.Maps() {
		img, err := Load(MapPath(name, dir))
		if err != nil {
			errs = append(errs, fmt.Errorf("material %q %s: %w", m.Name, key, err))
			continue
		}
		maps[key] = img
	}
	return maps, errors.Join(errs...)
}

// MapPath resolves a texture filename from an MTL file against dir.
// Backslash separators written by Windows exporters are accepted.
func MapPath(name, dir string) string {
	path := filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
