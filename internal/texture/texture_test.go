package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/objmesh/pkg/formats"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// twoRows returns a 1x2 image, red on top and blue below.
func twoRows() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(0, 1, blue)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	img, err := Decode(encodePNG(t, twoRows()), "a.png")
	require.NoError(t, err)

	rgba := ToRGBA(img)
	assert.Equal(t, red, rgba.RGBAAt(0, 0))
	assert.Equal(t, blue, rgba.RGBAAt(0, 1))
}

func TestDecode_JPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	decoded, err := Decode(buf.Bytes(), "diffuse.jpg")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), decoded.Bounds())

	c := ToRGBA(decoded).RGBAAt(32, 32)
	assert.InDelta(t, 200, int(c.R), 4)
	assert.InDelta(t, 0, int(c.G), 4)
}

func TestDecode_BMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, twoRows()))

	// The extension is irrelevant when the content has a signature.
	img, err := Decode(buf.Bytes(), "texture.tga")
	require.NoError(t, err)
	assert.Equal(t, red, ToRGBA(img).RGBAAt(0, 0))
}

func TestDecode_TGA(t *testing.T) {
	// 1x1 uncompressed 24-bit true-color, top-left origin, BGR pixel,
	// followed by a TGA 2.0 footer without extension area.
	data := []byte{
		0, 0, 2, // id length, no color map, true-color
		0, 0, 0, 0, 0, // color map
		0, 0, 0, 0, // origin
		1, 0, 1, 0, // width, height
		24, 0x20, // depth, descriptor
		0x30, 0x20, 0x10,
		0, 0, 0, 0, 0, 0, 0, 0, // extension and developer offsets
	}
	data = append(data, "TRUEVISION-XFILE.\x00"...)

	img, err := Decode(data, "wall.TGA")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, ToRGBA(img).RGBAAt(0, 0))
}

func TestDecode_TGAEncoded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tga.Encode(&buf, twoRows()))

	img, err := Decode(buf.Bytes(), "wall.tga")
	require.NoError(t, err)

	rgba := ToRGBA(img)
	assert.Equal(t, red, rgba.RGBAAt(0, 0))
	assert.Equal(t, blue, rgba.RGBAAt(0, 1))

	// Without the extension the content has nothing to sniff.
	_, err = Decode(buf.Bytes(), "wall.bin")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode([]byte("not an image"), "notes.txt")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestToRGBA_SubImage(t *testing.T) {
	sub := twoRows().SubImage(image.Rect(0, 1, 1, 2))
	rgba := ToRGBA(sub)

	assert.Equal(t, image.Rect(0, 0, 1, 1), rgba.Bounds())
	assert.Equal(t, blue, rgba.RGBAAt(0, 0))
}

func TestFlipVertical(t *testing.T) {
	img := twoRows()
	FlipVertical(img)
	assert.Equal(t, blue, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(0, 1))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, twoRows()), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, blue, img.RGBAAt(0, 0), "rows are stored bottom-up")

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestLoadMaterialMaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tex"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tex", "diffuse.png"), encodePNG(t, twoRows()), 0644))

	m := &formats.Material{
		Name:       "brick",
		MapDiffuse: `tex\diffuse.png`,
		MapBump:    "missing.png",
	}
	maps, err := LoadMaterialMaps(m, dir)

	require.Contains(t, maps, "map_Kd")
	assert.NotContains(t, maps, "map_bump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map_bump")
}

func TestMapPath(t *testing.T) {
	dir := filepath.Join("assets", "models")

	assert.Equal(t, filepath.Join(dir, "tex", "wood.png"), MapPath(`tex\wood.png`, dir))
	assert.Equal(t, filepath.Join(dir, "wood.png"), MapPath("wood.png", dir))

	abs := filepath.Join(t.TempDir(), "wood.png")
	assert.Equal(t, abs, MapPath(abs, dir))
}
