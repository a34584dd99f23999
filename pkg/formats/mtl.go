// MTL (Wavefront material library) parser.
package formats

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is one newmtl record of an MTL file.
type Material struct {
	Name         string     `yaml:"name"`
	Ambient      mgl32.Vec3 `yaml:"ka,flow"`
	Diffuse      mgl32.Vec3 `yaml:"kd,flow"`
	Specular     mgl32.Vec3 `yaml:"ks,flow"`
	Emissive     mgl32.Vec3 `yaml:"ke,flow"`
	Shininess    float32    `yaml:"ns"`
	Opacity      float32    `yaml:"d"`  // Always 1 - Transparency
	Transparency float32    `yaml:"tr"` // Always 1 - Opacity
	Illumination int        `yaml:"illum"`

	// Texture map filenames, as written in the file.
	MapAmbient   string `yaml:"map_ka,omitempty"`
	MapDiffuse   string `yaml:"map_kd,omitempty"`
	MapSpecular  string `yaml:"map_ks,omitempty"`
	MapEmissive  string `yaml:"map_ke,omitempty"`
	MapShininess string `yaml:"map_ns,omitempty"`
	MapOpacity   string `yaml:"map_d,omitempty"`
	MapBump      string `yaml:"map_bump,omitempty"`
}

// SetTransparency sets Tr and keeps d consistent.
func (m *Material) SetTransparency(tr float32) {
	m.Transparency = tr
	m.Opacity = 1 - tr
}

// SetOpacity sets d and keeps Tr consistent.
func (m *Material) SetOpacity(d float32) {
	m.Opacity = d
	m.Transparency = 1 - d
}

// Maps returns the non-empty texture map filenames keyed by MTL keyword.
func (m *Material) Maps() map[string]string {
	maps := make(map[string]string)
	for key, file := range map[string]string{
		"map_Ka":   m.MapAmbient,
		"map_Kd":   m.MapDiffuse,
		"map_Ks":   m.MapSpecular,
		"map_Ke":   m.MapEmissive,
		"map_Ns":   m.MapShininess,
		"map_d":    m.MapOpacity,
		"map_bump": m.MapBump,
	} {
		if file != "" {
			maps[key] = file
		}
	}
	return maps
}

// FindMaterial returns the material with exactly the given name, or nil.
func FindMaterial(materials []Material, name string) *Material {
	for i := range materials {
		if materials[i].Name == name {
			return &materials[i]
		}
	}
	return nil
}

// ParseMTL parses MTL data into a material table.
//
// The data is scanned twice: the first pass counts newmtl directives to
// size the table, the second fills it. Unknown keywords are ignored, as
// are keywords that appear before the first newmtl.
func ParseMTL(data []byte) []Material {
	count := 0
	eachLine(data, func(line string) {
		s := NewScanner(line)
		if tok, _ := s.Next(); tok == "newmtl" {
			count++
		}
	})

	materials := make([]Material, 0, count)
	var m *Material

	eachLine(data, func(line string) {
		s := NewScanner(line)
		keyword, _ := s.Next()

		if keyword == "newmtl" {
			materials = append(materials, Material{Opacity: 1})
			m = &materials[len(materials)-1]
			m.Name = s.Rest()
			return
		}
		if m == nil {
			return
		}

		switch keyword {
		case "Ka":
			m.Ambient = s.Vec3()
		case "Kd":
			m.Diffuse = s.Vec3()
		case "Ks":
			m.Specular = s.Vec3()
		case "Ke":
			m.Emissive = s.Vec3()
		case "Ns":
			m.Shininess = s.Float()
		case "Tr":
			m.SetTransparency(s.Float())
		case "d":
			m.SetOpacity(s.Float())
		case "illum":
			m.Illumination, _ = s.Int()
		case "map_Ka":
			m.MapAmbient = mapFilename(s.Rest())
		case "map_Kd":
			m.MapDiffuse = mapFilename(s.Rest())
		case "map_Ks":
			m.MapSpecular = mapFilename(s.Rest())
		case "map_Ke":
			m.MapEmissive = mapFilename(s.Rest())
		case "map_Ns":
			m.MapShininess = mapFilename(s.Rest())
		case "map_d":
			m.MapOpacity = mapFilename(s.Rest())
		case "map_bump", "bump", "map_Bump":
			m.MapBump = mapFilename(s.Rest())
		}
	})

	return materials
}

// LoadMTL reads and parses the MTL file at path.
// A file that cannot be read yields an error wrapping ErrFileNotFound.
func LoadMTL(path string) ([]Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	return ParseMTL(data), nil
}

// mapFilename strips texture map options ("-bm 1.0 file.tga") and
// returns the trailing filename.
func mapFilename(arg string) string {
	if !strings.HasPrefix(arg, "-") {
		return arg
	}
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
