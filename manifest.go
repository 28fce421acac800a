package topoguia

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the TOML description of a FieldSet used by the command line:
//
//	photos = ["fotos/1.jpg", "fotos/2.jpg"]
//
//	[fields]
//	route_code = "PR-GU 08"
//	route_name = "Hoz del Río Dulce"
//
//	[images]
//	map = "mapa.png"
//
// Image paths are relative to the directory of the manifest.
type Manifest struct {
	Fields map[string]string `toml:"fields"`
	Images map[string]string `toml:"images"`
	Photos []string          `toml:"photos"`
}

// DecodeManifest reads a manifest. Unknown field and slot keys are rejected.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("topoguia: decoding manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown manifest keys %s", ErrInvalidParam, strings.Join(keys, ", "))
	}
	for k := range m.Fields {
		if _, err := ParseField(k); err != nil {
			return nil, err
		}
	}
	for k := range m.Images {
		if _, err := ParseSlot(k); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// FieldSet reads the referenced images from dir and returns the FieldSet.
func (m *Manifest) FieldSet(dir string) (*FieldSet, error) {
	fs := NewFieldSet()
	for k, v := range m.Fields {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		fs.Set(f, v)
	}
	for k, p := range m.Images {
		s, err := ParseSlot(k)
		if err != nil {
			return nil, err
		}
		data, err := readFile(dir, p)
		if err != nil {
			return nil, fmt.Errorf("topoguia: image %s: %w", s, err)
		}
		fs.SetImage(s, data)
	}
	for _, p := range m.Photos {
		data, err := readFile(dir, p)
		if err != nil {
			return nil, fmt.Errorf("topoguia: photo: %w", err)
		}
		fs.AddPhoto(data)
	}
	return fs, nil
}

// LoadManifest reads a manifest file and the images it references.
func LoadManifest(path string) (*FieldSet, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m.FieldSet(filepath.Dir(path))
}

func readFile(dir, p string) ([]byte, error) {
	if p == "" {
		return nil, nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return os.ReadFile(p)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("topoguia: %w", err)
	}
	return f, nil
}
