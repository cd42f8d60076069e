package conftable

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrLayerLoad indicates a configuration layer could not be loaded.
var ErrLayerLoad = errors.New("conftable: layer load failed")

// Layer is a flat mapping from dotted key to value.
type Layer map[string]any

// Source produces one configuration layer.
type Source interface {
	// Name identifies the layer in errors and logs (e.g., "default", "linux").
	Name() string

	// Load reads and flattens the layer.
	Load() (Layer, error)
}

//go:embed defaults.toml
var defaultsFS embed.FS

// Defaults returns the default layer shared by every OS family.
func Defaults() Source {
	return FS("default", defaultsFS, "defaults.toml")
}

// FS returns a Source that decodes the TOML file at path in fsys.
func FS(name string, fsys fs.FS, path string) Source {
	return &tomlSource{
		name: name,
		read: func() ([]byte, error) { return fs.ReadFile(fsys, path) },
	}
}

// File returns a Source that decodes the TOML file at path on disk.
func File(name, path string) Source {
	return &tomlSource{
		name: name,
		read: func() ([]byte, error) { return os.ReadFile(path) },
	}
}

// Static returns a Source that yields a copy of layer.
func Static(name string, layer Layer) Source {
	return &staticSource{name: name, layer: maps.Clone(layer)}
}

type tomlSource struct {
	name string
	read func() ([]byte, error)
}

func (s *tomlSource) Name() string { return s.name }

func (s *tomlSource) Load() (Layer, error) {
	data, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLayerLoad, s.name, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLayerLoad, s.name, err)
	}
	layer := make(Layer)
	flatten("", doc, layer)
	return layer, nil
}

type staticSource struct {
	name  string
	layer Layer
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Load() (Layer, error) {
	if s.layer == nil {
		return Layer{}, nil
	}
	return maps.Clone(s.layer), nil
}

// flatten copies doc into out, joining nested table keys with dots.
func flatten(prefix string, doc map[string]any, out Layer) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}
