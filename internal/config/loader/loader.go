// Package loader reads keytap settings from config.toml and the
// environment.
//
// Each layer produces a nested map[string]any holding only the keys it
// sets. The config package merges the layers with DeepMerge, later layers
// overriding earlier ones, and decodes the result into typed settings.
package loader

import "os"

// Loader produces one settings layer.
type Loader interface {
	// Load returns the keys this layer sets. A layer whose source does not
	// exist returns nil, nil.
	Load() (map[string]any, error)
}

// FileSystem reads settings files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return osFS{}
}

// Static is a Loader returning a fixed map, typically built-in defaults.
type Static map[string]any

// Load returns a deep copy of the map.
func (s Static) Load() (map[string]any, error) {
	return Clone(s), nil
}

// DeepMerge merges src into dst and returns dst. Nested maps merge key by
// key; any other src value replaces the dst value.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}

// Clone copies the nested maps of a settings map. Leaves are scalars and
// are shared.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]any); ok {
			v = Clone(m)
		}
		dst[k] = v
	}
	return dst
}

var (
	_ Loader = (*SettingsFile)(nil)
	_ Loader = (*EnvLoader)(nil)
	_ Loader = Static(nil)
)
