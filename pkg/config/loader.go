package config

import "maps"

type Loader interface {
	Load() (map[string]any, error)
}

var (
	_ Loader = (*EnvConfigLoader)(nil)
	_ Loader = (*YamlConfigLoader)(nil)
	_ Loader = (*ChainLoader)(nil)
	_ Loader = MapLoader(nil)
)

// MapLoader serves fixed values, typically the defaults at the bottom of a chain.
type MapLoader map[string]any

func (m MapLoader) Load() (map[string]any, error) {
	return deepCopy(m), nil
}

func deepCopy(m map[string]any) map[string]any {
	out := maps.Clone(map[string]any(m))
	for k, v := range out {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopy(sub)
		}
	}
	return out
}
