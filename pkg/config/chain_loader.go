package config

// ChainLoader merges its loaders in order; later loaders override earlier ones.
// A failing loader is skipped unless every loader fails.
type ChainLoader struct {
	loaders []Loader
}

func NewChainLoader(loaders ...Loader) *ChainLoader {
	return &ChainLoader{loaders: loaders}
}

func (c *ChainLoader) Load() (map[string]any, error) {
	final := make(map[string]any)
	loaded := 0
	var lastErr error

	for _, loader := range c.loaders {
		values, err := loader.Load()
		if err != nil {
			lastErr = err
			continue
		}
		loaded++
		mergeMaps(final, values)
	}

	if loaded == 0 {
		return nil, ErrNoConfigSource.WithDetail("loader", "chain").WithCause(lastErr)
	}

	return final, nil
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if vMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeMaps(dstMap, vMap)
				continue
			}
			v = deepCopy(vMap)
		}
		dst[k] = v
	}
}
