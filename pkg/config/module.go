package config

import (
	"github.com/shuldan/eventbus/pkg/contracts"
)

type module struct {
	loader Loader
}

// NewModule layers defaults, the first YAML file found and PREFIX_* environment
// variables, in increasing precedence.
func NewModule(envPrefix string, defaults map[string]any, configPaths ...string) contracts.AppModule {
	return NewModuleWithLoader(NewChainLoader(
		MapLoader(defaults),
		NewYamlConfigLoader(configPaths...),
		NewEnvConfigLoader(envPrefix),
	))
}

func NewModuleWithLoader(loader Loader) contracts.AppModule {
	return &module{loader: loader}
}

func (m *module) Name() string {
	return contracts.ConfigModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	return container.Factory(configType, func(c contracts.DIContainer) (any, error) {
		values, err := m.loader.Load()
		if err != nil {
			return nil, err
		}
		return NewMapConfig(values), nil
	})
}

func (m *module) Start(_ contracts.AppContext) error {
	return nil
}

func (m *module) Stop(_ contracts.AppContext) error {
	return nil
}
