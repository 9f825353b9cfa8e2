package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-geoquest/internal/game"
)

type GameConfig struct {
	// RegistryPath points at a JSON registry override. Empty means the
	// built-in defaults.
	RegistryPath string `json:"registry_path,omitempty"`
}

func (c *GameConfig) validate() error {
	el := errors.NewErrorList()

	if c.RegistryPath != "" {
		if _, err := os.Stat(c.RegistryPath); err != nil {
			el.Add(fmt.Errorf("registry_path: invalid path %q: %w", c.RegistryPath, err))
		}
	}

	return el.Err()
}

func (c *GameConfig) BuildRegistry() (*game.Registry, error) {
	if c.RegistryPath == "" {
		return game.DefaultRegistry(), nil
	}

	data, err := os.ReadFile(c.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("reading registry %q: %w", c.RegistryPath, err)
	}

	var registry game.Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("unmarshaling registry %q: %w", c.RegistryPath, err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("validating registry %q: %w", c.RegistryPath, err)
	}

	return &registry, nil
}
