package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/storage"
)

type StorageConfig struct {
	Players AssetConfig[*game.PlayerRecord] `json:"players"`

	// FightLogPath is where fight records are appended, one JSON
	// object per line.
	FightLogPath string `json:"fight_log_path"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	el.Add(c.Players.Validate("players"))
	if c.FightLogPath == "" {
		el.Add(fmt.Errorf("fight_log_path is required"))
	} else if _, err := os.Stat(filepath.Dir(c.FightLogPath)); err != nil {
		el.Add(fmt.Errorf("fight_log_path: invalid directory: %w", err))
	}

	return el.Err()
}

func (c *StorageConfig) BuildPlayerStore() (*storage.FileStore[*game.PlayerRecord], error) {
	return c.Players.BuildFileStore()
}

func (c *StorageConfig) BuildFightLog() (*storage.FightLog, error) {
	return storage.NewFightLog(c.FightLogPath)
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
