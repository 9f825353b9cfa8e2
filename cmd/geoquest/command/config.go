package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string         `json:"tick_interval"`
	Listener     ListenerConfig `json:"listener"`
	Storage      StorageConfig  `json:"storage"`
	Nats         NatsConfig     `json:"nats"`
	Game         GameConfig     `json:"game"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
		}
	}

	el.Add(c.Listener.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Game.validate())

	return el.Err()
}

func (c *Config) tickInterval() time.Duration {
	if c.TickInterval == "" {
		return time.Second
	}
	d, _ := time.ParseDuration(c.TickInterval)
	return d
}
