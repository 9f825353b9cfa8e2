package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-geoquest/internal/listener"
)

type ListenerConfig struct {
	Port uint16 `json:"port"`

	// BuildVersion is the server build timestamp clients are checked
	// against on connect.
	BuildVersion int64 `json:"build_version,omitempty"`
}

func (c *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if c.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}

	return el.Err()
}

func (c *ListenerConfig) BuildListener(g listener.Game) *listener.WsListener {
	var opts []listener.WsListenerOpt
	if c.BuildVersion != 0 {
		opts = append(opts, listener.WithBuildVersion(c.BuildVersion))
	}
	return listener.NewWsListener(c.Port, g, opts...)
}
