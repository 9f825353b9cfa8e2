// Package driver runs the fixed-period game tick as a service worker.
package driver

import (
	"context"
	"time"
)

const (
	DefaultTickLength = time.Second
)

// Ticker is anything driven by the periodic tick.
type Ticker interface {
	Tick(context.Context) error
}

type GameDriver struct {
	tickLength time.Duration
	tickers    []Ticker
}

func NewGameDriver(tickers []Ticker, opts ...GameDriverOpt) *GameDriver {
	d := &GameDriver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *GameDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *GameDriver) Tick(ctx context.Context) error {
	for _, t := range d.tickers {
		if err := t.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
