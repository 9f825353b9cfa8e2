package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-geoquest/internal/combat"
	"github.com/pixil98/go-geoquest/internal/coordinator"
	"github.com/pixil98/go-geoquest/internal/driver"
	"github.com/pixil98/go-geoquest/internal/messaging"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Embedded nats server carrying the fight feed
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	players, err := cfg.Storage.BuildPlayerStore()
	if err != nil {
		return nil, fmt.Errorf("creating player store: %w", err)
	}
	fights, err := cfg.Storage.BuildFightLog()
	if err != nil {
		return nil, fmt.Errorf("creating fight log: %w", err)
	}

	registry, err := cfg.Game.BuildRegistry()
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	coord := coordinator.New(registry, players, fights, combat.NewSimulator(),
		coordinator.WithFightPublisher(messaging.NewFightFeed(natsServer)),
	)

	gameDriver := driver.NewGameDriver([]driver.Ticker{coord},
		driver.WithTickLength(cfg.tickInterval()),
	)

	return service.WorkerList{
		"nats":        natsServer,
		"driver":      gameDriver,
		"listener":    cfg.Listener.BuildListener(coord),
		"coordinator": &coordinatorWorker{coord: coord},
	}, nil
}

// coordinatorWorker drains the coordinator through its regular logout
// and removal paths when the application shuts down, so the broadcast
// invariants hold to the very end.
type coordinatorWorker struct {
	coord *coordinator.Coordinator
}

func (w *coordinatorWorker) Start(ctx context.Context) error {
	<-ctx.Done()
	w.coord.Stop()
	return nil
}
