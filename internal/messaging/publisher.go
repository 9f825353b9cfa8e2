package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-geoquest/internal/game"
)

// FightFeed streams fight records to per-player NATS subjects so that
// external consumers (dashboards, analytics) can follow fights without
// holding a game connection.
type FightFeed struct {
	server *NatsServer
}

func NewFightFeed(server *NatsServer) *FightFeed {
	return &FightFeed{server: server}
}

// PublishFight sends the record to the player's fight subject. Feed
// delivery is best effort; failures are logged and never surfaced to
// the game event that produced the record.
func (f *FightFeed) PublishFight(record game.FightRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		slog.Error("marshalling fight record", "player", record.Player, "error", err)
		return
	}
	if err := f.server.Publish(fmt.Sprintf("fights.%s", record.Player), data); err != nil {
		slog.Error("publishing fight record", "player", record.Player, "error", err)
	}
}
