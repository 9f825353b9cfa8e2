// Package message defines the wire protocol between server and clients:
// two closed tagged unions (one per direction) with a single dispatch
// function each, plus the JSON envelope codec.
package message

import (
	"time"

	"github.com/pixil98/go-geoquest/internal/game"
)

// ToServer is a client-originated message. The union is closed: adding
// a variant requires updating the codec and DispatchToServer, which the
// exhaustive type switches there enforce.
type ToServer interface {
	isToServer()
}

// ToClient is a server-originated message delivered to player and
// observer sinks.
type ToClient interface {
	isToClient()
}

// Sink is the outbound capability handed to the coordinator for one
// connection. Send must not block game logic; transports enqueue.
type Sink interface {
	Send(msg ToClient)
}

// AttackEnemy asks to fight the enemy with the given id.
type AttackEnemy struct {
	EnemyID game.EnemyID `json:"enemy_id"`
}

// EquipItem asks to equip an item from the inventory.
type EquipItem struct {
	ItemID game.ItemID `json:"item_id"`
}

// UnequipItem asks to move an equipped item back to the inventory.
type UnequipItem struct {
	ItemID game.ItemID `json:"item_id"`
}

// UpdateLookingPosition reports where the player's map view is centered.
type UpdateLookingPosition struct {
	Position game.Position `json:"position"`
}

// UpdateRealPosition reports the player's physical position.
type UpdateRealPosition struct {
	Position game.Position `json:"position"`
}

// Ping is a liveness probe. It flows in both directions.
type Ping struct{}

// Pong answers a Ping. It flows in both directions.
type Pong struct{}

func (AttackEnemy) isToServer() {}

func (EquipItem) isToServer() {}

func (UnequipItem) isToServer() {}

func (UpdateLookingPosition) isToServer() {}

func (UpdateRealPosition) isToServer() {}

func (Ping) isToServer() {}

func (Pong) isToServer() {}

// SetConfig pushes the current registry snapshot to a sink.
type SetConfig struct {
	Registry *game.Registry `json:"registry"`
}

// MeUpdate carries the recipient's own full snapshot.
type MeUpdate struct {
	Player game.Player `json:"player"`
}

// PlayerUpdate carries another player's snapshot and position.
type PlayerUpdate struct {
	Player   game.Player   `json:"player"`
	Position game.Position `json:"position"`
}

// PlayerDisappears announces that a player logged out.
type PlayerDisappears struct {
	Name string `json:"name"`
}

// EnemiesAppear announces enemies newly visible to the recipient.
type EnemiesAppear struct {
	Enemies []game.Enemy `json:"enemies"`
}

// EnemiesDisappear announces enemies no longer existing, filtered to
// ids the recipient has actually seen.
type EnemiesDisappear struct {
	EnemyIDs []game.EnemyID `json:"enemy_ids"`
}

// QuestUpdate carries the recipient's quest set and its rotation deadline.
type QuestUpdate struct {
	Deadline time.Time          `json:"deadline"`
	Quests   []game.QuestStatus `json:"quests"`
}

// FightInfo reports the outcome of the recipient's own fight.
type FightInfo struct {
	EnemyID game.EnemyID      `json:"enemy_id"`
	Outcome game.FightOutcome `json:"outcome"`
}

// FightDashboardInfo streams a fight record to observers.
type FightDashboardInfo struct {
	Record game.FightRecord `json:"record"`
}

// Error reports a user-visible rejection to the originating connection.
type Error struct {
	Text string `json:"text"`
}

// Disconnect is a reserved sentinel: when a transport dequeues it, the
// connection closes instead of transmitting. It is never sent on the wire.
type Disconnect struct{}

func (SetConfig) isToClient() {}

func (MeUpdate) isToClient() {}

func (PlayerUpdate) isToClient() {}

func (PlayerDisappears) isToClient() {}

func (EnemiesAppear) isToClient() {}

func (EnemiesDisappear) isToClient() {}

func (QuestUpdate) isToClient() {}

func (FightInfo) isToClient() {}

func (FightDashboardInfo) isToClient() {}

func (Error) isToClient() {}

func (Ping) isToClient() {}

func (Pong) isToClient() {}

func (Disconnect) isToClient() {}

// ServerHandler receives dispatched client messages. The coordinator
// returns one per session; every method re-enters the coordinator lock.
type ServerHandler interface {
	AttackEnemy(id game.EnemyID)
	EquipItem(id game.ItemID)
	UnequipItem(id game.ItemID)
	UpdateLookingPosition(pos game.Position)
	UpdateRealPosition(pos game.Position)
	Ping()
	Pong()
}

// DispatchToServer routes a decoded client message to the handler.
func DispatchToServer(msg ToServer, h ServerHandler) {
	switch m := msg.(type) {
	case AttackEnemy:
		h.AttackEnemy(m.EnemyID)
	case EquipItem:
		h.EquipItem(m.ItemID)
	case UnequipItem:
		h.UnequipItem(m.ItemID)
	case UpdateLookingPosition:
		h.UpdateLookingPosition(m.Position)
	case UpdateRealPosition:
		h.UpdateRealPosition(m.Position)
	case Ping:
		h.Ping()
	case Pong:
		h.Pong()
	}
}
