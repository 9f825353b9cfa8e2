package coordinator

import (
	"log/slog"

	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/message"
)

// sessionHandler binds one session name to the coordinator's mutation
// methods. Every method takes the coordinator lock, making each inbound
// message one atomic game event. A handler can outlive its session;
// methods on a logged-out name do nothing.
type sessionHandler struct {
	c    *Coordinator
	name string
}

var _ message.ServerHandler = (*sessionHandler)(nil)

func (h *sessionHandler) AttackEnemy(id game.EnemyID) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[h.name]
	if !ok {
		return
	}

	if sess.record.Hp <= 0 {
		sess.sink.Send(message.Error{Text: "you are dead"})
		return
	}
	enemy, ok := c.world.Get(id)
	if !ok {
		sess.sink.Send(message.Error{Text: "this enemy does not exist"})
		return
	}
	if enemy.Position.Distance(sess.position) > c.registry.FightingMaxDist {
		sess.sink.Send(message.Error{Text: "this enemy is too far"})
		return
	}

	player := c.registry.PlayerFromRecord(sess.record)
	result := c.resolver.Resolve(player, enemy)

	lvlBefore := c.registry.LvlFromXp(sess.record.Xp)
	sess.record.ApplyFightResult(result)
	lvlGained := c.registry.LvlFromXp(sess.record.Xp) - lvlBefore

	if result.Outcome == game.FightWon {
		c.advanceQuestsLocked(sess, enemy.Type, lvlGained)
		c.unregisterEnemyLocked(enemy.ID)
	}
	c.saveLocked(sess)

	record := game.FightRecord{
		Player:         h.name,
		PlayerPosition: sess.position,
		Enemy:          enemy,
		Outcome:        result.Outcome,
		Reward:         result.Reward,
		LostHp:         result.LostHp,
		Timestamp:      c.now(),
	}
	c.appendFightLocked(record)

	sess.sink.Send(message.FightInfo{EnemyID: enemy.ID, Outcome: result.Outcome})
	c.sendUpdatesForLocked(h.name)
	c.sendQuestsLocked(sess)
	for _, obs := range c.observers {
		obs.Send(message.FightDashboardInfo{Record: record})
	}
}

func (h *sessionHandler) EquipItem(id game.ItemID) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[h.name]
	if !ok {
		return
	}

	item, ok := c.registry.ItemByID(id)
	if !ok || !sess.record.HasInInventory(id) {
		sess.sink.Send(message.Error{Text: "this item is not in your inventory"})
		return
	}

	// One equipped item per slot. Anything occupying the slot goes
	// back to the inventory first.
	var sameSlot []game.ItemID
	for _, equippedID := range sess.record.Equipped {
		if other, ok := c.registry.ItemByID(equippedID); ok && other.Type == item.Type {
			sameSlot = append(sameSlot, equippedID)
		}
	}
	for _, equippedID := range sameSlot {
		sess.record.Unequip(equippedID)
	}
	sess.record.Equip(id)

	c.saveLocked(sess)
	c.sendUpdatesForLocked(h.name)
}

func (h *sessionHandler) UnequipItem(id game.ItemID) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[h.name]
	if !ok {
		return
	}

	if !sess.record.HasEquipped(id) {
		sess.sink.Send(message.Error{Text: "this item is not equipped"})
		return
	}
	sess.record.Unequip(id)

	c.saveLocked(sess)
	c.sendUpdatesForLocked(h.name)
}

func (h *sessionHandler) UpdateLookingPosition(pos game.Position) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[h.name]
	if !ok {
		return
	}
	sess.looking = pos
}

// UpdateRealPosition moves the player. A physical move changes what
// everyone else sees and what the player can see, so it drives the full
// update broadcast; panning the map view does not.
func (h *sessionHandler) UpdateRealPosition(pos game.Position) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[h.name]
	if !ok {
		return
	}
	sess.position = pos
	c.sendUpdatesForLocked(h.name)
}

func (h *sessionHandler) Ping() {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[h.name]; ok {
		sess.sink.Send(message.Pong{})
	}
}

func (h *sessionHandler) Pong() {}

// appendFightLocked persists the record and fans it out to the external
// feed if one is configured. Neither failure aborts the game event.
func (c *Coordinator) appendFightLocked(record game.FightRecord) {
	if c.fights != nil {
		if err := c.fights.Append(record); err != nil {
			slog.Error("appending fight record", "player", record.Player, "error", err)
		}
	}
	if c.feed != nil {
		c.feed.PublishFight(record)
	}
}
