package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// PlayerRecord is the persisted form of a player, keyed by name. The
// coordinator caches one copy per active session and writes it back
// after every mutation.
type PlayerRecord struct {
	Name      string   `json:"name"`
	Password  string   `json:"password"`
	Xp        int64    `json:"xp"`
	Hp        int64    `json:"hp"`
	Equipped  []ItemID `json:"equipped,omitempty"`
	Inventory []ItemID `json:"inventory,omitempty"`
}

func (r *PlayerRecord) Validate() error {
	el := errors.NewErrorList()

	if r.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if r.Xp < 0 {
		el.Add(fmt.Errorf("xp must not be negative"))
	}
	if r.Hp < 0 {
		el.Add(fmt.Errorf("hp must not be negative"))
	}

	return el.Err()
}

// AddXp grants xp. Xp never decreases.
func (r *PlayerRecord) AddXp(xp int64) {
	if xp > 0 {
		r.Xp += xp
	}
}

// ApplyReward adds the reward's xp and puts its items in the inventory.
func (r *PlayerRecord) ApplyReward(reward Reward) {
	r.AddXp(reward.Xp)
	r.Inventory = append(r.Inventory, reward.Items...)
}

// ApplyFightResult applies the reward and the hp loss of a fight.
// Hp never goes below zero.
func (r *PlayerRecord) ApplyFightResult(result FightResult) {
	r.ApplyReward(result.Reward)
	r.Hp -= result.LostHp
	if r.Hp < 0 {
		r.Hp = 0
	}
}

// HasInInventory reports whether the item is carried (and not equipped).
func (r *PlayerRecord) HasInInventory(id ItemID) bool {
	return containsItem(r.Inventory, id)
}

// HasEquipped reports whether the item is currently equipped.
func (r *PlayerRecord) HasEquipped(id ItemID) bool {
	return containsItem(r.Equipped, id)
}

// Equip moves an inventory item to the equipped list. Membership is
// the caller's responsibility.
func (r *PlayerRecord) Equip(id ItemID) {
	r.Inventory, _ = removeItem(r.Inventory, id)
	r.Equipped = append(r.Equipped, id)
}

// Unequip moves an equipped item back to the inventory.
func (r *PlayerRecord) Unequip(id ItemID) {
	r.Equipped, _ = removeItem(r.Equipped, id)
	r.Inventory = append(r.Inventory, id)
}

// Player is the derived snapshot sent on the wire. All derived fields
// are computed from a PlayerRecord by Registry.PlayerFromRecord so that
// level math always uses a single registry snapshot.
type Player struct {
	Name        string   `json:"name"`
	Lvl         int64    `json:"lvl"`
	Xp          int64    `json:"xp"`
	XpToNextLvl int64    `json:"xp_to_next_lvl"`
	Hp          int64    `json:"hp"`
	MaxHp       int64    `json:"max_hp"`
	Attack      int64    `json:"attack"`
	Defense     int64    `json:"defense"`
	Equipped    []ItemID `json:"equipped,omitempty"`
	Inventory   []ItemID `json:"inventory,omitempty"`
}
