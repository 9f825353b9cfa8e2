package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

// SpawnEntry is one enemy archetype the world provider can spawn.
type SpawnEntry struct {
	Type EnemyType `json:"type"`
	Name string    `json:"name"`
	Lvl  int64     `json:"lvl"`
	Loot []ItemID  `json:"loot,omitempty"`
}

// Registry is an immutable snapshot of all tunable game parameters plus
// derived lookups. It is replaced wholesale on an admin config update;
// an old snapshot stays valid for operations that already captured a
// reference.
type Registry struct {
	// Timer intervals in seconds; 0 disables the mechanic.
	SpawnEnemyDelay int64 `json:"spawn_enemy_delay"`
	GiveFreeXpDelay int64 `json:"give_free_xp_delay"`
	HealDelay       int64 `json:"heal_delay"`

	GiveFreeXpAmount int64   `json:"give_free_xp_amount"`
	HealFraction     float64 `json:"heal_fraction"`

	// Distance thresholds in meters.
	FightingMaxDist       float64 `json:"fighting_max_dist"`
	VisibilityMaxDist     float64 `json:"visibility_max_dist"`
	VisibilityRefreshDist float64 `json:"visibility_refresh_dist"`

	// QuestDuration is how long a quest set lives before it rotates.
	QuestDuration time.Duration `json:"quest_duration"`

	// XpCurve holds the cumulative xp required to reach each level.
	// Index 0 = lvl 1 (0 xp). The table length caps the level.
	XpCurve []int64 `json:"xp_curve"`

	Items      []Item       `json:"items"`
	SpawnTable []SpawnEntry `json:"spawn_table"`
	MaxEnemies int          `json:"max_enemies"`
}

func (r *Registry) Validate() error {
	el := errors.NewErrorList()

	if r.SpawnEnemyDelay < 0 || r.GiveFreeXpDelay < 0 || r.HealDelay < 0 {
		el.Add(fmt.Errorf("timer delays must not be negative"))
	}
	if r.HealFraction < 0 || r.HealFraction > 1 {
		el.Add(fmt.Errorf("heal_fraction must be within [0, 1]"))
	}
	if r.FightingMaxDist <= 0 {
		el.Add(fmt.Errorf("fighting_max_dist must be positive"))
	}
	if r.VisibilityMaxDist <= 0 {
		el.Add(fmt.Errorf("visibility_max_dist must be positive"))
	}
	if r.VisibilityRefreshDist <= 0 {
		el.Add(fmt.Errorf("visibility_refresh_dist must be positive"))
	}
	if r.QuestDuration <= 0 {
		el.Add(fmt.Errorf("quest_duration must be positive"))
	}
	if len(r.XpCurve) == 0 {
		el.Add(fmt.Errorf("xp_curve must not be empty"))
	} else {
		if r.XpCurve[0] != 0 {
			el.Add(fmt.Errorf("xp_curve must start at 0"))
		}
		for i := 1; i < len(r.XpCurve); i++ {
			if r.XpCurve[i] <= r.XpCurve[i-1] {
				el.Add(fmt.Errorf("xp_curve must be strictly increasing at index %d", i))
			}
		}
	}
	if len(r.SpawnTable) == 0 {
		el.Add(fmt.Errorf("spawn_table must not be empty"))
	}
	if r.MaxEnemies < 0 {
		el.Add(fmt.Errorf("max_enemies must not be negative"))
	}

	seen := map[ItemID]bool{}
	for _, item := range r.Items {
		if seen[item.ID] {
			el.Add(fmt.Errorf("duplicate item id %d", item.ID))
		}
		seen[item.ID] = true
	}

	return el.Err()
}

// MaxLvl is the highest reachable level.
func (r *Registry) MaxLvl() int64 {
	return int64(len(r.XpCurve))
}

// LvlFromXp returns the level a player with the given cumulative xp has.
func (r *Registry) LvlFromXp(xp int64) int64 {
	lvl := int64(1)
	for i := 1; i < len(r.XpCurve); i++ {
		if xp < r.XpCurve[i] {
			break
		}
		lvl = int64(i) + 1
	}
	return lvl
}

// XpForLvl returns the cumulative xp required to reach the given level.
func (r *Registry) XpForLvl(lvl int64) int64 {
	if lvl < 1 {
		return 0
	}
	if lvl > r.MaxLvl() {
		lvl = r.MaxLvl()
	}
	return r.XpCurve[lvl-1]
}

// MaxHpForLvl returns the hp pool of a player at the given level.
func (r *Registry) MaxHpForLvl(lvl int64) int64 {
	return 80 + 20*lvl
}

// ItemByID looks an item up in the catalog.
func (r *Registry) ItemByID(id ItemID) (Item, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// PlayerFromRecord derives the wire snapshot of a player from its
// persisted record under this registry's level and item math.
func (r *Registry) PlayerFromRecord(rec *PlayerRecord) Player {
	lvl := r.LvlFromXp(rec.Xp)

	attack := 5 + 2*lvl
	defense := 2 + lvl
	for _, id := range rec.Equipped {
		if item, ok := r.ItemByID(id); ok {
			attack += item.Attack
			defense += item.Defense
		}
	}

	xpToNext := int64(0)
	if lvl < r.MaxLvl() {
		xpToNext = r.XpForLvl(lvl+1) - rec.Xp
	}

	return Player{
		Name:        rec.Name,
		Lvl:         lvl,
		Xp:          rec.Xp,
		XpToNextLvl: xpToNext,
		Hp:          rec.Hp,
		MaxHp:       r.MaxHpForLvl(lvl),
		Attack:      attack,
		Defense:     defense,
		Equipped:    rec.Equipped,
		Inventory:   rec.Inventory,
	}
}

// defaultXpCurve holds the cumulative xp required to reach each level.
// Index 0 = lvl 1 (0 xp), index 1 = lvl 2, etc.
var defaultXpCurve = []int64{
	0,      // Lvl 1
	300,    // Lvl 2
	900,    // Lvl 3
	2700,   // Lvl 4
	6500,   // Lvl 5
	14000,  // Lvl 6
	23000,  // Lvl 7
	34000,  // Lvl 8
	48000,  // Lvl 9
	64000,  // Lvl 10
	85000,  // Lvl 11
	100000, // Lvl 12
	120000, // Lvl 13
	140000, // Lvl 14
	165000, // Lvl 15
	195000, // Lvl 16
	225000, // Lvl 17
	265000, // Lvl 18
	305000, // Lvl 19
	355000, // Lvl 20
}

// DefaultRegistry returns the built-in tuning used when no override is
// configured.
func DefaultRegistry() *Registry {
	return &Registry{
		SpawnEnemyDelay:       30,
		GiveFreeXpDelay:       0,
		HealDelay:             10,
		GiveFreeXpAmount:      0,
		HealFraction:          0.1,
		FightingMaxDist:       50,
		VisibilityMaxDist:     5000,
		VisibilityRefreshDist: 1000,
		QuestDuration:         24 * time.Hour,
		XpCurve:               defaultXpCurve,
		MaxEnemies:            500,
		Items: []Item{
			{ID: 1, Type: ItemTypeWeapon, Name: "Rusty Sword", Attack: 3},
			{ID: 2, Type: ItemTypeWeapon, Name: "Hunting Bow", Attack: 5},
			{ID: 3, Type: ItemTypeWeapon, Name: "Warhammer", Attack: 8},
			{ID: 4, Type: ItemTypeArmor, Name: "Leather Vest", Defense: 3},
			{ID: 5, Type: ItemTypeArmor, Name: "Chainmail", Defense: 6},
			{ID: 6, Type: ItemTypeTrinket, Name: "Lucky Coin", Attack: 1, Defense: 1},
		},
		SpawnTable: []SpawnEntry{
			{Type: "rat", Name: "Sewer Rat", Lvl: 1},
			{Type: "wolf", Name: "Gray Wolf", Lvl: 3, Loot: []ItemID{1}},
			{Type: "bandit", Name: "Highway Bandit", Lvl: 5, Loot: []ItemID{4}},
			{Type: "golem", Name: "Stone Golem", Lvl: 8, Loot: []ItemID{5}},
			{Type: "dragon", Name: "Young Dragon", Lvl: 12, Loot: []ItemID{3, 6}},
		},
	}
}
