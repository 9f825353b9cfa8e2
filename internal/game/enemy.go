package game

// EnemyID identifies a live enemy instance. Ids are allocated by the
// coordinator from a monotonically increasing counter and are never
// reused within a process lifetime.
type EnemyID int64

// EnemyType groups enemies for quest matching ("defeat N rats").
type EnemyType string

// Enemy is a spawned enemy instance. Its lifecycle is tied to its
// world-provider registration: it exists from Register until it is
// defeated or the world is regenerated.
type Enemy struct {
	ID       EnemyID   `json:"id"`
	Type     EnemyType `json:"type"`
	Name     string    `json:"name"`
	Lvl      int64     `json:"lvl"`
	Position Position  `json:"position"`
	Loot     []ItemID  `json:"loot,omitempty"`
}
