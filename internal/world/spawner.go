// Package world owns live enemy instances and produces new ones from
// the registry spawn table.
package world

import (
	"math"
	"math/rand"

	"github.com/pixil98/go-geoquest/internal/game"
)

// IDSource allocates enemy ids. The coordinator owns the allocator so
// ids keep increasing across provider replacements and are never reused
// within a process lifetime.
type IDSource interface {
	NextEnemyID() game.EnemyID
}

// AnchorFunc supplies the positions new enemies should spawn around,
// typically the current player positions.
type AnchorFunc func() []game.Position

// Provider owns enemy instances keyed by id. A provider is built for
// one registry snapshot and replaced together with it.
type Provider interface {
	GenerateEnemies() []game.Enemy
	AllEnemies() []game.Enemy
	Register(e game.Enemy)
	Unregister(id game.EnemyID) bool
	Get(id game.EnemyID) (game.Enemy, bool)
	Count() int
}

// Spawner is the default Provider: it scatters enemies from the spawn
// table around anchor positions.
type Spawner struct {
	registry *game.Registry
	ids      IDSource
	anchors  AnchorFunc
	rng      *rand.Rand

	enemies map[game.EnemyID]game.Enemy
}

// spawnPerAnchor is how many enemies one generation cycle places around
// each anchor position.
const spawnPerAnchor = 3

// spawnScatterMeters is the radius around an anchor in which enemies land.
const spawnScatterMeters = 2000

func NewSpawner(registry *game.Registry, ids IDSource, anchors AnchorFunc, rng *rand.Rand) *Spawner {
	return &Spawner{
		registry: registry,
		ids:      ids,
		anchors:  anchors,
		rng:      rng,
		enemies:  map[game.EnemyID]game.Enemy{},
	}
}

// GenerateEnemies produces new enemies around the current anchors, up
// to the registry cap. The enemies are returned unregistered; the
// caller registers each one as it is announced.
func (s *Spawner) GenerateEnemies() []game.Enemy {
	var spawned []game.Enemy
	budget := s.registry.MaxEnemies - len(s.enemies)

	for _, anchor := range s.anchors() {
		for i := 0; i < spawnPerAnchor; i++ {
			if len(spawned) >= budget {
				return spawned
			}
			entry := s.registry.SpawnTable[s.rng.Intn(len(s.registry.SpawnTable))]
			spawned = append(spawned, game.Enemy{
				ID:       s.ids.NextEnemyID(),
				Type:     entry.Type,
				Name:     entry.Name,
				Lvl:      entry.Lvl,
				Position: s.scatter(anchor),
				Loot:     entry.Loot,
			})
		}
	}

	return spawned
}

// scatter offsets a position by up to spawnScatterMeters in a random
// direction.
func (s *Spawner) scatter(p game.Position) game.Position {
	dist := s.rng.Float64() * spawnScatterMeters
	angle := s.rng.Float64() * 2 * math.Pi

	// Meters per degree of latitude is near constant; longitude shrinks
	// with the cosine of the latitude.
	dLat := dist * math.Cos(angle) / 111111
	dLng := dist * math.Sin(angle) / (111111 * math.Cos(p.Latitude*math.Pi/180))

	return game.Position{Latitude: p.Latitude + dLat, Longitude: p.Longitude + dLng}
}

func (s *Spawner) AllEnemies() []game.Enemy {
	all := make([]game.Enemy, 0, len(s.enemies))
	for _, e := range s.enemies {
		all = append(all, e)
	}
	return all
}

func (s *Spawner) Register(e game.Enemy) {
	s.enemies[e.ID] = e
}

func (s *Spawner) Unregister(id game.EnemyID) bool {
	if _, ok := s.enemies[id]; !ok {
		return false
	}
	delete(s.enemies, id)
	return true
}

func (s *Spawner) Get(id game.EnemyID) (game.Enemy, bool) {
	e, ok := s.enemies[id]
	return e, ok
}

func (s *Spawner) Count() int {
	return len(s.enemies)
}
