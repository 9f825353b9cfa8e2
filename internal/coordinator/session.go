package coordinator

import (
	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/message"
)

// session is the in-memory state of one logged-in player. It is owned
// exclusively by the coordinator and only touched under its lock.
type session struct {
	record *game.PlayerRecord
	sink   message.Sink

	position game.Position
	looking  game.Position

	// visible holds the enemy ids already announced to this player,
	// deduplicating appearance events and suppressing disappearance
	// events for enemies the player never learned about.
	visible map[game.EnemyID]bool

	// lastRefresh is the position at the last full visibility refresh.
	lastRefresh game.Position

	// quests is nil when unset; quest sets are regenerated lazily on
	// first access after a rotation or config change.
	quests []quest
}

func newSession(record *game.PlayerRecord, sink message.Sink, pos game.Position) *session {
	return &session{
		record:      record,
		sink:        sink,
		position:    pos,
		lastRefresh: pos,
		visible:     map[game.EnemyID]bool{},
	}
}

// filterAppear narrows an appearance event to the enemies this session
// should actually receive: within visibility range of the player's
// current position and not yet announced. Accepted ids enter the
// visible-set, making delivery idempotent.
func (s *session) filterAppear(registry *game.Registry, enemies []game.Enemy) []game.Enemy {
	var accepted []game.Enemy
	for _, e := range enemies {
		if s.visible[e.ID] {
			continue
		}
		if e.Position.Distance(s.position) > registry.VisibilityMaxDist {
			continue
		}
		s.visible[e.ID] = true
		accepted = append(accepted, e)
	}
	return accepted
}

// filterDisappear narrows a disappearance event to ids this session has
// seen, removing them from the visible-set as they are forwarded.
func (s *session) filterDisappear(ids []game.EnemyID) []game.EnemyID {
	var accepted []game.EnemyID
	for _, id := range ids {
		if !s.visible[id] {
			continue
		}
		delete(s.visible, id)
		accepted = append(accepted, id)
	}
	return accepted
}

// needsRefresh reports whether the player has moved far enough from the
// last full refresh position that edge-of-range enemies may have been
// missed.
func (s *session) needsRefresh(registry *game.Registry) bool {
	return s.position.Distance(s.lastRefresh) > registry.VisibilityRefreshDist
}
