// Package coordinator holds the authoritative in-memory game state and
// serializes every state-changing event behind a single lock. All game
// events, the scheduled tick included, funnel through that one
// exclusive region; transports only ever talk to it through Login,
// Logout, ReceiveFrom and the observer registration calls.
package coordinator

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pixil98/go-geoquest/internal/combat"
	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/message"
	"github.com/pixil98/go-geoquest/internal/storage"
	"github.com/pixil98/go-geoquest/internal/world"
)

// FightStore appends fight records for audit.
type FightStore interface {
	Append(game.FightRecord) error
}

// FightPublisher streams fight records to external consumers. Publish
// failures must never fail the game event.
type FightPublisher interface {
	PublishFight(game.FightRecord)
}

// ProviderFactory builds a world provider for a registry snapshot.
// The coordinator swaps registry and provider together atomically.
type ProviderFactory func(registry *game.Registry, ids world.IDSource, anchors world.AnchorFunc) world.Provider

type Coordinator struct {
	mu sync.Mutex

	sessions  map[string]*session
	observers map[string]message.Sink

	registry *game.Registry
	world    world.Provider

	players  storage.Storer[*game.PlayerRecord]
	fights   FightStore
	feed     FightPublisher
	resolver combat.Resolver

	newProvider ProviderFactory
	rng         *rand.Rand
	now         func() time.Time

	nextEnemyID   game.EnemyID
	tickCount     int64
	ticksEnabled  bool
	questDeadline time.Time
}

type Opt func(*Coordinator)

// WithFightPublisher streams every appended fight record to the given
// publisher in addition to the in-process observer fan-out.
func WithFightPublisher(feed FightPublisher) Opt {
	return func(c *Coordinator) {
		c.feed = feed
	}
}

func WithRand(rng *rand.Rand) Opt {
	return func(c *Coordinator) {
		c.rng = rng
	}
}

func WithClock(now func() time.Time) Opt {
	return func(c *Coordinator) {
		c.now = now
	}
}

func WithProviderFactory(f ProviderFactory) Opt {
	return func(c *Coordinator) {
		c.newProvider = f
	}
}

func New(registry *game.Registry, players storage.Storer[*game.PlayerRecord], fights FightStore, resolver combat.Resolver, opts ...Opt) *Coordinator {
	c := &Coordinator{
		sessions:  map[string]*session{},
		observers: map[string]message.Sink{},
		registry:  registry,
		players:   players,
		fights:    fights,
		resolver:  resolver,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		newProvider: func(reg *game.Registry, ids world.IDSource, anchors world.AnchorFunc) world.Provider {
			return world.NewSpawner(reg, ids, anchors, rand.New(rand.NewSource(time.Now().UnixNano())))
		},
		ticksEnabled: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.world = c.newProvider(c.registry, c, c.anchorsLocked)
	c.questDeadline = c.now().Add(c.registry.QuestDuration)

	return c
}

// NextEnemyID allocates an enemy id. Only the world provider calls
// this, and only from inside the coordinator's critical section, so the
// counter needs no lock of its own. Ids are never reused within a
// process lifetime; the counter survives provider replacement.
func (c *Coordinator) NextEnemyID() game.EnemyID {
	c.nextEnemyID++
	return c.nextEnemyID
}

// anchorsLocked feeds the world provider the positions to spawn around.
// Called only while the coordinator lock is held.
func (c *Coordinator) anchorsLocked() []game.Position {
	anchors := make([]game.Position, 0, len(c.sessions))
	for _, sess := range c.sessions {
		anchors = append(anchors, sess.position)
	}
	return anchors
}

// Login authenticates a player and registers a session bound to the
// given sink. It reports failures to the sink and returns false without
// mutating any state. A first-time name creates the player record with
// the supplied password.
func (c *Coordinator) Login(name, password string, pos game.Position, sink message.Sink) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == "" || password == "" || pos.IsZero() {
		sink.Send(message.Error{Text: "null data passed"})
		return false
	}

	record := c.players.Get(name)
	if record == nil {
		record = &game.PlayerRecord{
			Name:     name,
			Password: password,
			Hp:       c.registry.MaxHpForLvl(1),
		}
		if err := c.players.Save(name, record); err != nil {
			slog.Error("creating player record", "player", name, "error", err)
			sink.Send(message.Error{Text: "internal error"})
			return false
		}
	}
	if record.Password != password {
		sink.Send(message.Error{Text: "incorrect password passed"})
		return false
	}
	if _, ok := c.sessions[name]; ok {
		sink.Send(message.Error{Text: "this player is already logged in"})
		return false
	}

	slog.Info("login", "player", name)
	sess := newSession(record, sink, pos)
	c.sessions[name] = sess

	// Full state sync for the new session, presence notice for the rest.
	sink.Send(message.SetConfig{Registry: c.registry})
	c.sendUpdatesForLocked(name)
	c.sendQuestsLocked(sess)
	for otherName, other := range c.sessions {
		if otherName == name {
			continue
		}
		sink.Send(message.PlayerUpdate{
			Player:   c.registry.PlayerFromRecord(other.record),
			Position: other.position,
		})
	}
	if enemies := sess.filterAppear(c.registry, c.world.AllEnemies()); len(enemies) > 0 {
		sink.Send(message.EnemiesAppear{Enemies: enemies})
	}

	return true
}

// Logout removes a session and broadcasts the player's disappearance.
// Unknown names are a no-op, so transport close paths can call it
// unconditionally.
func (c *Coordinator) Logout(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoutLocked(name)
}

func (c *Coordinator) logoutLocked(name string) {
	sess, ok := c.sessions[name]
	if !ok {
		return
	}

	slog.Info("logout", "player", name)
	delete(c.sessions, name)
	sess.sink.Send(message.Disconnect{})

	disappeared := message.PlayerDisappears{Name: name}
	for _, other := range c.sessions {
		other.sink.Send(disappeared)
	}
	for _, obs := range c.observers {
		obs.Send(disappeared)
	}
}

// ReceiveFrom returns the mutation handler for one session. Transports
// dispatch every inbound message through it; each method re-enters the
// coordinator lock, so a handler invocation is one atomic game event.
func (c *Coordinator) ReceiveFrom(name string) message.ServerHandler {
	return &sessionHandler{c: c, name: name}
}

// AddObserver registers a read-only broadcast subscriber and replays
// the current players and enemies to it, unfiltered. Registering an id
// twice means the exclusivity invariant was already broken upstream.
func (c *Coordinator) AddObserver(id string, sink message.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.observers[id]; ok {
		panic("observer already registered: " + id)
	}
	c.observers[id] = sink

	for _, sess := range c.sessions {
		sink.Send(message.PlayerUpdate{
			Player:   c.registry.PlayerFromRecord(sess.record),
			Position: sess.position,
		})
	}
	if enemies := c.world.AllEnemies(); len(enemies) > 0 {
		sink.Send(message.EnemiesAppear{Enemies: enemies})
	}
}

// RemoveObserver drops an observer. Removing an unknown id is a
// programming error, not a user error.
func (c *Coordinator) RemoveObserver(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeObserverLocked(id)
}

func (c *Coordinator) removeObserverLocked(id string) {
	sink, ok := c.observers[id]
	if !ok {
		panic("observer not registered: " + id)
	}
	delete(c.observers, id)
	sink.Send(message.Disconnect{})
}

// SetConfig replaces the registry and the world provider as one atomic
// swap. Existing enemies are retracted under the old registry's id
// space first, so no recipient ever sees a stale-id broadcast, then
// every connected sink gets the new config and all quests are cleared.
func (c *Coordinator) SetConfig(registry *game.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unregisterAllEnemiesLocked()

	c.registry = registry
	c.world = c.newProvider(registry, c, c.anchorsLocked)
	c.questDeadline = c.now().Add(registry.QuestDuration)

	cfg := message.SetConfig{Registry: registry}
	for _, sess := range c.sessions {
		sess.quests = nil
		sess.sink.Send(cfg)
	}
	for _, obs := range c.observers {
		obs.Send(cfg)
	}
}

// Registry returns the current registry snapshot.
func (c *Coordinator) Registry() *game.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}

// SetTicksEnabled gates the scheduled tick at runtime.
func (c *Coordinator) SetTicksEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticksEnabled = enabled
}

// Stop drains all sessions and observers through the regular logout and
// removal paths so the broadcast invariants hold to the very end, then
// unregisters the remaining enemies.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.sessions) > 0 {
		for name := range c.sessions {
			c.logoutLocked(name)
			break
		}
	}
	for len(c.observers) > 0 {
		for id := range c.observers {
			c.removeObserverLocked(id)
			break
		}
	}
	c.unregisterAllEnemiesLocked()
}

// Tick runs the 1-second scheduled cycle. Time-based mechanics fire on
// their configured multiples of the tick counter; a zero delay disables
// a mechanic. The rotating quest deadline clears quest sets here;
// regeneration happens lazily on next access.
func (c *Coordinator) Tick(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ticksEnabled {
		return nil
	}
	c.tickCount++

	if d := c.registry.GiveFreeXpDelay; d > 0 && c.tickCount%d == 0 {
		c.giveFreeXpLocked()
	}
	if d := c.registry.SpawnEnemyDelay; d > 0 && c.tickCount%d == 0 {
		c.spawnEnemiesLocked()
	}
	if d := c.registry.HealDelay; d > 0 && c.tickCount%d == 0 {
		c.healPlayersLocked()
	}

	if c.now().After(c.questDeadline) {
		c.questDeadline = c.now().Add(c.registry.QuestDuration)
		for _, sess := range c.sessions {
			sess.quests = nil
		}
	}

	return nil
}

func (c *Coordinator) giveFreeXpLocked() {
	amount := c.registry.GiveFreeXpAmount
	if amount == 0 {
		return
	}
	for name, sess := range c.sessions {
		sess.record.AddXp(amount)
		c.saveLocked(sess)
		c.sendUpdatesForLocked(name)
	}
}

func (c *Coordinator) spawnEnemiesLocked() {
	for _, e := range c.world.GenerateEnemies() {
		c.registerEnemyLocked(e)
	}
}

// healPlayersLocked heals each online player by a fraction of their
// missing hp plus one, clamped to the missing amount: forward progress
// while wounded, never past full.
func (c *Coordinator) healPlayersLocked() {
	for name, sess := range c.sessions {
		lvl := c.registry.LvlFromXp(sess.record.Xp)
		missing := c.registry.MaxHpForLvl(lvl) - sess.record.Hp
		if missing <= 0 {
			continue
		}
		heal := int64(float64(missing)*c.registry.HealFraction) + 1
		if heal > missing {
			heal = missing
		}
		sess.record.Hp += heal
		c.saveLocked(sess)
		c.sendUpdatesForLocked(name)
	}
}

// registerEnemyLocked adds an enemy to the world and announces it:
// visibility-filtered per player, unfiltered to observers.
func (c *Coordinator) registerEnemyLocked(e game.Enemy) {
	c.world.Register(e)

	for _, sess := range c.sessions {
		if accepted := sess.filterAppear(c.registry, []game.Enemy{e}); len(accepted) > 0 {
			sess.sink.Send(message.EnemiesAppear{Enemies: accepted})
		}
	}
	for _, obs := range c.observers {
		obs.Send(message.EnemiesAppear{Enemies: []game.Enemy{e}})
	}
}

// unregisterEnemyLocked removes an enemy and announces the removal to
// every recipient that knew of it. Removing an unknown id means state
// already diverged, which is not recoverable.
func (c *Coordinator) unregisterEnemyLocked(id game.EnemyID) {
	if !c.world.Unregister(id) {
		panic("unregistering unknown enemy")
	}

	for _, sess := range c.sessions {
		if accepted := sess.filterDisappear([]game.EnemyID{id}); len(accepted) > 0 {
			sess.sink.Send(message.EnemiesDisappear{EnemyIDs: accepted})
		}
	}
	for _, obs := range c.observers {
		obs.Send(message.EnemiesDisappear{EnemyIDs: []game.EnemyID{id}})
	}
}

func (c *Coordinator) unregisterAllEnemiesLocked() {
	for _, e := range c.world.AllEnemies() {
		c.unregisterEnemyLocked(e.ID)
	}
}

// sendUpdatesForLocked performs the full update broadcast for one
// player: their own snapshot to them, a positioned update to everyone
// else and all observers, plus a visibility refresh if they have moved
// beyond the refresh threshold.
func (c *Coordinator) sendUpdatesForLocked(name string) {
	sess, ok := c.sessions[name]
	if !ok {
		panic("sending updates for unknown session: " + name)
	}

	player := c.registry.PlayerFromRecord(sess.record)
	sess.sink.Send(message.MeUpdate{Player: player})

	update := message.PlayerUpdate{Player: player, Position: sess.position}
	for otherName, other := range c.sessions {
		if otherName != name {
			other.sink.Send(update)
		}
	}
	for _, obs := range c.observers {
		obs.Send(update)
	}

	if sess.needsRefresh(c.registry) {
		sess.lastRefresh = sess.position
		if enemies := sess.filterAppear(c.registry, c.world.AllEnemies()); len(enemies) > 0 {
			sess.sink.Send(message.EnemiesAppear{Enemies: enemies})
		}
	}
}

func (c *Coordinator) sendQuestsLocked(sess *session) {
	sess.sink.Send(message.QuestUpdate{
		Deadline: c.questDeadline,
		Quests:   questStatuses(c.questsLocked(sess)),
	})
}

func (c *Coordinator) saveLocked(sess *session) {
	if err := c.players.Save(sess.record.Name, sess.record); err != nil {
		slog.Error("saving player record", "player", sess.record.Name, "error", err)
	}
}
