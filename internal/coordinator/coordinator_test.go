package coordinator

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/message"
)

type memStore struct {
	records map[string]*game.PlayerRecord
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*game.PlayerRecord{}}
}

func (s *memStore) Save(id string, r *game.PlayerRecord) error {
	s.records[id] = r
	return nil
}

func (s *memStore) Get(id string) *game.PlayerRecord {
	return s.records[id]
}

func (s *memStore) GetAll() map[string]*game.PlayerRecord {
	return s.records
}

type memFights struct {
	records []game.FightRecord
}

func (f *memFights) Append(r game.FightRecord) error {
	f.records = append(f.records, r)
	return nil
}

type scriptedResolver struct {
	result game.FightResult
}

func (r scriptedResolver) Resolve(game.Player, game.Enemy) game.FightResult {
	return r.result
}

// recordSink captures everything sent to it, in order.
type recordSink struct {
	mu   sync.Mutex
	msgs []message.ToClient
}

func (s *recordSink) Send(msg message.ToClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordSink) all() []message.ToClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.ToClient{}, s.msgs...)
}

func (s *recordSink) appearancesOf(id game.EnemyID) int {
	count := 0
	for _, msg := range s.all() {
		if appear, ok := msg.(message.EnemiesAppear); ok {
			for _, e := range appear.Enemies {
				if e.ID == id {
					count++
				}
			}
		}
	}
	return count
}

func (s *recordSink) disappearancesOf(id game.EnemyID) int {
	count := 0
	for _, msg := range s.all() {
		if gone, ok := msg.(message.EnemiesDisappear); ok {
			for _, got := range gone.EnemyIDs {
				if got == id {
					count++
				}
			}
		}
	}
	return count
}

func (s *recordSink) lastError() string {
	text := ""
	for _, msg := range s.all() {
		if e, ok := msg.(message.Error); ok {
			text = e.Text
		}
	}
	return text
}

var basePos = game.Position{Latitude: 52.23, Longitude: 21.01}

// nearPos is within fighting range of basePos, farPos is outside
// visibility range.
var (
	nearPos = game.Position{Latitude: 52.2301, Longitude: 21.01}
	farPos  = game.Position{Latitude: 52.5, Longitude: 21.01}
)

func newTestCoordinator(t *testing.T, fights *memFights, result game.FightResult) (*Coordinator, *memStore) {
	t.Helper()
	if fights == nil {
		fights = &memFights{}
	}
	players := newMemStore()
	c := New(game.DefaultRegistry(), players, fights, scriptedResolver{result},
		WithRand(rand.New(rand.NewSource(7))),
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
	return c, players
}

func login(t *testing.T, c *Coordinator, name string) *recordSink {
	t.Helper()
	sink := &recordSink{}
	if !c.Login(name, "secret", basePos, sink) {
		t.Fatalf("login of %q failed: %s", name, sink.lastError())
	}
	return sink
}

func registerEnemy(c *Coordinator, e game.Enemy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerEnemyLocked(e)
}

func TestLoginRejectsSecondSession(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	login(t, c, "alice")

	other := &recordSink{}
	testutil.AssertEqual(t, "second login", c.Login("alice", "secret", basePos, other), false)
	testutil.AssertEqual(t, "error", other.lastError(), "this player is already logged in")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	login(t, c, "alice")
	c.Logout("alice")

	sink := &recordSink{}
	testutil.AssertEqual(t, "login", c.Login("alice", "wrong", basePos, sink), false)
	testutil.AssertEqual(t, "error", sink.lastError(), "incorrect password passed")
}

func TestLoginRejectsMissingData(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})

	sink := &recordSink{}
	testutil.AssertEqual(t, "login", c.Login("alice", "secret", game.Position{}, sink), false)
	testutil.AssertEqual(t, "error", sink.lastError(), "null data passed")
}

func TestLoginCreatesPlayerAndSyncsState(t *testing.T) {
	c, players := newTestCoordinator(t, nil, game.FightResult{})
	sink := login(t, c, "alice")

	record := players.Get("alice")
	if record == nil {
		t.Fatal("expected player record to be created")
	}
	testutil.AssertEqual(t, "password", record.Password, "secret")
	testutil.AssertEqual(t, "hp", record.Hp, int64(100))

	msgs := sink.all()
	if len(msgs) == 0 {
		t.Fatal("expected state sync messages")
	}
	if _, ok := msgs[0].(message.SetConfig); !ok {
		t.Fatalf("expected SetConfig first, got %T", msgs[0])
	}
}

func TestLogoutBroadcastsDisappearance(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	aliceSink := login(t, c, "alice")
	bobSink := login(t, c, "bob")

	c.Logout("alice")

	found := false
	for _, msg := range bobSink.all() {
		if gone, ok := msg.(message.PlayerDisappears); ok && gone.Name == "alice" {
			found = true
		}
	}
	testutil.AssertEqual(t, "bob notified", found, true)

	last := aliceSink.all()[len(aliceSink.all())-1]
	if _, ok := last.(message.Disconnect); !ok {
		t.Fatalf("expected Disconnect sentinel last, got %T", last)
	}

	// Logging out twice is a no-op.
	c.Logout("alice")
}

func TestAttackWinRemovesEnemyAndRecordsFight(t *testing.T) {
	fights := &memFights{}
	result := game.FightResult{
		Outcome: game.FightWon,
		Reward:  game.Reward{Xp: 120},
		LostHp:  30,
	}
	c, players := newTestCoordinator(t, fights, result)
	sink := login(t, c, "alice")

	obs := &recordSink{}
	c.AddObserver("dash", obs)

	enemy := game.Enemy{ID: 900, Type: "rat", Name: "Sewer Rat", Lvl: 1, Position: nearPos}
	registerEnemy(c, enemy)

	c.ReceiveFrom("alice").AttackEnemy(900)

	record := players.Get("alice")
	testutil.AssertEqual(t, "xp", record.Xp, int64(120))
	testutil.AssertEqual(t, "hp", record.Hp, int64(70))

	testutil.AssertEqual(t, "enemy retracted", sink.disappearancesOf(900), 1)
	testutil.AssertEqual(t, "fight records", len(fights.records), 1)
	testutil.AssertEqual(t, "record player", fights.records[0].Player, "alice")
	testutil.AssertEqual(t, "record outcome", fights.records[0].Outcome, game.FightWon)

	dashboards := 0
	for _, msg := range obs.all() {
		if _, ok := msg.(message.FightDashboardInfo); ok {
			dashboards++
		}
	}
	testutil.AssertEqual(t, "observer fan-out", dashboards, 1)

	// The quest matching any-enemy progressed.
	progressed := false
	for _, msg := range sink.all() {
		if update, ok := msg.(message.QuestUpdate); ok {
			for _, q := range update.Quests {
				if q.Progress > 0 {
					progressed = true
				}
			}
		}
	}
	testutil.AssertEqual(t, "quest progressed", progressed, true)
}

func TestAttackRejections(t *testing.T) {
	c, players := newTestCoordinator(t, nil, game.FightResult{Outcome: game.FightWon})
	sink := login(t, c, "alice")

	registerEnemy(c, game.Enemy{ID: 1, Type: "rat", Position: nearPos})
	registerEnemy(c, game.Enemy{ID: 2, Type: "wolf", Position: farPos})

	c.ReceiveFrom("alice").AttackEnemy(999)
	testutil.AssertEqual(t, "unknown enemy", sink.lastError(), "this enemy does not exist")

	c.ReceiveFrom("alice").AttackEnemy(2)
	testutil.AssertEqual(t, "distant enemy", sink.lastError(), "this enemy is too far")

	players.Get("alice").Hp = 0
	c.ReceiveFrom("alice").AttackEnemy(1)
	testutil.AssertEqual(t, "dead player", sink.lastError(), "you are dead")
}

func TestEnemyAppearanceIsIdempotent(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	sink := login(t, c, "alice")

	registerEnemy(c, game.Enemy{ID: 5, Type: "rat", Position: nearPos})

	// A movement beyond the refresh threshold resends the enemy set
	// through the appearance filter; the known enemy must not repeat.
	moved := game.Position{Latitude: basePos.Latitude + 0.02, Longitude: basePos.Longitude}
	handler := c.ReceiveFrom("alice")
	handler.UpdateRealPosition(moved)
	handler.UpdateLookingPosition(moved)

	testutil.AssertEqual(t, "appearances", sink.appearancesOf(5), 1)
}

func TestRealMoveDrivesVisibilityAndBroadcast(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	aliceSink := login(t, c, "alice")
	bobSink := login(t, c, "bob")

	// Out of visibility range at login, so never announced.
	registerEnemy(c, game.Enemy{ID: 77, Type: "wolf", Position: farPos})
	testutil.AssertEqual(t, "before move", aliceSink.appearancesOf(77), 0)

	handler := c.ReceiveFrom("alice")

	// Panning the map view is not a move and reveals nothing.
	handler.UpdateLookingPosition(farPos)
	testutil.AssertEqual(t, "after pan", aliceSink.appearancesOf(77), 0)

	// Walking next to the enemy announces it and repositions alice for
	// everyone else.
	handler.UpdateRealPosition(farPos)
	testutil.AssertEqual(t, "after move", aliceSink.appearancesOf(77), 1)

	moved := false
	for _, msg := range bobSink.all() {
		if update, ok := msg.(message.PlayerUpdate); ok &&
			update.Player.Name == "alice" && update.Position == farPos {
			moved = true
		}
	}
	testutil.AssertEqual(t, "bob sees the move", moved, true)
}

func TestDisappearanceOnlyForKnownEnemies(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	sink := login(t, c, "alice")

	// Out of visibility range: never announced, so its removal must not
	// be announced either.
	registerEnemy(c, game.Enemy{ID: 6, Type: "wolf", Position: farPos})
	testutil.AssertEqual(t, "appearances", sink.appearancesOf(6), 0)

	c.mu.Lock()
	c.unregisterEnemyLocked(6)
	c.mu.Unlock()
	testutil.AssertEqual(t, "disappearances", sink.disappearancesOf(6), 0)
}

func TestHealTickIsMonotonicAndBounded(t *testing.T) {
	registry := game.DefaultRegistry()
	registry.HealDelay = 1
	registry.SpawnEnemyDelay = 0

	players := newMemStore()
	c := New(registry, players, &memFights{}, scriptedResolver{},
		WithRand(rand.New(rand.NewSource(7))),
	)
	login(t, c, "alice")

	record := players.Get("alice")
	record.Hp = 40

	prev := record.Hp
	for i := 0; i < 60; i++ {
		if err := c.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
		if record.Hp < prev {
			t.Fatalf("heal reduced hp from %d to %d", prev, record.Hp)
		}
		if record.Hp > 100 {
			t.Fatalf("heal overshot max hp: %d", record.Hp)
		}
		prev = record.Hp
	}
	testutil.AssertEqual(t, "healed to full", record.Hp, int64(100))
}

func TestTickGating(t *testing.T) {
	registry := game.DefaultRegistry()
	registry.HealDelay = 0
	registry.SpawnEnemyDelay = 0
	registry.GiveFreeXpDelay = 2
	registry.GiveFreeXpAmount = 10

	players := newMemStore()
	c := New(registry, players, &memFights{}, scriptedResolver{},
		WithRand(rand.New(rand.NewSource(7))),
	)
	login(t, c, "alice")
	record := players.Get("alice")

	// Free xp only lands on every second tick.
	_ = c.Tick(context.Background())
	testutil.AssertEqual(t, "xp after tick 1", record.Xp, int64(0))
	_ = c.Tick(context.Background())
	testutil.AssertEqual(t, "xp after tick 2", record.Xp, int64(10))

	// Disabled ticks do nothing at all.
	c.SetTicksEnabled(false)
	_ = c.Tick(context.Background())
	_ = c.Tick(context.Background())
	testutil.AssertEqual(t, "xp while disabled", record.Xp, int64(10))
}

func TestSetConfigRetractsEnemiesBeforeSwap(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	sink := login(t, c, "alice")

	registerEnemy(c, game.Enemy{ID: 7, Type: "rat", Position: nearPos})

	replacement := game.DefaultRegistry()
	replacement.GiveFreeXpAmount = 99
	c.SetConfig(replacement)

	// The disappearance must arrive before the new config.
	gone, cfg := -1, -1
	for i, msg := range sink.all() {
		switch m := msg.(type) {
		case message.EnemiesDisappear:
			for _, id := range m.EnemyIDs {
				if id == 7 {
					gone = i
				}
			}
		case message.SetConfig:
			if m.Registry.GiveFreeXpAmount == 99 {
				cfg = i
			}
		}
	}
	if gone == -1 || cfg == -1 {
		t.Fatalf("missing retraction (%d) or config push (%d)", gone, cfg)
	}
	if gone > cfg {
		t.Fatalf("enemy retraction at %d arrived after config push at %d", gone, cfg)
	}

	testutil.AssertEqual(t, "registry swapped", c.Registry().GiveFreeXpAmount, int64(99))
}

func TestObserverRegistrationInvariants(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	c.AddObserver("dash", &recordSink{})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("duplicate observer id did not panic")
			}
		}()
		c.AddObserver("dash", &recordSink{})
	}()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("removing unknown observer did not panic")
			}
		}()
		c.RemoveObserver("nobody")
	}()
}

func TestObserverReplaySkipsVisibilityFilter(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	login(t, c, "alice")
	registerEnemy(c, game.Enemy{ID: 8, Type: "wolf", Position: farPos})

	obs := &recordSink{}
	c.AddObserver("dash", obs)

	// Observers have no position, so even the distant enemy replays.
	testutil.AssertEqual(t, "replayed enemy", obs.appearancesOf(8), 1)

	players := 0
	for _, msg := range obs.all() {
		if _, ok := msg.(message.PlayerUpdate); ok {
			players++
		}
	}
	testutil.AssertEqual(t, "replayed players", players, 1)
}

func TestQuestRewardGrantedExactlyOnce(t *testing.T) {
	c, players := newTestCoordinator(t, nil, game.FightResult{})
	login(t, c, "alice")
	record := players.Get("alice")

	c.mu.Lock()
	sess := c.sessions["alice"]
	sess.quests = []quest{{
		QuestStatus: game.QuestStatus{
			Description: "defeat 2 rats",
			Goal:        2,
			Reward:      game.Reward{Xp: 500},
		},
		targetType: "rat",
	}}
	c.advanceQuestsLocked(sess, "rat", 0)
	c.advanceQuestsLocked(sess, "rat", 0)
	c.advanceQuestsLocked(sess, "rat", 0)
	c.mu.Unlock()

	testutil.AssertEqual(t, "reward once", record.Xp, int64(500))
	testutil.AssertEqual(t, "progress clamped", sess.quests[0].Progress, int64(2))
}

func TestLevelGainAdvancesLevelQuest(t *testing.T) {
	// 300 xp crosses the lvl 2 threshold in a single fight.
	result := game.FightResult{Outcome: game.FightWon, Reward: game.Reward{Xp: 300}}
	c, players := newTestCoordinator(t, nil, result)
	login(t, c, "alice")
	record := players.Get("alice")

	c.mu.Lock()
	sess := c.sessions["alice"]
	sess.quests = []quest{{
		QuestStatus: game.QuestStatus{
			Description: "gain 1 level",
			Goal:        1,
			Reward:      game.Reward{Xp: 500},
		},
		gainLvl: true,
	}}
	c.mu.Unlock()

	registerEnemy(c, game.Enemy{ID: 11, Type: "rat", Position: nearPos})
	c.ReceiveFrom("alice").AttackEnemy(11)

	c.mu.Lock()
	progress := sess.quests[0].Progress
	finished := sess.quests[0].Finished()
	c.mu.Unlock()
	testutil.AssertEqual(t, "progress", progress, int64(1))
	testutil.AssertEqual(t, "finished", finished, true)
	testutil.AssertEqual(t, "xp with reward", record.Xp, int64(800))

	// The next level gained does not touch the finished quest.
	registerEnemy(c, game.Enemy{ID: 12, Type: "rat", Position: nearPos})
	c.ReceiveFrom("alice").AttackEnemy(12)
	testutil.AssertEqual(t, "xp after second fight", record.Xp, int64(1100))
}

func TestQuestRotationClearsAndRegenerates(t *testing.T) {
	registry := game.DefaultRegistry()
	registry.HealDelay = 0
	registry.SpawnEnemyDelay = 0
	registry.GiveFreeXpDelay = 0

	now := time.Unix(1_700_000_000, 0)
	players := newMemStore()
	c := New(registry, players, &memFights{}, scriptedResolver{},
		WithRand(rand.New(rand.NewSource(7))),
		WithClock(func() time.Time { return now }),
	)
	login(t, c, "alice")

	c.mu.Lock()
	sess := c.sessions["alice"]
	c.advanceQuestsLocked(sess, "rat", 0)
	progressed := int64(0)
	for _, q := range sess.quests {
		progressed += q.Progress
	}
	firstDeadline := c.questDeadline
	c.mu.Unlock()
	if progressed == 0 {
		t.Fatal("expected the advance to progress at least one quest")
	}

	// Before the deadline the set survives the tick intact.
	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	survived := sess.quests != nil
	c.mu.Unlock()
	testutil.AssertEqual(t, "quests survive early tick", survived, true)

	// Past the deadline the tick clears every set and re-derives the
	// deadline; regeneration is lazy and starts from zero progress.
	now = now.Add(registry.QuestDuration + time.Minute)
	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.mu.Lock()
	cleared := sess.quests == nil
	rotated := c.questDeadline.After(firstDeadline)
	fresh := c.questsLocked(sess)
	for i, q := range fresh {
		if q.Progress != 0 {
			c.mu.Unlock()
			t.Fatalf("regenerated quest %d carries progress %d", i, q.Progress)
		}
	}
	c.mu.Unlock()
	testutil.AssertEqual(t, "quests cleared", cleared, true)
	testutil.AssertEqual(t, "deadline rotated", rotated, true)
}

func TestStopDrainsEverySessionAndObserver(t *testing.T) {
	c, _ := newTestCoordinator(t, nil, game.FightResult{})
	aliceSink := login(t, c, "alice")
	obs := &recordSink{}
	c.AddObserver("dash", obs)
	registerEnemy(c, game.Enemy{ID: 9, Type: "rat", Position: nearPos})

	c.Stop()

	for name, sink := range map[string]*recordSink{"session": aliceSink, "observer": obs} {
		disconnected := false
		for _, msg := range sink.all() {
			if _, ok := msg.(message.Disconnect); ok {
				disconnected = true
			}
		}
		testutil.AssertEqual(t, name+" disconnected", disconnected, true)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	testutil.AssertEqual(t, "sessions", len(c.sessions), 0)
	testutil.AssertEqual(t, "observers", len(c.observers), 0)
	testutil.AssertEqual(t, "enemies", c.world.Count(), 0)
}

func TestEquipSwapsSameSlot(t *testing.T) {
	c, players := newTestCoordinator(t, nil, game.FightResult{})
	sink := login(t, c, "alice")
	record := players.Get("alice")
	record.Inventory = []game.ItemID{1, 2}

	handler := c.ReceiveFrom("alice")
	handler.EquipItem(1)
	handler.EquipItem(2)

	testutil.AssertEqual(t, "equipped", len(record.Equipped), 1)
	testutil.AssertEqual(t, "equipped item", record.Equipped[0], game.ItemID(2))
	testutil.AssertEqual(t, "inventory", len(record.Inventory), 1)
	testutil.AssertEqual(t, "inventory item", record.Inventory[0], game.ItemID(1))

	handler.UnequipItem(2)
	testutil.AssertEqual(t, "equipped after unequip", len(record.Equipped), 0)

	handler.UnequipItem(2)
	testutil.AssertEqual(t, "double unequip", sink.lastError(), "this item is not equipped")
}
