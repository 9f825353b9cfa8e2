package coordinator

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-geoquest/internal/game"
)

// quest wraps the wire-visible QuestStatus with the matching data the
// coordinator needs to advance it.
type quest struct {
	game.QuestStatus

	// targetType is the enemy type this quest counts; empty means any
	// enemy counts.
	targetType game.EnemyType

	// gainLvl marks the "gain one level" objective.
	gainLvl bool
}

var templateFuncs = sprig.TxtFuncMap()

var questTemplates = map[string]*template.Template{
	"type":  template.Must(template.New("type").Funcs(templateFuncs).Parse(`Defeat {{ .Goal }} {{ .Name | lower }}{{ if gt .Goal 1 }}s{{ end }}`)),
	"any":   template.Must(template.New("any").Funcs(templateFuncs).Parse(`Defeat {{ .Goal }} enemies of any kind`)),
	"level": template.Must(template.New("level").Funcs(templateFuncs).Parse(`Gain {{ .Goal }} level{{ if gt .Goal 1 }}s{{ end }}`)),
}

func questDescription(kind string, data any) string {
	tmpl := questTemplates[kind]

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Templates are compile-time constants; execution only fails on
		// a data shape mismatch, which is a programming error.
		panic(fmt.Sprintf("expanding quest template %q: %v", kind, err))
	}
	return buf.String()
}

// generateQuests draws a fresh quest set: one enemy-type objective, one
// any-enemy objective and one level objective, with three independently
// randomized rewards shuffled across them. Determinism is not required;
// only the progress and finish invariants are load-bearing.
func (c *Coordinator) generateQuestsLocked() []quest {
	entry := c.registry.SpawnTable[c.rng.Intn(len(c.registry.SpawnTable))]
	typeGoal := int64(5 + c.rng.Intn(6))  // 5-10
	anyGoal := int64(10 + c.rng.Intn(11)) // 10-20

	rewards := []game.Reward{
		{Xp: int64(100+c.rng.Intn(401)) * entry.Lvl},
		{Xp: int64(100 + c.rng.Intn(401))},
	}
	if len(c.registry.Items) > 0 {
		item := c.registry.Items[c.rng.Intn(len(c.registry.Items))]
		rewards = append(rewards, game.Reward{Items: []game.ItemID{item.ID}})
	} else {
		rewards = append(rewards, game.Reward{Xp: int64(100 + c.rng.Intn(401))})
	}
	c.rng.Shuffle(len(rewards), func(i, j int) {
		rewards[i], rewards[j] = rewards[j], rewards[i]
	})

	quests := []quest{
		{
			QuestStatus: game.QuestStatus{
				Description: questDescription("type", struct {
					Goal int64
					Name string
				}{typeGoal, entry.Name}),
				Goal:   typeGoal,
				Reward: rewards[0],
			},
			targetType: entry.Type,
		},
		{
			QuestStatus: game.QuestStatus{
				Description: questDescription("any", struct{ Goal int64 }{anyGoal}),
				Goal:        anyGoal,
				Reward:      rewards[1],
			},
		},
		{
			QuestStatus: game.QuestStatus{
				Description: questDescription("level", struct{ Goal int64 }{1}),
				Goal:        1,
				Reward:      rewards[2],
			},
			gainLvl: true,
		},
	}
	c.rng.Shuffle(len(quests), func(i, j int) {
		quests[i], quests[j] = quests[j], quests[i]
	})

	return quests
}

// questsLocked returns the session's quest set, generating it lazily if
// it was cleared by a rotation or config change.
func (c *Coordinator) questsLocked(sess *session) []quest {
	if sess.quests == nil {
		sess.quests = c.generateQuestsLocked()
	}
	return sess.quests
}

// advanceQuestsLocked applies quest progress after a won fight:
// any-enemy and matching-type quests advance by one, and the level
// objective advances by the number of levels gained. Rewards are
// applied to the player record exactly when a quest first finishes.
// Returns true when anything changed.
func (c *Coordinator) advanceQuestsLocked(sess *session, enemyType game.EnemyType, lvlGained int64) bool {
	changed := false
	quests := c.questsLocked(sess)
	for i := range quests {
		q := &quests[i]

		var delta int64
		switch {
		case q.gainLvl:
			delta = lvlGained
		case q.targetType == "" || q.targetType == enemyType:
			delta = 1
		}
		if delta == 0 || q.Finished() {
			continue
		}

		changed = true
		if q.Advance(delta) {
			sess.record.ApplyReward(q.Reward)
		}
	}
	return changed
}

// questStatuses projects the internal quest set to its wire form.
func questStatuses(quests []quest) []game.QuestStatus {
	statuses := make([]game.QuestStatus, len(quests))
	for i, q := range quests {
		statuses[i] = q.QuestStatus
	}
	return statuses
}
