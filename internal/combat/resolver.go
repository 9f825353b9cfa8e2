// Package combat resolves fights between a player snapshot and an
// enemy. Resolution is a pure function of its inputs; the resolver
// holds no shared state.
package combat

import "github.com/pixil98/go-geoquest/internal/game"

// Resolver turns a player snapshot and an enemy into a fight result.
type Resolver interface {
	Resolve(player game.Player, enemy game.Enemy) game.FightResult
}

// Simulator resolves fights by trading blows until one side drops.
// The player always strikes first.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

// Enemy combat stats are derived from level.
func enemyAttack(lvl int64) int64 { return 4 + 3*lvl }

func enemyDefense(lvl int64) int64 { return lvl }

func enemyHp(lvl int64) int64 { return 30 + 15*lvl }

// BaseXpForLvl is the xp reward for defeating an enemy of the given level.
func BaseXpForLvl(lvl int64) int64 {
	if lvl < 1 {
		lvl = 1
	}
	return 50 + lvl*lvl*10
}

func (s *Simulator) Resolve(player game.Player, enemy game.Enemy) game.FightResult {
	playerBlow := player.Attack - enemyDefense(enemy.Lvl)
	if playerBlow < 1 {
		playerBlow = 1
	}
	enemyBlow := enemyAttack(enemy.Lvl) - player.Defense
	if enemyBlow < 1 {
		enemyBlow = 1
	}

	playerHp := player.Hp
	targetHp := enemyHp(enemy.Lvl)

	for playerHp > 0 {
		targetHp -= playerBlow
		if targetHp <= 0 {
			return game.FightResult{
				Outcome: game.FightWon,
				Reward:  game.Reward{Xp: BaseXpForLvl(enemy.Lvl), Items: enemy.Loot},
				LostHp:  player.Hp - playerHp,
			}
		}
		playerHp -= enemyBlow
	}

	// A loss costs everything the player brought and earns nothing.
	return game.FightResult{
		Outcome: game.FightLost,
		LostHp:  player.Hp,
	}
}
