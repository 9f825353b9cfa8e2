package game

import "time"

// FightOutcome is the binary result of a fight.
type FightOutcome string

const (
	FightWon  FightOutcome = "won"
	FightLost FightOutcome = "lost"
)

// FightResult is what the combat resolver returns: who won, what the
// player earned, and how much hp they lost doing it.
type FightResult struct {
	Outcome FightOutcome `json:"outcome"`
	Reward  Reward       `json:"reward"`
	LostHp  int64        `json:"lost_hp"`
}

// FightRecord is an immutable audit snapshot of a resolved fight,
// appended to the fight log and fanned out to observers. It is never
// mutated after creation.
type FightRecord struct {
	Player         string       `json:"player"`
	PlayerPosition Position     `json:"player_position"`
	Enemy          Enemy        `json:"enemy"`
	Outcome        FightOutcome `json:"outcome"`
	Reward         Reward       `json:"reward"`
	LostHp         int64        `json:"lost_hp"`
	Timestamp      time.Time    `json:"timestamp"`
}
