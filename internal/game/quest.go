package game

// QuestStatus is one quest entry as shown to the player. Progress is
// always within [0, Goal]; a quest with Progress == Goal is finished
// and must never advance again nor re-grant its reward.
type QuestStatus struct {
	Description string `json:"description"`
	Progress    int64  `json:"progress"`
	Goal        int64  `json:"goal"`
	Reward      Reward `json:"reward"`
}

// Advance applies a progress delta, clamped to [0, Goal]. It returns
// true exactly when this call moved the quest from unfinished to
// finished, which is the only moment the reward may be granted.
func (q *QuestStatus) Advance(delta int64) bool {
	if q.Finished() {
		return false
	}
	q.Progress += delta
	if q.Progress < 0 {
		q.Progress = 0
	}
	if q.Progress > q.Goal {
		q.Progress = q.Goal
	}
	return q.Finished()
}

// Finished reports whether the quest goal has been reached.
func (q *QuestStatus) Finished() bool {
	return q.Progress == q.Goal
}
