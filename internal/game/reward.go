package game

// Reward is xp plus item ids. The zero value is the identity: adding it
// changes nothing, and granting it is a no-op.
type Reward struct {
	Xp    int64    `json:"xp"`
	Items []ItemID `json:"items,omitempty"`
}

// Add returns the combination of two rewards.
func (r Reward) Add(other Reward) Reward {
	items := make([]ItemID, 0, len(r.Items)+len(other.Items))
	items = append(items, r.Items...)
	items = append(items, other.Items...)
	if len(items) == 0 {
		items = nil
	}
	return Reward{Xp: r.Xp + other.Xp, Items: items}
}

// IsZero reports whether granting the reward would change nothing.
func (r Reward) IsZero() bool {
	return r.Xp == 0 && len(r.Items) == 0
}
