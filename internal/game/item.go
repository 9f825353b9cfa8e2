package game

// ItemID identifies an item in the registry catalog.
type ItemID int64

// ItemType determines which slot an item occupies when equipped.
// A player can have at most one item of each type equipped.
type ItemType string

const (
	ItemTypeWeapon  ItemType = "weapon"
	ItemTypeArmor   ItemType = "armor"
	ItemTypeTrinket ItemType = "trinket"
)

// Item is a catalog entry. Players reference items by id only; the
// catalog lives in the Registry.
type Item struct {
	ID      ItemID   `json:"id"`
	Type    ItemType `json:"type"`
	Name    string   `json:"name"`
	Attack  int64    `json:"attack"`
	Defense int64    `json:"defense"`
}

// containsItem reports whether id is present in ids.
func containsItem(ids []ItemID, id ItemID) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

// removeItem removes the first occurrence of id from ids.
// Returns the shortened slice and whether a removal happened.
func removeItem(ids []ItemID, id ItemID) ([]ItemID, bool) {
	for n, i := range ids {
		if i == id {
			return append(ids[:n], ids[n+1:]...), true
		}
	}
	return ids, false
}
