package inventory

import "worldinv/internal/nbtree"

// IsPlayerSave reports whether a decoded save carries the server's
// bukkit.lastPlayed marker. Other files sharing the naming scheme are
// not player saves.
func IsPlayerSave(save nbtree.Node) bool {
	return save.Field("bukkit").Has("lastPlayed")
}

// Player extracts a player's inventory. The id comes from the caller
// (the save file name). It returns false, and leaves the totals
// untouched, for saves without the player marker.
func (e *Extractor) Player(id string, save nbtree.Node) (Record, bool) {
	if !IsPlayerSave(save) {
		return Record{}, false
	}
	return Record{
		Owner:  id,
		Kind:   KindPlayer,
		Pos:    listPos(save.Field("Pos")),
		Stacks: e.Stacks(save.Field("Inventory").List()),
	}, true
}
