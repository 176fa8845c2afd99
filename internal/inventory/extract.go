package inventory

import (
	"errors"

	"worldinv/internal/nbtree"
)

var (
	ErrMissingID     = errors.New("item has no id")
	ErrMissingCount  = errors.New("item has no count")
	ErrBadCount      = errors.New("item count is not positive")
	ErrMissingDamage = errors.New("item has no damage")
)

// Extractor turns decoded inventories into records and merges every
// stack it produces into its Totals. One Extractor belongs to one
// goroutine.
type Extractor struct {
	rules  *Ruleset
	totals *Totals

	// Dropped counts item nodes skipped for a missing required field.
	Dropped int
	// LastErr is the most recent reason a node was dropped.
	LastErr error
}

// NewExtractor binds rules to an aggregator. A nil totals gets a fresh one.
func NewExtractor(rules *Ruleset, totals *Totals) *Extractor {
	if totals == nil {
		totals = NewTotals(rules.cls)
	}
	return &Extractor{rules: rules, totals: totals}
}

func (e *Extractor) Totals() *Totals { return e.totals }

// Stacks converts item nodes 1:1 in input order. Nodes missing a
// required field are dropped and counted; their siblings still convert.
func (e *Extractor) Stacks(nodes []nbtree.Node) []ItemStack {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]ItemStack, 0, len(nodes))
	for _, n := range nodes {
		s, err := e.stack(n)
		if err != nil {
			e.drop(err)
			continue
		}
		e.totals.Merge(s)
		out = append(out, s)
	}
	return out
}

func (e *Extractor) drop(err error) {
	e.Dropped++
	e.LastErr = err
}

func (e *Extractor) stack(n nbtree.Node) (ItemStack, error) {
	s, err := e.identity(n)
	if err != nil {
		return s, err
	}
	s.Slot = NoSlot
	if slot, ok := n.Field("Slot").Int(); ok {
		s.Slot = int(slot)
	}
	if lore, ok := n.Path("tag", "display", "Lore", 0).String(); ok {
		s.Lore = lore
	}
	return s, nil
}

// identity reads id, count and damage; shared by item nodes and
// equipment tags.
func (e *Extractor) identity(n nbtree.Node) (ItemStack, error) {
	var s ItemStack
	raw, ok := n.Field("id").Text()
	if !ok {
		return s, ErrMissingID
	}
	s.Name = NormalizeName(raw)

	cn, ok := n.Lookup("Count", "count")
	if !ok {
		return s, ErrMissingCount
	}
	count, ok := cn.Int()
	if !ok {
		return s, ErrMissingCount
	}
	if count <= 0 {
		return s, ErrBadCount
	}
	s.Count = int(count)

	dmg, ok := n.Field("Damage").Int()
	if !ok {
		dmg, ok = n.Path("tag", "Damage").Int()
	}
	if !ok && e.rules.requireDamage {
		return s, ErrMissingDamage
	}
	s.Damage = int(dmg)
	return s, nil
}

// Equipment converts a single equipment tag (ArmorItem, SaddleItem) into
// a stack with empty lore and no slot.
func (e *Extractor) Equipment(tag nbtree.Node) (ItemStack, bool) {
	if !tag.IsCompound() {
		return ItemStack{}, false
	}
	s, err := e.identity(tag)
	if err != nil {
		e.drop(err)
		return ItemStack{}, false
	}
	s.Slot = NoSlot
	e.totals.Merge(s)
	return s, true
}
