package inventory

import (
	"worldinv/internal/nbtree"
	"worldinv/internal/persistence/region"
)

type Kind string

const (
	KindEntity      Kind = "entity"
	KindBlockEntity Kind = "block_entity"
	KindPlayer      Kind = "player"
)

// Record is one inventory-bearing object and the stacks it holds.
type Record struct {
	Owner     string
	Kind      Kind
	Dimension string
	Pos       [3]float64
	Stacks    []ItemStack
}

// Chunk finds every recognized inventory in a decoded chunk: live entities
// first, then block entities, each in collection order.
func (e *Extractor) Chunk(c region.Chunk) []Record {
	var out []Record
	for _, ent := range c.Entities {
		if r, ok := e.liveEntity(ent); ok {
			out = append(out, r)
		}
	}
	for _, be := range c.TileEntities {
		if r, ok := e.blockEntity(be); ok {
			out = append(out, r)
		}
	}
	return out
}

func (e *Extractor) liveEntity(n nbtree.Node) (Record, bool) {
	raw, ok := n.Field("id").Text()
	if !ok {
		return Record{}, false
	}
	name := NormalizeName(raw)
	if !e.rules.IsContainer(name) && !e.rules.IsMob(name) {
		return Record{}, false
	}
	r := Record{
		Owner: name,
		Kind:  KindEntity,
		Pos:   listPos(n.Field("Pos")),
	}
	r.Stacks = e.Stacks(n.Field(e.rules.itemsFieldFor(name)).List())

	if e.rules.armorMounts.has(name) {
		if s, ok := e.Equipment(n.Field("ArmorItem")); ok {
			r.Stacks = append(r.Stacks, s)
		}
	}
	if e.rules.saddleMounts.has(name) {
		if s, ok := e.Equipment(n.Field("SaddleItem")); ok {
			r.Stacks = append(r.Stacks, s)
		}
	}
	return r, true
}

func (e *Extractor) blockEntity(n nbtree.Node) (Record, bool) {
	raw, ok := n.Field("id").Text()
	if !ok {
		return Record{}, false
	}
	name := NormalizeName(raw)
	if !e.rules.IsContainer(name) {
		return Record{}, false
	}
	r := Record{
		Owner: name,
		Kind:  KindBlockEntity,
		Pos: [3]float64{
			float64(n.Field("x").IntOr(0)),
			float64(n.Field("y").IntOr(0)),
			float64(n.Field("z").IntOr(0)),
		},
	}
	r.Stacks = e.Stacks(n.Field("Items").List())
	return r, true
}

// listPos reads a Pos list of three doubles; anything else is the origin.
func listPos(p nbtree.Node) [3]float64 {
	var pos [3]float64
	if p.Len() < 3 {
		return pos
	}
	for i := range pos {
		if f, ok := p.Index(i).Float(); ok {
			pos[i] = f
		}
	}
	return pos
}
