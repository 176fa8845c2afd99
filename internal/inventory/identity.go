package inventory

import (
	"fmt"
	"math"
	"strings"
)

// Namespace is the prefix stripped from identity strings at ingestion.
const Namespace = "minecraft:"

// NoSlot marks stacks that are not slot-addressed (mount equipment).
const NoSlot = math.MinInt32

// NormalizeName strips the namespace prefix when present.
func NormalizeName(raw string) string {
	return strings.TrimPrefix(raw, Namespace)
}

type ItemStack struct {
	Name   string
	Damage int
	Lore   string
	Slot   int
	Count  int
}

func (s ItemStack) HasSlot() bool { return s.Slot != NoSlot }

// Class selects which identity parts take part in aggregation.
type Class uint8

const (
	// ClassPlain items merge on name, damage and lore.
	ClassPlain Class = iota
	// ClassTool items wear out through use; damage is ignored.
	ClassTool
	// ClassArmor items wear in; damage and lore are ignored.
	ClassArmor
)

func (c Class) String() string {
	switch c {
	case ClassTool:
		return "tool"
	case ClassArmor:
		return "armor"
	default:
		return "plain"
	}
}

// Key is the merge key of an equivalence class.
type Key struct {
	Class  Class
	Name   string
	Damage int
	Lore   string
}

type Classifier struct {
	tools map[string]struct{}
	armor map[string]struct{}
}

// NewClassifier builds a classifier from two disjoint name sets. Names
// may carry the namespace prefix.
func NewClassifier(tools, armor []string) (*Classifier, error) {
	c := &Classifier{
		tools: make(map[string]struct{}, len(tools)),
		armor: make(map[string]struct{}, len(armor)),
	}
	for _, n := range tools {
		c.tools[NormalizeName(n)] = struct{}{}
	}
	for _, n := range armor {
		n = NormalizeName(n)
		if _, dup := c.tools[n]; dup {
			return nil, fmt.Errorf("item %q is both a tool and armor", n)
		}
		c.armor[n] = struct{}{}
	}
	return c, nil
}

// DefaultClassifier uses DefaultTools and DefaultArmor.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultTools(), DefaultArmor())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) Class(name string) Class {
	name = NormalizeName(name)
	if _, ok := c.armor[name]; ok {
		return ClassArmor
	}
	if _, ok := c.tools[name]; ok {
		return ClassTool
	}
	return ClassPlain
}

func (c *Classifier) Key(s ItemStack) Key {
	name := NormalizeName(s.Name)
	k := Key{Class: c.Class(name), Name: name}
	switch k.Class {
	case ClassTool:
		k.Lore = s.Lore
	case ClassPlain:
		k.Damage = s.Damage
		k.Lore = s.Lore
	}
	return k
}

// Equivalent reports whether a and b fall into the same aggregation bucket.
func (c *Classifier) Equivalent(a, b ItemStack) bool {
	return c.Key(a) == c.Key(b)
}

var toolMaterials = []string{"wooden", "stone", "iron", "golden", "diamond", "netherite"}
var armorMaterials = []string{"leather", "chainmail", "iron", "golden", "diamond", "netherite"}

// DefaultTools lists items whose durability state does not split buckets.
func DefaultTools() []string {
	out := make([]string, 0, 48)
	for _, m := range toolMaterials {
		for _, kind := range []string{"sword", "pickaxe", "axe", "shovel", "hoe"} {
			out = append(out, m+"_"+kind)
		}
	}
	return append(out,
		"bow", "crossbow", "trident", "shield", "mace",
		"fishing_rod", "carrot_on_a_stick", "warped_fungus_on_a_stick",
		"flint_and_steel", "shears", "brush",
	)
}

// DefaultArmor lists wearable pieces that collapse into one bucket by name.
func DefaultArmor() []string {
	out := make([]string, 0, 28)
	for _, m := range armorMaterials {
		for _, kind := range []string{"helmet", "chestplate", "leggings", "boots"} {
			out = append(out, m+"_"+kind)
		}
	}
	return append(out, "turtle_helmet", "elytra")
}
