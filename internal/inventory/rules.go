package inventory

import (
	"fmt"
	"sort"
)

// Rules lists the object types the locator recognizes and how their
// inventories are laid out. Names may carry the namespace prefix.
type Rules struct {
	// Containers hold items and appear as block entities or live entities.
	// Trapped chests are saved as chest; dyed shulker boxes as shulker_box.
	Containers []string
	// Mobs are live entities that carry an inventory.
	Mobs []string
	// ItemsField entities keep their list under Items instead of Inventory.
	ItemsField []string
	// ArmorMounts carry an ArmorItem tag; SaddleMounts a SaddleItem tag.
	ArmorMounts  []string
	SaddleMounts []string

	Tools []string
	Armor []string

	// RequireDamage drops item nodes without a damage value. When false a
	// missing damage reads as 0.
	RequireDamage bool
}

func DefaultRules() Rules {
	return Rules{
		Containers: []string{
			"chest", "chest_minecart", "hopper_minecart",
			"shulker_box", "furnace", "dispenser", "dropper",
			"brewing_stand", "hopper",
		},
		Mobs:          []string{"villager", "zombie_villager", "horse", "donkey", "mule"},
		ItemsField:    []string{"hopper_minecart", "chest_minecart", "mule", "donkey"},
		ArmorMounts:   []string{"horse"},
		SaddleMounts:  []string{"horse", "mule"},
		Tools:         DefaultTools(),
		Armor:         DefaultArmor(),
		RequireDamage: true,
	}
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[NormalizeName(n)] = struct{}{}
	}
	return s
}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// Ruleset is the compiled, read-only form of Rules. One Ruleset is shared
// by every worker of a scan.
type Ruleset struct {
	containers   nameSet
	mobs         nameSet
	itemsField   nameSet
	armorMounts  nameSet
	saddleMounts nameSet

	cls           *Classifier
	requireDamage bool
}

// Compile validates r and builds the lookup sets.
func (r Rules) Compile() (*Ruleset, error) {
	rs := &Ruleset{
		containers:    newNameSet(r.Containers),
		mobs:          newNameSet(r.Mobs),
		itemsField:    newNameSet(r.ItemsField),
		armorMounts:   newNameSet(r.ArmorMounts),
		saddleMounts:  newNameSet(r.SaddleMounts),
		requireDamage: r.RequireDamage,
	}
	if both := intersect(rs.containers, rs.mobs); len(both) > 0 {
		return nil, fmt.Errorf("types listed as both container and mob: %v", both)
	}
	for name := range rs.armorMounts {
		if !rs.mobs.has(name) {
			return nil, fmt.Errorf("armor mount %q is not a recognized mob", name)
		}
	}
	for name := range rs.saddleMounts {
		if !rs.mobs.has(name) {
			return nil, fmt.Errorf("saddle mount %q is not a recognized mob", name)
		}
	}
	cls, err := NewClassifier(r.Tools, r.Armor)
	if err != nil {
		return nil, err
	}
	rs.cls = cls
	return rs, nil
}

// MustCompile is Compile for static rule sets.
func MustCompile(r Rules) *Ruleset {
	rs, err := r.Compile()
	if err != nil {
		panic(err)
	}
	return rs
}

func intersect(a, b nameSet) []string {
	var out []string
	for n := range a {
		if b.has(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (rs *Ruleset) Classifier() *Classifier { return rs.cls }

func (rs *Ruleset) IsContainer(name string) bool { return rs.containers.has(name) }
func (rs *Ruleset) IsMob(name string) bool       { return rs.mobs.has(name) }

func (rs *Ruleset) itemsFieldFor(name string) string {
	if rs.itemsField.has(name) {
		return "Items"
	}
	return "Inventory"
}
