package inventory

// Bucket is one row of the world totals.
type Bucket struct {
	Name      string
	Damage    int
	HasDamage bool
	Lore      string
	HasLore   bool
	Count     int64
}

// Totals is the world aggregator: item class -> running count, kept in
// first-inserted order. It is not safe for concurrent use; parallel scans
// keep one Totals per worker and reduce them with MergeTotals.
type Totals struct {
	cls     *Classifier
	index   map[Key]int
	buckets []Bucket
	sum     int64
}

func NewTotals(cls *Classifier) *Totals {
	if cls == nil {
		cls = DefaultClassifier()
	}
	return &Totals{
		cls:   cls,
		index: make(map[Key]int, 256),
	}
}

func (t *Totals) Classifier() *Classifier { return t.cls }

// Merge adds one stack to its bucket, inserting the bucket on first sight.
func (t *Totals) Merge(s ItemStack) {
	t.add(t.cls.Key(s), int64(s.Count))
}

func (t *Totals) add(k Key, n int64) {
	t.sum += n
	if i, ok := t.index[k]; ok {
		t.buckets[i].Count += n
		return
	}
	t.index[k] = len(t.buckets)
	t.buckets = append(t.buckets, Bucket{
		Name:      k.Name,
		Damage:    k.Damage,
		HasDamage: k.Class == ClassPlain,
		Lore:      k.Lore,
		HasLore:   k.Class != ClassArmor,
		Count:     n,
	})
}

// MergeTotals folds o into t, visiting o's buckets in their insertion
// order. Both must share the same classification.
func (t *Totals) MergeTotals(o *Totals) {
	if o == nil {
		return
	}
	for _, b := range o.buckets {
		t.add(bucketKey(b), b.Count)
	}
}

func bucketKey(b Bucket) Key {
	k := Key{Name: b.Name, Damage: b.Damage, Lore: b.Lore}
	switch {
	case !b.HasLore:
		k.Class = ClassArmor
	case !b.HasDamage:
		k.Class = ClassTool
	default:
		k.Class = ClassPlain
	}
	return k
}

// Snapshot returns a copy of the buckets in first-inserted order.
func (t *Totals) Snapshot() []Bucket {
	out := make([]Bucket, len(t.buckets))
	copy(out, t.buckets)
	return out
}

// Len is the number of buckets.
func (t *Totals) Len() int { return len(t.buckets) }

// Sum is the total item count across all buckets.
func (t *Totals) Sum() int64 { return t.sum }
