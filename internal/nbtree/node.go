// Package nbtree wraps a decoded NBT tree (as produced by the go-mc nbt
// decoder into map[string]any) with capability queries, so callers can
// ask whether a field exists and read it with a default instead of
// relying on panics or type assertions spread through the code.
package nbtree

import (
	"math"
	"reflect"
	"strconv"
)

// Node is a read-only view of one decoded tag. The zero Node is "absent":
// every query on it reports missing.
type Node struct {
	v any
}

// Wrap returns a Node for an already decoded value.
func Wrap(v any) Node { return Node{v: v} }

// Compound builds a Node from a compound map. Mostly useful in tests.
func Compound(m map[string]any) Node { return Node{v: m} }

// Valid reports whether the node holds a value.
func (n Node) Valid() bool { return n.v != nil }

// Raw returns the underlying decoded value.
func (n Node) Raw() any { return n.v }

func (n Node) compound() (map[string]any, bool) {
	m, ok := n.v.(map[string]any)
	return m, ok
}

// IsCompound reports whether the node is a compound tag.
func (n Node) IsCompound() bool {
	_, ok := n.compound()
	return ok
}

// Has reports whether the node is a compound carrying the named field.
func (n Node) Has(name string) bool {
	m, ok := n.compound()
	if !ok {
		return false
	}
	_, ok = m[name]
	return ok
}

// Field returns the named child, or the absent Node.
func (n Node) Field(name string) Node {
	m, ok := n.compound()
	if !ok {
		return Node{}
	}
	return Node{v: m[name]}
}

// Lookup returns the first present field among names.
func (n Node) Lookup(names ...string) (Node, bool) {
	for _, name := range names {
		if c := n.Field(name); c.Valid() {
			return c, true
		}
	}
	return Node{}, false
}

// Index returns the i-th element of a list tag, or the absent Node.
func (n Node) Index(i int) Node {
	if i < 0 {
		return Node{}
	}
	switch l := n.v.(type) {
	case []any:
		if i < len(l) {
			return Node{v: l[i]}
		}
		return Node{}
	case nil:
		return Node{}
	}
	rv := reflect.ValueOf(n.v)
	if rv.Kind() != reflect.Slice || i >= rv.Len() {
		return Node{}
	}
	return Node{v: rv.Index(i).Interface()}
}

// Path walks a mix of field names (string) and list indexes (int).
func (n Node) Path(steps ...any) Node {
	cur := n
	for _, s := range steps {
		switch k := s.(type) {
		case string:
			cur = cur.Field(k)
		case int:
			cur = cur.Index(k)
		default:
			return Node{}
		}
		if !cur.Valid() {
			return Node{}
		}
	}
	return cur
}

// Len returns the element count of a list tag, 0 otherwise.
func (n Node) Len() int {
	switch l := n.v.(type) {
	case []any:
		return len(l)
	case nil, string:
		return 0
	}
	rv := reflect.ValueOf(n.v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0
	}
	return rv.Len()
}

// List returns the elements of a list tag. A non-list yields nil.
func (n Node) List() []Node {
	size := n.Len()
	if size == 0 {
		return nil
	}
	out := make([]Node, size)
	for i := range out {
		out[i] = n.Index(i)
	}
	return out
}

// Int reads any integral tag (byte, short, int, long). Floats with an
// integral value are accepted too.
func (n Node) Int() (int64, bool) {
	switch x := n.v.(type) {
	case int8:
		return int64(x), true
	case uint8:
		return int64(int8(x)), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// IntOr reads an integral tag or returns def.
func (n Node) IntOr(def int64) int64 {
	if v, ok := n.Int(); ok {
		return v
	}
	return def
}

// Float reads any numeric tag as float64.
func (n Node) Float() (float64, bool) {
	switch x := n.v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if i, ok := n.Int(); ok {
		return float64(i), true
	}
	return 0, false
}

// String reads a string tag.
func (n Node) String() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

// Text renders scalar tags as text: strings verbatim, integers in decimal.
// Used for identity fields that were historically numeric.
func (n Node) Text() (string, bool) {
	if s, ok := n.String(); ok {
		return s, true
	}
	if i, ok := n.Int(); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}
