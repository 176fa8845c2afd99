package nbtree

import "testing"

func TestNode_FieldAndPath(t *testing.T) {
	n := Compound(map[string]any{
		"id":    "minecraft:stone",
		"Count": int8(12),
		"tag": map[string]any{
			"display": map[string]any{
				"Lore": []any{"Forged in fire", "second"},
			},
		},
	})

	if !n.Has("id") || n.Has("Slot") {
		t.Fatalf("Has mismatch")
	}
	if s, ok := n.Field("id").String(); !ok || s != "minecraft:stone" {
		t.Fatalf("id: got %q ok=%v", s, ok)
	}
	if c, ok := n.Field("Count").Int(); !ok || c != 12 {
		t.Fatalf("Count: got %d ok=%v", c, ok)
	}
	if s, ok := n.Path("tag", "display", "Lore", 0).String(); !ok || s != "Forged in fire" {
		t.Fatalf("lore: got %q ok=%v", s, ok)
	}
	if n.Path("tag", "display", "Lore", 5).Valid() {
		t.Fatalf("out of range index should be absent")
	}
	if n.Path("tag", "nope", "Lore", 0).Valid() {
		t.Fatalf("missing path should be absent")
	}
	if n.Field("id").Field("x").Valid() {
		t.Fatalf("field of a scalar should be absent")
	}
}

func TestNode_ListVariants(t *testing.T) {
	typed := Wrap([]map[string]any{{"a": int32(1)}, {"a": int32(2)}})
	if typed.Len() != 2 {
		t.Fatalf("len: got %d want 2", typed.Len())
	}
	l := typed.List()
	if v, _ := l[1].Field("a").Int(); v != 2 {
		t.Fatalf("typed slice element: got %d want 2", v)
	}

	pos := Wrap([]float64{1.5, 64, -3.25})
	if f, ok := pos.Index(2).Float(); !ok || f != -3.25 {
		t.Fatalf("pos z: got %v ok=%v", f, ok)
	}
	if Wrap("abc").Len() != 0 {
		t.Fatalf("strings are not lists")
	}
	if Wrap(nil).List() != nil {
		t.Fatalf("absent list should be nil")
	}
}

func TestNode_Numbers(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int8(-106), -106, true},
		{uint8(250), -6, true},
		{int16(300), 300, true},
		{int32(7), 7, true},
		{int64(1 << 40), 1 << 40, true},
		{float64(3), 3, true},
		{float64(3.5), 0, false},
		{"3", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := Wrap(tc.in).Int()
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Int(%#v): got %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if Wrap(nil).IntOr(9) != 9 {
		t.Fatalf("IntOr default")
	}
}

func TestNode_Text(t *testing.T) {
	if s, ok := Wrap(int16(276)).Text(); !ok || s != "276" {
		t.Fatalf("numeric id: got %q ok=%v", s, ok)
	}
	if s, ok := Wrap("minecraft:chest").Text(); !ok || s != "minecraft:chest" {
		t.Fatalf("string id: got %q ok=%v", s, ok)
	}
	if _, ok := Wrap([]any{}).Text(); ok {
		t.Fatalf("list should not render as text")
	}
}

func TestNode_Lookup(t *testing.T) {
	n := Compound(map[string]any{"count": int32(3)})
	c, ok := n.Lookup("Count", "count")
	if !ok {
		t.Fatalf("Lookup missed lowercase field")
	}
	if v, _ := c.Int(); v != 3 {
		t.Fatalf("count: got %d want 3", v)
	}
	if _, ok := n.Lookup("Damage"); ok {
		t.Fatalf("Lookup should report missing")
	}
}
