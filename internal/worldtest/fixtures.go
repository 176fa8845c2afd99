// Package worldtest writes small on-disk world folders (region files and
// player saves) for tests. Documents are plain structs with nbt tags so
// the encoded tag types match what the game writes.
package worldtest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	mcregion "github.com/Tnze/go-mc/save/region"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

type Item struct {
	ID     string `nbt:"id"`
	Count  int8   `nbt:"Count"`
	Damage int16  `nbt:"Damage"`
	Slot   int8   `nbt:"Slot"`
}

type LoreItem struct {
	ID     string  `nbt:"id"`
	Count  int8    `nbt:"Count"`
	Damage int16   `nbt:"Damage"`
	Slot   int8    `nbt:"Slot"`
	Tag    ItemTag `nbt:"tag"`
}

type ItemTag struct {
	Display Display `nbt:"display"`
}

type Display struct {
	Lore []string `nbt:"Lore"`
}

// Equipment is an ArmorItem/SaddleItem tag; it never has a slot.
type Equipment struct {
	ID     string `nbt:"id"`
	Count  int8   `nbt:"Count"`
	Damage int16  `nbt:"Damage"`
}

type TileEntity struct {
	ID    string `nbt:"id"`
	X     int32  `nbt:"x"`
	Y     int32  `nbt:"y"`
	Z     int32  `nbt:"z"`
	Items []Item `nbt:"Items"`
}

type Cart struct {
	ID    string    `nbt:"id"`
	Pos   []float64 `nbt:"Pos"`
	Items []Item    `nbt:"Items"`
}

type Villager struct {
	ID        string    `nbt:"id"`
	Pos       []float64 `nbt:"Pos"`
	Inventory []Item    `nbt:"Inventory"`
}

type Horse struct {
	ID         string    `nbt:"id"`
	Pos        []float64 `nbt:"Pos"`
	ArmorItem  Equipment `nbt:"ArmorItem"`
	SaddleItem Equipment `nbt:"SaddleItem"`
}

type Mob struct {
	ID  string    `nbt:"id"`
	Pos []float64 `nbt:"Pos"`
}

// LegacyChunk is the pre-1.18 layout with everything under Level.
type LegacyChunk struct {
	Level LegacyLevel `nbt:"Level"`
}

type LegacyLevel struct {
	XPos         int32        `nbt:"xPos"`
	ZPos         int32        `nbt:"zPos"`
	Entities     []Cart       `nbt:"Entities"`
	TileEntities []TileEntity `nbt:"TileEntities"`
}

// ModernChunk is the 1.18 layout; entities live in separate files.
type ModernChunk struct {
	XPos          int32        `nbt:"xPos"`
	ZPos          int32        `nbt:"zPos"`
	BlockEntities []TileEntity `nbt:"block_entities"`
}

// EntityChunk is a chunk of an entities/ region file holding mounts.
type EntityChunk struct {
	Position []int32 `nbt:"Position"`
	Entities []Horse `nbt:"Entities"`
}

type Player struct {
	Dimension string    `nbt:"Dimension"`
	Pos       []float64 `nbt:"Pos"`
	Inventory []Item    `nbt:"Inventory"`
	Bukkit    Bukkit    `nbt:"bukkit"`
}

type Bukkit struct {
	LastPlayed int64 `nbt:"lastPlayed"`
}

// LegacyPlayer has no bukkit marker.
type LegacyPlayer struct {
	Pos       []float64 `nbt:"Pos"`
	Inventory []Item    `nbt:"Inventory"`
}

// EncodeNBT encodes v as an unnamed root compound.
func EncodeNBT(t testing.TB, v any) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(v, ""); err != nil {
		t.Fatalf("nbt encode: %v", err)
	}
	return buf.Bytes()
}

// ChunkPayload returns a sector payload: compression byte then data.
func ChunkPayload(t testing.TB, compression byte, v any) []byte {
	t.Helper()
	raw := EncodeNBT(t, v)
	var buf bytes.Buffer
	buf.WriteByte(compression)
	switch compression {
	case 1:
		zw := gzip.NewWriter(&buf)
		mustWrite(t, zw, raw)
		if err := zw.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}
	case 2:
		zw := zlib.NewWriter(&buf)
		mustWrite(t, zw, raw)
		if err := zw.Close(); err != nil {
			t.Fatalf("zlib close: %v", err)
		}
	default:
		buf.Write(raw)
	}
	return buf.Bytes()
}

func mustWrite(t testing.TB, w interface{ Write([]byte) (int, error) }, b []byte) {
	t.Helper()
	if _, err := w.Write(b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// ChunkAt places a document at local chunk coordinates in a region file.
type ChunkAt struct {
	X, Z int
	Doc  any
	// Raw, when set, is written as the sector payload instead of Doc.
	Raw []byte
}

// WriteRegion creates a region file holding the given chunks (zlib).
func WriteRegion(t testing.TB, path string, chunks ...ChunkAt) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r, err := mcregion.Create(path)
	if err != nil {
		t.Fatalf("region create: %v", err)
	}
	for _, c := range chunks {
		data := c.Raw
		if data == nil {
			data = ChunkPayload(t, 2, c.Doc)
		}
		if err := r.WriteSector(c.X, c.Z, data); err != nil {
			t.Fatalf("write sector (%d,%d): %v", c.X, c.Z, err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("region close: %v", err)
	}
}

// WritePlayer writes a gzip-compressed player save.
func WritePlayer(t testing.TB, path string, v any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	mustWrite(t, zw, EncodeNBT(t, v))
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write player: %v", err)
	}
}

// SampleWorld lays out a small world used by scan and CLI tests:
//   - overworld region r.0.0 with a chest, a chest minecart and a corrupt chunk
//   - overworld entities r.0.0 with a horse carrying armor and saddle
//   - nether region r.-1.0 in the 1.18 layout with a hopper
//   - two player saves, one without the bukkit marker
func SampleWorld(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()

	WriteRegion(t, filepath.Join(dir, "region", "r.0.0.mca"),
		ChunkAt{X: 0, Z: 0, Doc: LegacyChunk{Level: LegacyLevel{
			Entities: []Cart{{
				ID:    "minecraft:chest_minecart",
				Pos:   []float64{10.5, 64, -3.25},
				Items: []Item{{ID: "minecraft:rail", Count: 32, Slot: 0}},
			}},
			TileEntities: []TileEntity{{
				ID: "minecraft:chest", X: 4, Y: 70, Z: 9,
				Items: []Item{
					{ID: "minecraft:stone", Count: 64, Slot: 0},
					{ID: "minecraft:torch", Count: 16, Slot: 1},
					{ID: "minecraft:iron_sword", Count: 1, Damage: 5, Slot: 2},
				},
			}},
		}}},
		ChunkAt{X: 1, Z: 0, Raw: []byte{2, 0xde, 0xad, 0xbe, 0xef}},
		ChunkAt{X: 2, Z: 0, Doc: LegacyChunk{Level: LegacyLevel{
			XPos: 2,
			TileEntities: []TileEntity{{
				ID: "minecraft:furnace", X: 33, Y: 64, Z: 2,
				Items: []Item{{ID: "minecraft:stone", Count: 8, Slot: 2}},
			}},
		}}},
	)
	WriteRegion(t, filepath.Join(dir, "entities", "r.0.0.mca"),
		ChunkAt{X: 0, Z: 0, Doc: EntityChunk{
			Position: []int32{0, 0},
			Entities: []Horse{{
				ID:         "minecraft:horse",
				Pos:        []float64{1, 65, 1},
				ArmorItem:  Equipment{ID: "minecraft:diamond_horse_armor", Count: 1},
				SaddleItem: Equipment{ID: "minecraft:saddle", Count: 1},
			}},
		}},
	)
	WriteRegion(t, filepath.Join(dir, "DIM-1", "region", "r.-1.0.mca"),
		ChunkAt{X: 31, Z: 0, Doc: ModernChunk{
			XPos: -1,
			BlockEntities: []TileEntity{{
				ID: "minecraft:hopper", X: -1, Y: 40, Z: 0,
				Items: []Item{{ID: "minecraft:quartz", Count: 5, Slot: 0}},
			}},
		}},
	)

	WritePlayer(t, filepath.Join(dir, "playerdata", "0f8fad5b-d9cb-469f-a165-70867728950e.dat"), Player{
		Dimension: "minecraft:overworld",
		Pos:       []float64{100.25, 70, -200.5},
		Inventory: []Item{{ID: "minecraft:stone", Count: 3, Slot: 0}, {ID: "minecraft:diamond_helmet", Count: 1, Damage: 3, Slot: 103}},
		Bukkit:    Bukkit{LastPlayed: 1700000000000},
	})
	WritePlayer(t, filepath.Join(dir, "playerdata", "7c9e6679-7425-40de-944b-e07fc1f90ae7.dat"), LegacyPlayer{
		Pos:       []float64{1, 2, 3},
		Inventory: []Item{{ID: "minecraft:stone", Count: 50, Slot: 0}},
	})
	return dir
}
