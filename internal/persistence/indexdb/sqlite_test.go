package indexdb

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"worldinv/internal/inventory"
)

func TestSQLiteIndex_RecordsAndTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	rec := inventory.Record{
		Owner: "chest", Kind: inventory.KindBlockEntity, Dimension: "overworld",
		Pos: [3]float64{4, 70, 9},
		Stacks: []inventory.ItemStack{
			{Name: "stone", Count: 64, Slot: 0},
			{Name: "saddle", Count: 1, Slot: inventory.NoSlot},
		},
	}
	if err := idx.WriteRecord(rec); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if err := idx.WriteRecord(inventory.Record{Owner: "hopper", Kind: inventory.KindBlockEntity}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	buckets := []inventory.Bucket{
		{Name: "stone", HasDamage: true, HasLore: true, Count: 64},
		{Name: "diamond_helmet", Count: 2},
	}
	if err := idx.WriteTotals(buckets); err != nil {
		t.Fatalf("WriteTotals: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.WriteRecord(rec); err == nil {
		t.Fatalf("write after close should fail")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var invs, stacks int
	if err := db.QueryRow(`SELECT COUNT(*) FROM inventories`).Scan(&invs); err != nil {
		t.Fatalf("count inventories: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM stacks`).Scan(&stacks); err != nil {
		t.Fatalf("count stacks: %v", err)
	}
	if invs != 2 || stacks != 2 {
		t.Fatalf("rows: inventories=%d stacks=%d", invs, stacks)
	}

	var slot sql.NullInt64
	if err := db.QueryRow(`SELECT slot FROM stacks WHERE item='saddle'`).Scan(&slot); err != nil {
		t.Fatalf("slot: %v", err)
	}
	if slot.Valid {
		t.Fatalf("equipment slot should be NULL, got %d", slot.Int64)
	}

	var (
		item  string
		lore  sql.NullString
		dmg   sql.NullInt64
		count int64
	)
	if err := db.QueryRow(`SELECT item,lore,damage,count FROM totals WHERE seq=1`).Scan(&item, &lore, &dmg, &count); err != nil {
		t.Fatalf("totals: %v", err)
	}
	if item != "diamond_helmet" || lore.Valid || dmg.Valid || count != 2 {
		t.Fatalf("armor bucket: item=%s lore=%v dmg=%v count=%d", item, lore, dmg, count)
	}
}

func TestSQLiteIndex_ReplacesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	for i := 0; i < 2; i++ {
		idx, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		if err := idx.WriteRecord(inventory.Record{Owner: "chest", Kind: inventory.KindBlockEntity}); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
		if err := idx.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM inventories`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("inventories: got %d want 1", n)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("empty path accepted")
	}
}

func TestSQLiteIndex_PrepareErrorReachesClose(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "bare.db"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	// No schema: preparing the inserts fails inside the writer loop.
	idx := newIndex(db)
	err = idx.Close()
	if err == nil {
		t.Fatalf("Close: expected the prepare error")
	}
	if !strings.Contains(err.Error(), "no such table") {
		t.Fatalf("Close: got %v, want the underlying sqlite error", err)
	}
}
