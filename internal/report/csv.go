package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"worldinv/internal/inventory"
)

var (
	ListingHeader = []string{"Inventory Name", "x", "y", "z", "Item", "Lore", "Data/Damage", "Count", "Slot"}
	TotalsHeader  = []string{"Item", "Lore", "Data/Damage", "World Count"}
)

// FormatCoord renders a coordinate with three significant digits, the
// way %.3g does (64 -> "64", 100.25 -> "100", 1234.5 -> "1.23e+03").
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// ListingRows flattens a record into listing rows, one per stack.
func ListingRows(r inventory.Record) [][]string {
	x, y, z := FormatCoord(r.Pos[0]), FormatCoord(r.Pos[1]), FormatCoord(r.Pos[2])
	rows := make([][]string, 0, len(r.Stacks))
	for _, s := range r.Stacks {
		slot := ""
		if s.HasSlot() {
			slot = strconv.Itoa(s.Slot)
		}
		rows = append(rows, []string{
			r.Owner, x, y, z,
			s.Name, s.Lore,
			strconv.Itoa(s.Damage), strconv.Itoa(s.Count), slot,
		})
	}
	return rows
}

// TotalsRow renders one bucket; parts ignored by its class are empty.
func TotalsRow(b inventory.Bucket) []string {
	lore, dmg := "", ""
	if b.HasLore {
		lore = b.Lore
	}
	if b.HasDamage {
		dmg = strconv.Itoa(b.Damage)
	}
	return []string{b.Name, lore, dmg, strconv.FormatInt(b.Count, 10)}
}

// CSV writes the totals file and, when enabled, the per-inventory listing.
// Headers are written on open so an interrupted run still leaves valid
// files behind.
type CSV struct {
	listingF *os.File
	listing  *csv.Writer
	totalsF  *os.File
	totals   *csv.Writer
}

// OpenCSV creates dir/totalsName and, if listingName is not empty,
// dir/listingName.
func OpenCSV(dir, listingName, totalsName string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	c := &CSV{}
	var err error
	if c.totalsF, c.totals, err = createCSV(filepath.Join(dir, totalsName), TotalsHeader); err != nil {
		return nil, err
	}
	if listingName != "" {
		if c.listingF, c.listing, err = createCSV(filepath.Join(dir, listingName), ListingHeader); err != nil {
			_ = c.totalsF.Close()
			return nil, err
		}
	}
	return c, nil
}

func createCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, w, nil
}

func (c *CSV) WriteRecord(r inventory.Record) error {
	if c.listing == nil {
		return nil
	}
	return c.listing.WriteAll(ListingRows(r))
}

func (c *CSV) WriteTotals(buckets []inventory.Bucket) error {
	for _, b := range buckets {
		if err := c.totals.Write(TotalsRow(b)); err != nil {
			return err
		}
	}
	c.totals.Flush()
	return c.totals.Error()
}

func (c *CSV) Close() error {
	var first error
	for _, p := range []struct {
		w *csv.Writer
		f *os.File
	}{{c.listing, c.listingF}, {c.totals, c.totalsF}} {
		if p.w == nil {
			continue
		}
		p.w.Flush()
		if err := p.w.Error(); err != nil && first == nil {
			first = err
		}
		if err := p.f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
