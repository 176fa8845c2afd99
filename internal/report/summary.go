package report

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"worldinv/internal/inventory"
)

// SummarySchema is the JSON schema of the summary document.
//
//go:embed summary.schema.json
var SummarySchema []byte

// Stats describes one scan run.
type Stats struct {
	RegionFiles    int   `json:"region_files"`
	RegionsFailed  int   `json:"regions_failed"`
	Chunks         int   `json:"chunks"`
	ChunksFailed   int   `json:"chunks_failed"`
	PlayerFiles    int   `json:"player_files"`
	Players        int   `json:"players"`
	PlayersSkipped int   `json:"players_skipped"`
	Records        int   `json:"records"`
	Stacks         int   `json:"stacks"`
	DroppedItems   int   `json:"dropped_items"`
	Items          int64 `json:"items"`
	Interrupted    bool  `json:"interrupted,omitempty"`
}

// Add accumulates the counters of o into st.
func (st *Stats) Add(o Stats) {
	st.RegionFiles += o.RegionFiles
	st.RegionsFailed += o.RegionsFailed
	st.Chunks += o.Chunks
	st.ChunksFailed += o.ChunksFailed
	st.PlayerFiles += o.PlayerFiles
	st.Players += o.Players
	st.PlayersSkipped += o.PlayersSkipped
	st.Records += o.Records
	st.Stacks += o.Stacks
	st.DroppedItems += o.DroppedItems
	st.Items += o.Items
	st.Interrupted = st.Interrupted || o.Interrupted
}

type BucketJSON struct {
	Item   string  `json:"item"`
	Lore   *string `json:"lore"`
	Damage *int    `json:"damage"`
	Count  int64   `json:"count"`
}

type Summary struct {
	World  string       `json:"world"`
	Stats  Stats        `json:"stats"`
	Totals []BucketJSON `json:"totals"`
}

func NewSummary(world string, st Stats, buckets []inventory.Bucket) Summary {
	s := Summary{World: world, Stats: st, Totals: make([]BucketJSON, 0, len(buckets))}
	for _, b := range buckets {
		bj := BucketJSON{Item: b.Name, Count: b.Count}
		if b.HasLore {
			lore := b.Lore
			bj.Lore = &lore
		}
		if b.HasDamage {
			dmg := b.Damage
			bj.Damage = &dmg
		}
		s.Totals = append(s.Totals, bj)
	}
	return s
}

// WriteSummary writes the summary as indented JSON.
func WriteSummary(path string, s Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
