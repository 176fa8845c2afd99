package report

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"worldinv/internal/inventory"
)

// StackJSON is the JSON form of an item stack.
type StackJSON struct {
	Item   string `json:"item"`
	Lore   string `json:"lore,omitempty"`
	Damage int    `json:"damage"`
	Count  int    `json:"count"`
	Slot   *int   `json:"slot,omitempty"`
}

// RecordJSON is one line of the JSONL record stream.
type RecordJSON struct {
	Owner     string      `json:"owner"`
	Kind      string      `json:"kind"`
	Dimension string      `json:"dimension,omitempty"`
	Pos       [3]float64  `json:"pos"`
	Stacks    []StackJSON `json:"stacks"`
}

func NewRecordJSON(r inventory.Record) RecordJSON {
	out := RecordJSON{
		Owner:     r.Owner,
		Kind:      string(r.Kind),
		Dimension: r.Dimension,
		Pos:       r.Pos,
		Stacks:    make([]StackJSON, 0, len(r.Stacks)),
	}
	for _, s := range r.Stacks {
		sj := StackJSON{Item: s.Name, Lore: s.Lore, Damage: s.Damage, Count: s.Count}
		if s.HasSlot() {
			slot := s.Slot
			sj.Slot = &slot
		}
		out.Stacks = append(out.Stacks, sj)
	}
	return out
}

// JSONLZstdWriter writes one JSON record per line into a zstd stream.
// Totals are not part of the stream; they go to the summary.
type JSONLZstdWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func OpenJSONLZstd(path string) (*JSONLZstdWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONLZstdWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *JSONLZstdWriter) WriteRecord(r inventory.Record) error {
	b, err := json.Marshal(NewRecordJSON(r))
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *JSONLZstdWriter) WriteTotals([]inventory.Bucket) error { return nil }

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err1 error
	if w.w != nil {
		err1 = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if err := w.enc.Close(); err != nil && err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err != nil && err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	return err1
}
