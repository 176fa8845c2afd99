package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"worldinv/internal/report"
	"worldinv/internal/worldtest"
)

func TestParseArgs(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		world   string
		verbose bool
		workers int
	}{
		{"positional only", []string{"w"}, "w", false, 0},
		{"flags before", []string{"-v", "-workers", "3", "w"}, "w", true, 3},
		{"flags after", []string{"w", "--verbose", "-workers=2"}, "w", true, 2},
		{"mixed", []string{"-out", "o", "w", "-v"}, "w", true, 0},
	}
	for _, tc := range cases {
		o, err := parseArgs(tc.args, io.Discard)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if o.world != tc.world || o.verbose != tc.verbose || o.workers != tc.workers {
			t.Fatalf("%s: got %+v", tc.name, o)
		}
	}

	if _, err := parseArgs(nil, io.Discard); !errors.Is(err, errUsage) {
		t.Fatalf("missing world: got %v", err)
	}
	if _, err := parseArgs([]string{"a", "b"}, io.Discard); !errors.Is(err, errUsage) {
		t.Fatalf("two worlds: got %v", err)
	}
	if _, err := parseArgs([]string{"--help"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("--help: got %v", err)
	}
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-h"}, &stderr); code != 0 {
		t.Fatalf("exit code: got %d want 0", code)
	}
	if !strings.Contains(stderr.String(), "usage: worldinv") {
		t.Fatalf("usage not printed: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "require_damage") {
		t.Fatalf("usage should explain require_damage for newer worlds: %q", stderr.String())
	}
}

func TestRun_BadWorldPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-world")
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-out", t.TempDir(), missing}, &stderr)
	if code == 0 {
		t.Fatalf("bad path should fail")
	}
	if !strings.Contains(stderr.String(), missing) {
		t.Fatalf("message should name the path: %q", stderr.String())
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}

func TestRun_SampleWorld(t *testing.T) {
	world := worldtest.SampleWorld(t)
	out := t.TempDir()
	summary := filepath.Join(out, "summary.json")
	db := filepath.Join(out, "index.db")
	jsonl := filepath.Join(out, "records.jsonl.zst")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{world, "-v", "-out", out, "-summary", summary, "-db", db, "-jsonl", jsonl}, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}

	listing := readRows(t, filepath.Join(out, "inv_contents.csv"))
	if len(listing) != 11 {
		t.Fatalf("listing rows: got %d want 11 (header + 10 stacks)", len(listing))
	}
	if listing[1][0] != "chest_minecart" || listing[1][1] != "10.5" {
		t.Fatalf("first listing row: %q", listing[1])
	}
	totals := readRows(t, filepath.Join(out, "item_totals.csv"))
	if len(totals) != 9 {
		t.Fatalf("totals rows: got %d want 9", len(totals))
	}

	raw, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var s report.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Stats.Items != 132 || s.Stats.ChunksFailed != 1 || len(s.Totals) != 8 {
		t.Fatalf("summary: %+v", s.Stats)
	}

	conn, err := sql.Open("sqlite", db)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer conn.Close()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM inventories`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 6 {
		t.Fatalf("indexed inventories: got %d want 6", n)
	}
	if _, err := os.Stat(jsonl); err != nil {
		t.Fatalf("jsonl output: %v", err)
	}
}

func TestRun_QuietSkipsListing(t *testing.T) {
	world := worldtest.SampleWorld(t)
	out := t.TempDir()
	if code := run(context.Background(), []string{"-out", out, world}, io.Discard); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if _, err := os.Stat(filepath.Join(out, "inv_contents.csv")); !os.IsNotExist(err) {
		t.Fatalf("listing should only be written with -v")
	}
	if _, err := os.Stat(filepath.Join(out, "item_totals.csv")); err != nil {
		t.Fatalf("totals: %v", err)
	}
}

func TestRun_Interrupted(t *testing.T) {
	world := worldtest.SampleWorld(t)
	out := t.TempDir()
	summary := filepath.Join(out, "summary.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := run(ctx, []string{"-v", "-out", out, "-summary", summary, world}, io.Discard); code != 1 {
		t.Fatalf("exit code: got %d want 1", code)
	}
	// Outputs are closed and parseable; totals were never reached.
	if rows := readRows(t, filepath.Join(out, "item_totals.csv")); len(rows) != 1 {
		t.Fatalf("totals after interrupt: %q", rows)
	}
	readRows(t, filepath.Join(out, "inv_contents.csv"))

	raw, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var s report.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !s.Stats.Interrupted {
		t.Fatalf("summary should be marked interrupted")
	}
}

func TestRun_BadConfig(t *testing.T) {
	world := worldtest.SampleWorld(t)
	cfg := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfg, []byte("workers: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if code := run(context.Background(), []string{"-config", cfg, "-out", t.TempDir(), world}, io.Discard); code != 1 {
		t.Fatalf("exit code: got %d want 1", code)
	}
}
