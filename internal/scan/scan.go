// Package scan drives a world scan: it enumerates region and player
// files, extracts inventories on a pool of workers and hands records and
// totals to a report sink in a deterministic order.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"worldinv/internal/inventory"
	"worldinv/internal/persistence/region"
	"worldinv/internal/report"
)

type Options struct {
	Dimensions []region.Dimension
	// Workers bounds parallel unit processing; <= 0 means one per CPU.
	Workers int
	Logger  *log.Logger
}

type Scanner struct {
	rules  *inventory.Ruleset
	opts   Options
	logger *log.Logger
}

func New(rules *inventory.Ruleset, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if len(opts.Dimensions) == 0 {
		opts.Dimensions = region.DefaultDimensions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scanner{rules: rules, opts: opts, logger: logger}
}

type Result struct {
	Stats  report.Stats
	Totals *inventory.Totals
}

// unit is one region file or one player file.
type unit struct {
	source *region.Source
	player *region.PlayerFile
}

type unitResult struct {
	records  []inventory.Record
	totals   *inventory.Totals
	stats    report.Stats
	warnings []string
	err      error
}

func (r *unitResult) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Run scans worldDir. Records reach sink in discovery order (region files,
// then player files); totals are written once at the end. Unit results are
// consumed in unit order whatever the worker count, so the output does not
// depend on scheduling.
//
// On cancellation Run stops consuming, skips the totals and returns the
// context error with the statistics gathered so far. Records already
// handed to the sink stay there.
func (s *Scanner) Run(ctx context.Context, worldDir string, sink report.Sink) (Result, error) {
	res := Result{Totals: inventory.NewTotals(s.rules.Classifier())}

	if err := region.CheckWorld(worldDir); err != nil {
		return res, err
	}
	units, err := s.units(worldDir)
	if err != nil {
		return res, err
	}
	s.logger.Printf("scanning %s: %d units with %d workers", worldDir, len(units), s.opts.Workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan unitResult, len(units))
	for i := range results {
		results[i] = make(chan unitResult, 1)
	}
	// window bounds the number of results held ahead of the consumer.
	window := make(chan struct{}, s.opts.Workers*4)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		for i := range units {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return
			}
			i := i
			g.Go(func() error {
				results[i] <- s.process(gctx, units[i])
				return nil
			})
		}
	}()

	runErr := s.consume(ctx, units, results, window, sink, &res)
	cancel()
	<-produced
	_ = g.Wait()

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			res.Stats.Interrupted = true
		}
		res.Stats.Items = res.Totals.Sum()
		return res, runErr
	}

	res.Stats.Items = res.Totals.Sum()
	if err := sink.WriteTotals(res.Totals.Snapshot()); err != nil {
		return res, fmt.Errorf("write totals: %w", err)
	}
	st := res.Stats
	s.logger.Printf("scanned %s chunks (%d failed), %d/%d player files; %s inventories, %s items in %s buckets",
		humanize.Comma(int64(st.Chunks)), st.ChunksFailed, st.Players, st.PlayerFiles,
		humanize.Comma(int64(st.Records)), humanize.Comma(st.Items), humanize.Comma(int64(res.Totals.Len())))
	if st.DroppedItems > 0 {
		s.logger.Printf("dropped %s malformed item entries", humanize.Comma(int64(st.DroppedItems)))
	}
	return res, nil
}

func (s *Scanner) consume(ctx context.Context, units []unit, results []chan unitResult, window chan struct{}, sink report.Sink, res *Result) error {
	for i := range units {
		var ur unitResult
		select {
		case ur = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
		<-window

		for _, w := range ur.warnings {
			s.logger.Printf("warn: %s", w)
		}
		if ur.err != nil {
			return ur.err
		}
		for _, r := range ur.records {
			if err := sink.WriteRecord(r); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		res.Totals.MergeTotals(ur.totals)
		res.Stats.Add(ur.stats)
	}
	return nil
}

func (s *Scanner) units(worldDir string) ([]unit, error) {
	srcs, err := region.RegionFiles(worldDir, s.opts.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("list region files: %w", err)
	}
	players, err := region.PlayerFiles(worldDir)
	if err != nil {
		return nil, fmt.Errorf("list player files: %w", err)
	}
	out := make([]unit, 0, len(srcs)+len(players))
	for i := range srcs {
		out = append(out, unit{source: &srcs[i]})
	}
	for i := range players {
		out = append(out, unit{player: &players[i]})
	}
	return out, nil
}

func (s *Scanner) process(ctx context.Context, u unit) unitResult {
	ur := unitResult{totals: inventory.NewTotals(s.rules.Classifier())}
	if err := ctx.Err(); err != nil {
		ur.err = err
		return ur
	}
	ex := inventory.NewExtractor(s.rules, ur.totals)
	var name string
	if u.source != nil {
		name = u.source.Path
		s.scanRegion(ctx, ex, *u.source, &ur)
	} else {
		name = u.player.Path
		s.scanPlayer(ex, *u.player, &ur)
	}
	ur.stats.DroppedItems = ex.Dropped
	if ex.Dropped > 0 {
		ur.warn("%s: dropped %d item entries (last: %v)", name, ex.Dropped, ex.LastErr)
	}
	return ur
}

func (ur *unitResult) add(r inventory.Record) {
	ur.records = append(ur.records, r)
	ur.stats.Records++
	ur.stats.Stacks += len(r.Stacks)
}

func (s *Scanner) scanRegion(ctx context.Context, ex *inventory.Extractor, src region.Source, ur *unitResult) {
	ur.stats.RegionFiles = 1
	f, err := region.Open(src.Path)
	if err != nil {
		ur.stats.RegionsFailed = 1
		ur.warn("%v", err)
		return
	}
	defer f.Close()

	err = f.Chunks(ctx, func(c region.Chunk, err error) error {
		ur.stats.Chunks++
		if err != nil {
			ur.stats.ChunksFailed++
			ur.warn("%v", err)
			return nil
		}
		for _, r := range ex.Chunk(c) {
			r.Dimension = src.Dimension
			ur.add(r)
		}
		return nil
	})
	if err != nil {
		ur.err = err
	}
}

func (s *Scanner) scanPlayer(ex *inventory.Extractor, pf region.PlayerFile, ur *unitResult) {
	ur.stats.PlayerFiles = 1
	save, err := region.ReadPlayer(pf.Path)
	if err != nil {
		ur.stats.PlayersSkipped = 1
		ur.warn("player %s: %v", pf.ID, err)
		return
	}
	r, ok := ex.Player(pf.ID, save)
	if !ok {
		ur.stats.PlayersSkipped = 1
		return
	}
	r.Dimension = playerDimension(save.Field("Dimension").Text())
	ur.stats.Players = 1
	ur.add(r)
}

// playerDimension maps both the numeric and the namespaced dimension
// encodings onto the dimension names used for region folders.
func playerDimension(raw string, ok bool) string {
	if !ok {
		return ""
	}
	switch inventory.NormalizeName(raw) {
	case "0", "overworld":
		return "overworld"
	case "-1", "the_nether":
		return "nether"
	case "1", "the_end":
		return "end"
	}
	return inventory.NormalizeName(raw)
}
