package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"worldinv/internal/config"
	"worldinv/internal/inventory"
	"worldinv/internal/persistence/indexdb"
	"worldinv/internal/persistence/region"
	"worldinv/internal/report"
	"worldinv/internal/scan"
)

func main() {
	ctx, cancel := signalContext()
	code := run(ctx, os.Args[1:], os.Stderr)
	cancel()
	os.Exit(code)
}

type options struct {
	world       string
	verbose     bool
	configPath  string
	outDir      string
	workers     int
	jsonlPath   string
	summaryPath string
	dbPath      string
}

var errUsage = errors.New("usage")

// parseArgs accepts flags before and after the world folder.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("worldinv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.verbose, "v", false, "also write the per-stack listing CSV")
	fs.BoolVar(&o.verbose, "verbose", false, "same as -v")
	fs.StringVar(&o.configPath, "config", "", "path to config yaml (optional, see configs/worldinv.yaml); 1.13+ worlds need items.require_damage: false, their items carry no top-level Damage")
	fs.StringVar(&o.outDir, "out", ".", "output directory for the CSV files")
	fs.IntVar(&o.workers, "workers", 0, "parallel scan workers (default: config value, then one per CPU)")
	fs.StringVar(&o.jsonlPath, "jsonl", "", "write records as zstd-compressed JSON lines to this path (optional)")
	fs.StringVar(&o.summaryPath, "summary", "", "write a JSON run summary to this path (optional)")
	fs.StringVar(&o.dbPath, "db", "", "write a SQLite index to this path (optional)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: worldinv [flags] <world folder>")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return o, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	switch {
	case len(positional) == 0:
		fs.Usage()
		return o, fmt.Errorf("%w: missing world folder", errUsage)
	case len(positional) > 1:
		fs.Usage()
		return o, fmt.Errorf("%w: expected one world folder, got %d arguments", errUsage, len(positional))
	}
	if o.workers < 0 {
		return o, fmt.Errorf("%w: -workers must be >= 0", errUsage)
	}
	o.world = positional[0]
	return o, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}

	logger := log.New(stderr, "[worldinv] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Printf("load config: %v", err)
		return 1
	}
	if err := region.CheckWorld(opts.world); err != nil {
		logger.Printf("invalid world folder: %v", err)
		return 1
	}
	rules, err := cfg.Rules().Compile()
	if err != nil {
		logger.Printf("config: %v", err)
		return 1
	}
	workers := opts.workers
	if workers == 0 {
		workers = cfg.Workers
	}

	sink, err := openSinks(opts, cfg)
	if err != nil {
		logger.Printf("open outputs: %v", err)
		return 1
	}

	sc := scan.New(rules, scan.Options{
		Dimensions: cfg.Dimensions,
		Workers:    workers,
		Logger:     logger,
	})
	res, runErr := sc.Run(ctx, opts.world, sink)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close outputs: %w", err)
	}

	if opts.summaryPath != "" && (runErr == nil || res.Stats.Interrupted) {
		var buckets []inventory.Bucket
		if res.Totals != nil {
			buckets = res.Totals.Snapshot()
		}
		if err := report.WriteSummary(opts.summaryPath, report.NewSummary(opts.world, res.Stats, buckets)); err != nil {
			logger.Printf("write summary: %v", err)
			return 1
		}
	}

	switch {
	case res.Stats.Interrupted:
		logger.Printf("interrupted; outputs closed with partial results")
		return 1
	case runErr != nil:
		logger.Printf("scan: %v", runErr)
		return 1
	}
	return 0
}

// openSinks opens the CSV files plus the optional JSONL and SQLite
// outputs. The listing CSV is only written in verbose mode.
func openSinks(opts options, cfg config.Config) (report.Multi, error) {
	listing := ""
	if opts.verbose {
		listing = cfg.Output.Listing
	}
	csvSink, err := report.OpenCSV(opts.outDir, listing, cfg.Output.Totals)
	if err != nil {
		return nil, err
	}
	sinks := report.Multi{csvSink}

	if opts.jsonlPath != "" {
		w, err := report.OpenJSONLZstd(opts.jsonlPath)
		if err != nil {
			_ = sinks.Close()
			return nil, fmt.Errorf("jsonl: %w", err)
		}
		sinks = append(sinks, w)
	}
	if opts.dbPath != "" {
		idx, err := indexdb.OpenSQLite(opts.dbPath)
		if err != nil {
			_ = sinks.Close()
			return nil, fmt.Errorf("sqlite index: %w", err)
		}
		sinks = append(sinks, idx)
	}
	return sinks, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
