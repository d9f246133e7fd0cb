// Command streamann runs the streaming sparse-vector near-duplicate
// detector over a record source, emitting one result per input record to a
// sink.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"streamann/internal/config"
	"streamann/internal/errlog"
	"streamann/internal/record"
	"streamann/internal/stream"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "-h", "--help":
			printUsage()
			return
		case "run":
			runDetector(os.Args[2:])
			return
		}
	}
	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`Usage:
  streamann run --input <records.csv> [options]

Options:
  --input <path>           CSV record source (header: dimensions,weights)
  --input-sqlite <path>    SQLite record source instead of --input
                            (table "records" with columns dimensions, weights)
  --output <path>          CSV result sink (default: results.csv)
  --output-sqlite <path>   SQLite result sink instead of --output
  --threshold <float>      Distance threshold, match if distance < threshold
  --window <int>           Sliding window size W
  --query-size <int>       First-K dims used for candidate blocking
  --voc-size <int>         Vocabulary size (max dim id + 1)
  --limit <int>            Stop after N records (0 = unlimited)
  --workers <int>          Worker pool size for candidate scoring (0 = adaptive)
  --log-max-size-mb <int>  Error log rotation threshold in MB (default: 100)
  --log-max-backups <int>  Compressed error log archives to retain (default: 5)
  --config <path>          Tunables config file (default: ./data/config.json)
  --datadir <path>         Directory holding the config file (default: ./data)

streamann help              Show this help information`)
}

func runDetector(args []string) {
	opts, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	mgr := config.NewManager(opts.configPath)
	if err := mgr.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "error: load config:", err)
		os.Exit(1)
	}
	mgr.ApplyOverrides(opts.overrides)
	cfg := mgr.Get()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid tunables:", err)
		os.Exit(1)
	}

	if err := errlog.Init(cfg.LogMaxSizeMB, cfg.LogMaxBackups); err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to initialize error log:", err)
		os.Exit(1)
	}
	defer errlog.Close()

	if err := run(opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		errlog.Logf("run failed: %v", err)
		os.Exit(1)
	}
}

type runOptions struct {
	input        string
	inputSQLite  string
	output       string
	outputSQLite string
	configPath   string
	overrides    config.Overrides
}

func parseRunArgs(args []string) (runOptions, error) {
	opts := runOptions{output: "results.csv"}
	dataDir := "./data"

	for i := 0; i < len(args); i++ {
		arg := args[i]
		val, hasVal := flagValue(arg, args, &i)
		switch {
		case arg == "--input" || strings.HasPrefix(arg, "--input="):
			opts.input = val
		case arg == "--input-sqlite" || strings.HasPrefix(arg, "--input-sqlite="):
			opts.inputSQLite = val
		case arg == "--output" || strings.HasPrefix(arg, "--output="):
			opts.output = val
		case arg == "--output-sqlite" || strings.HasPrefix(arg, "--output-sqlite="):
			opts.outputSQLite = val
		case arg == "--datadir" || strings.HasPrefix(arg, "--datadir="):
			dataDir = val
		case arg == "--config" || strings.HasPrefix(arg, "--config="):
			opts.configPath = val
		case arg == "--threshold" || strings.HasPrefix(arg, "--threshold="):
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return runOptions{}, fmt.Errorf("--threshold: %w", err)
			}
			opts.overrides.Threshold = &f
		case arg == "--window" || strings.HasPrefix(arg, "--window="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--window: %w", err)
			}
			opts.overrides.Window = &n
		case arg == "--query-size" || strings.HasPrefix(arg, "--query-size="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--query-size: %w", err)
			}
			opts.overrides.QuerySize = &n
		case arg == "--voc-size" || strings.HasPrefix(arg, "--voc-size="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--voc-size: %w", err)
			}
			opts.overrides.VocSize = &n
		case arg == "--limit" || strings.HasPrefix(arg, "--limit="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--limit: %w", err)
			}
			opts.overrides.Limit = &n
		case arg == "--workers" || strings.HasPrefix(arg, "--workers="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--workers: %w", err)
			}
			opts.overrides.Workers = &n
		case arg == "--log-max-size-mb" || strings.HasPrefix(arg, "--log-max-size-mb="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--log-max-size-mb: %w", err)
			}
			opts.overrides.LogMaxSizeMB = &n
		case arg == "--log-max-backups" || strings.HasPrefix(arg, "--log-max-backups="):
			n, err := strconv.Atoi(val)
			if err != nil {
				return runOptions{}, fmt.Errorf("--log-max-backups: %w", err)
			}
			opts.overrides.LogMaxBackups = &n
		default:
			if !hasVal {
				return runOptions{}, fmt.Errorf("unrecognized flag %q", arg)
			}
		}
	}

	if opts.input == "" && opts.inputSQLite == "" {
		return runOptions{}, fmt.Errorf("one of --input or --input-sqlite is required")
	}
	if opts.configPath == "" {
		opts.configPath = filepath.Join(dataDir, "config.json")
	}
	return opts, nil
}

// flagValue extracts a flag's value from either "--name=value" or the
// "--name value" two-token form, advancing i past the value token in the
// latter case. hasVal reports whether arg looked like a recognized flag
// shape at all (used to distinguish a bare stray argument from a flag whose
// value parsing failed).
func flagValue(arg string, args []string, i *int) (val string, hasVal bool) {
	if eq := strings.IndexByte(arg, '='); eq >= 0 && strings.HasPrefix(arg, "--") {
		return arg[eq+1:], true
	}
	if strings.HasPrefix(arg, "--") && *i+1 < len(args) {
		*i++
		return args[*i], true
	}
	return "", false
}

func run(opts runOptions, cfg *config.Tunables) error {
	src, err := openSource(opts, cfg.VocSize)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := openSink(opts)
	if err != nil {
		return err
	}
	defer sink.Close()

	driver := stream.New(stream.Config{
		VocSize:   cfg.VocSize,
		Window:    cfg.Window,
		QuerySize: cfg.QuerySize,
		Threshold: cfg.Threshold,
		Workers:   cfg.Workers,
	})

	var count int
	for {
		if cfg.Limit > 0 && count >= cfg.Limit {
			break
		}
		v, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		match, err := driver.Step(v)
		if err != nil {
			return fmt.Errorf("process record: %w", err)
		}
		if err := sink.Write(match.Ordinal, match.BestMatchOrdinal, match.Distance); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		count++
	}

	summary := driver.Summary()
	log.Printf("processed %d records, %d matches (%.2f%% match rate)",
		summary.Processed, summary.Matched, summary.MatchRate*100)
	return nil
}

func openSource(opts runOptions, vocSize int) (record.Source, error) {
	if opts.inputSQLite != "" {
		return record.NewSQLiteSource(opts.inputSQLite, vocSize)
	}
	return record.NewCSVSource(opts.input, vocSize)
}

func openSink(opts runOptions) (record.Sink, error) {
	if opts.outputSQLite != "" {
		return record.NewSQLiteSink(opts.outputSQLite)
	}
	return record.NewCSVSink(opts.output)
}
