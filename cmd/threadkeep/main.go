// Command threadkeep ingests chat-export archives into a relational store.
//
// It reads the JSON documents a messaging platform's data-export feature
// produces, repairs their double-encoded text, resolves participant
// identities, links reactions and media to their messages, and loads the
// result into SQLite — or emits one consolidated cleaned JSON document when
// no store is wanted.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/threadkeep/threadkeep/internal/config"
	"github.com/threadkeep/threadkeep/internal/ingest"
	"github.com/threadkeep/threadkeep/internal/stats"
	"github.com/threadkeep/threadkeep/internal/store"
)

const version = "0.1.0"

var (
	globalDBPath     string
	globalConfigPath string
)

func main() {
	args := parseGlobalFlags(os.Args[1:])

	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch args[0] {
	case "ingest":
		err = runIngest(args[1:])
	case "export":
		err = runExport(args[1:])
	case "stats":
		err = runStats(args[1:])
	case "query":
		err = runQuery(args[1:])
	case "version", "--version", "-v":
		fmt.Printf("threadkeep %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseGlobalFlags strips --db and --config from the argument list and
// returns what remains.
func parseGlobalFlags(args []string) []string {
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--db" && i+1 < len(args):
			i++
			globalDBPath = args[i]
		case strings.HasPrefix(arg, "--db="):
			globalDBPath = strings.TrimPrefix(arg, "--db=")
		case arg == "--config" && i+1 < len(args):
			i++
			globalConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			globalConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			rest = append(rest, arg)
		}
	}
	return rest
}

func resolveConfig() (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath: globalConfigPath,
		CLIDBPath:  globalDBPath,
	})
}

func openStore() (store.Store, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return store.New(store.Config{DBPath: cfg.DBPath.Value})
}

func runIngest(args []string) error {
	var paths []string
	opts := ingest.Options{}

	for _, arg := range args {
		switch {
		case arg == "--dry-run" || arg == "-n":
			opts.DryRun = true
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if cfg.SourceDir.Value == "" {
			return fmt.Errorf("usage: threadkeep ingest <path>... [--dry-run]")
		}
		paths = []string{cfg.SourceDir.Value}
	}

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	if opts.DryRun {
		fmt.Println("Dry run mode — no changes will be written")
	}
	opts.ProgressFn = func(current, total int, file string) {
		fmt.Printf("  [%d/%d] %s\n", current, total, file)
	}

	result, err := ingest.NewEngine(s).Run(context.Background(), paths, opts)
	if result != nil {
		fmt.Print(ingest.FormatResult(result))
	}
	return err
}

func runExport(args []string) error {
	var paths []string
	var outPath string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--out" && i+1 < len(args):
			i++
			outPath = args[i]
		case strings.HasPrefix(arg, "--out="):
			outPath = strings.TrimPrefix(arg, "--out=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("usage: threadkeep export <path>... [--out <file>]")
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = cfg.OutPath.Value
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	// Export needs no store: the pipeline runs through consolidation and
	// writes the cleaned interchange document.
	result, err := ingest.NewEngine(nil).Export(context.Background(), paths, ingest.Options{}, out)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stderr, ingest.FormatResult(result))
	return nil
}

func runStats(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: threadkeep stats")
	}

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	report, err := stats.Collect(context.Background(), s)
	if err != nil {
		return err
	}
	fmt.Print(stats.Format(report))
	return nil
}

func runQuery(args []string) error {
	var fromMs, toMs int64 = 0, 1<<63 - 1

	parseMs := func(val, name string) (int64, error) {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s timestamp %q", name, val)
		}
		return n, nil
	}

	var err error
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--from" && i+1 < len(args):
			i++
			if fromMs, err = parseMs(args[i], "--from"); err != nil {
				return err
			}
		case arg == "--to" && i+1 < len(args):
			i++
			if toMs, err = parseMs(args[i], "--to"); err != nil {
				return err
			}
		default:
			return fmt.Errorf("usage: threadkeep query [--from <ms>] [--to <ms>]")
		}
	}

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	rows, err := s.MessagesBetween(context.Background(), fromMs, toMs)
	if err != nil {
		return err
	}
	for _, r := range rows {
		content := r.Content
		if !r.HasContent {
			content = "<no content>"
		}
		fmt.Printf("%d\t%s\t%s\n", r.TimestampMs, r.Sender, content)
	}
	return nil
}

func printUsage() {
	fmt.Printf(`threadkeep %s — chat-export ingestion and normalization

Usage:
  threadkeep <command> [arguments]

Commands:
  ingest <path>...    Load export JSON files (or directories) into the store
  export <path>...    Write one consolidated cleaned JSON document
  stats               Word and reaction statistics from the store
  query               Print messages in a timestamp window
  version             Print version

Ingest Flags:
  -n, --dry-run       Parse and normalize without writing to the store

Export Flags:
  --out <file>        Output file (default stdout)

Query Flags:
  --from <ms>         Window start, milliseconds since epoch (inclusive)
  --to <ms>           Window end, milliseconds since epoch (exclusive)

Global Flags:
  --db <path>         SQLite database path (default %s)
  --config <path>     Config file (default ~/.threadkeep/config.yaml)
  -h, --help          Show this help message
  -v, --version       Print version
`, version, store.DefaultDBPath)
}
