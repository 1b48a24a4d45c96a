// mvccscan is a REPL for driving a pkg/mvcc scanner over an in-memory
// snapshot loaded from a fixture file.
//
// Usage:
//
//	mvccscan --fixture scenario.hujson [opts]
//	mvccscan --sqlite corpus.db --scenario many-tombstones [opts]
//
// Options:
//
//	    --fixture     Path to a hujson scan scenario document
//	    --sqlite      Path to a SQLite scan scenario corpus
//	    --scenario    Scenario name to load from --sqlite
//	-t, --ts          Read timestamp (default: 100)
//	    --isolation   Isolation level: si or rc (default: si)
//	    --mode        Scan direction: backward or forward (default: backward)
//	    --lower       Range lower bound, hex (optional)
//	    --upper       Range upper bound, hex (optional)
//	    --omit-value  Skip default-CF value loads
//	    --no-cache    Disable fillCache on constructed cursors
//
// Commands (in REPL):
//
//	step              Advance the scanner by one key, print the result
//	scan [limit]       Run the scanner to exhaustion (or limit keys)
//	stats              Show statistics gathered since the last 'stats', then reset them
//	info               Show the current configuration
//	reset              Rebuild the scanner from the original configuration
//	save <path>        Dump the current snapshot to a hujson fixture file
//	help               Show this help
//	exit / quit / q    Exit
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/mvccscan/internal/fixture"
	"github.com/calvinalkan/mvccscan/internal/memengine"
	"github.com/calvinalkan/mvccscan/pkg/mvcc"
	mvccfs "github.com/calvinalkan/mvccscan/pkg/fs"
	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	fixturePath string
	sqlitePath  string
	scenario    string
	ts          uint64
	isolation   string
	mode        string
	lower       string
	upper       string
	omitValue   bool
	noCache     bool
}

func run() error {
	fs := flag.NewFlagSet("mvccscan", flag.ContinueOnError)

	opts := options{}
	fs.StringVar(&opts.fixturePath, "fixture", "", "path to a hujson scan scenario document")
	fs.StringVar(&opts.sqlitePath, "sqlite", "", "path to a SQLite scan scenario corpus")
	fs.StringVar(&opts.scenario, "scenario", "", "scenario name to load from --sqlite")
	fs.Uint64VarP(&opts.ts, "ts", "t", 100, "read timestamp")
	fs.StringVar(&opts.isolation, "isolation", "si", "isolation level: si or rc")
	fs.StringVar(&opts.mode, "mode", "backward", "scan direction: backward or forward")
	fs.StringVar(&opts.lower, "lower", "", "range lower bound, hex")
	fs.StringVar(&opts.upper, "upper", "", "range upper bound, hex")
	fs.BoolVar(&opts.omitValue, "omit-value", false, "skip default-CF value loads")
	fs.BoolVar(&opts.noCache, "no-cache", false, "disable fillCache on constructed cursors")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if opts.fixturePath == "" && opts.sqlitePath == "" {
		fs.Usage()
		return fmt.Errorf("one of --fixture or --sqlite is required")
	}

	snapshot, err := loadSnapshot(opts)
	if err != nil {
		return err
	}

	repl := &REPL{snapshot: snapshot, opts: opts}
	if err := repl.build(); err != nil {
		return err
	}

	return repl.Run()
}

func loadSnapshot(opts options) (*memengine.Snapshot, error) {
	if opts.fixturePath != "" {
		return fixture.LoadHuJSON(mvccfs.NewReal(), opts.fixturePath)
	}

	if opts.scenario == "" {
		return nil, fmt.Errorf("--scenario is required with --sqlite")
	}

	return fixture.LoadSQLite(context.Background(), opts.sqlitePath, opts.scenario)
}

func parseIsolation(s string) (mvcc.IsolationLevel, error) {
	switch strings.ToLower(s) {
	case "si", "snapshot", "snapshot-isolation":
		return mvcc.SnapshotIsolation, nil
	case "rc", "read-committed":
		return mvcc.ReadCommitted, nil
	default:
		return 0, fmt.Errorf("unknown isolation level: %q", s)
	}
}

func parseRange(lower, upper string) (mvcckv.Range, error) {
	var rng mvcckv.Range
	if lower != "" {
		b, err := hex.DecodeString(lower)
		if err != nil {
			return rng, fmt.Errorf("--lower: %w", err)
		}
		rng.Lower = b
	}
	if upper != "" {
		b, err := hex.DecodeString(upper)
		if err != nil {
			return rng, fmt.Errorf("--upper: %w", err)
		}
		rng.Upper = b
	}
	return rng, nil
}

// scanner is implemented by both *mvcc.BackwardScanner and
// *mvcc.ForwardScanner so the REPL can drive either without caring which.
type scanner interface {
	ReadNext() ([]byte, []byte, bool, error)
	TakeStatistics() mvcckv.Statistics
}

// REPL drives a scanner built from command-line options against an
// in-memory snapshot, and can rebuild it from scratch on "reset".
type REPL struct {
	snapshot *memengine.Snapshot
	opts     options
	scan     scanner
	liner    *liner.State

	stepCount int
	done      bool
}

func (r *REPL) build() error {
	isolation, err := parseIsolation(r.opts.isolation)
	if err != nil {
		return err
	}

	rng, err := parseRange(r.opts.lower, r.opts.upper)
	if err != nil {
		return err
	}

	fillCache := !r.opts.noCache

	switch strings.ToLower(r.opts.mode) {
	case "backward", "":
		s, err := mvcc.NewBackwardScannerBuilder(r.snapshot, r.opts.ts).
			IsolationLevel(isolation).
			Range(rng.Lower, rng.Upper).
			FillCache(fillCache).
			OmitValue(r.opts.omitValue).
			Build()
		if err != nil {
			return err
		}
		r.scan = s
	case "forward":
		s, err := mvcc.NewForwardScannerBuilder(r.snapshot, r.opts.ts).
			IsolationLevel(isolation).
			Range(rng.Lower, rng.Upper).
			FillCache(fillCache).
			OmitValue(r.opts.omitValue).
			Build()
		if err != nil {
			return err
		}
		r.scan = s
	default:
		return fmt.Errorf("unknown --mode: %q", r.opts.mode)
	}

	r.stepCount = 0
	r.done = false

	return nil
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".mvccscan_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("mvccscan (mode=%s, ts=%d, isolation=%s)\n", r.opts.mode, r.opts.ts, r.opts.isolation)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("mvccscan> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "step":
			r.cmdStep()

		case "scan":
			r.cmdScan(args)

		case "stats":
			r.cmdStats()

		case "info":
			r.cmdInfo()

		case "reset":
			r.cmdReset()

		case "save":
			r.cmdSave(args)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"step", "scan", "stats", "info", "reset", "save",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  step              Advance the scanner by one key")
	fmt.Println("  scan [limit]      Run the scanner to exhaustion (or limit keys)")
	fmt.Println("  stats             Show statistics gathered since the last 'stats', then reset them")
	fmt.Println("  info              Show the current configuration")
	fmt.Println("  reset             Rebuild the scanner from the original configuration")
	fmt.Println("  save <path>       Dump the current snapshot to a hujson fixture file")
	fmt.Println("  help              Show this help")
	fmt.Println("  exit / quit / q   Exit")
}

func (r *REPL) cmdStep() {
	if r.done {
		fmt.Println("scanner is exhausted, use 'reset' to start over")
		return
	}

	key, value, hasValue, err := r.scan.ReadNext()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		r.done = true

		return
	}

	if key == nil {
		fmt.Println("(exhausted)")
		r.done = true

		return
	}

	r.stepCount++

	if hasValue {
		fmt.Printf("%d: %s = %s\n", r.stepCount, formatBytes(key), formatBytes(value))
	} else {
		fmt.Printf("%d: %s (no visible value)\n", r.stepCount, formatBytes(key))
	}
}

func (r *REPL) cmdScan(args []string) {
	limit := -1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("invalid limit: %v\n", err)
			return
		}
		limit = n
	}

	emitted := 0
	for limit < 0 || emitted < limit {
		if r.done {
			break
		}

		key, value, hasValue, err := r.scan.ReadNext()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			r.done = true

			return
		}

		if key == nil {
			r.done = true

			break
		}

		r.stepCount++
		emitted++

		if hasValue {
			fmt.Printf("%d: %s = %s\n", r.stepCount, formatBytes(key), formatBytes(value))
		} else {
			fmt.Printf("%d: %s (no visible value)\n", r.stepCount, formatBytes(key))
		}
	}

	fmt.Printf("(%d keys emitted)\n", emitted)
}

func (r *REPL) cmdStats() {
	stats := r.scan.TakeStatistics()
	fmt.Printf("write:   seek=%d seek_for_prev=%d next=%d prev=%d processed=%d\n",
		stats.Write.Seek, stats.Write.SeekForPrev, stats.Write.Next, stats.Write.Prev, stats.Write.Processed)
	fmt.Printf("lock:    seek=%d seek_for_prev=%d next=%d prev=%d processed=%d\n",
		stats.Lock.Seek, stats.Lock.SeekForPrev, stats.Lock.Next, stats.Lock.Prev, stats.Lock.Processed)
	fmt.Printf("default: seek=%d seek_for_prev=%d next=%d prev=%d processed=%d\n",
		stats.Default.Seek, stats.Default.SeekForPrev, stats.Default.Next, stats.Default.Prev, stats.Default.Processed)
}

func (r *REPL) cmdInfo() {
	fmt.Printf("mode:       %s\n", r.opts.mode)
	fmt.Printf("ts:         %d\n", r.opts.ts)
	fmt.Printf("isolation:  %s\n", r.opts.isolation)
	fmt.Printf("omit_value: %v\n", r.opts.omitValue)
	fmt.Printf("fill_cache: %v\n", !r.opts.noCache)
	fmt.Printf("lower:      %s\n", r.opts.lower)
	fmt.Printf("upper:      %s\n", r.opts.upper)
	fmt.Printf("steps:      %d\n", r.stepCount)
	fmt.Printf("exhausted:  %v\n", r.done)
}

func (r *REPL) cmdReset() {
	if err := r.build(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Println("scanner rebuilt")
}

func (r *REPL) cmdSave(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: save <path>")
		return
	}

	writer := mvccfs.NewAtomicWriter(mvccfs.NewReal())
	if err := r.snapshot.DumpTo(writer, args[0]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Printf("saved to %s\n", args[0])
}

func formatBytes(b []byte) string {
	if len(b) == 0 {
		return "\"\""
	}

	return hex.EncodeToString(b)
}
