// Kelp CLI - the main entry point for reducing kelp programs
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/kelplang/kelp/compiler"
	"github.com/kelplang/kelp/manifest"
	"github.com/kelplang/kelp/trace"
	"github.com/kelplang/kelp/vm"
)

func main() {
	expr := flag.String("e", "", "Reduce the given expression instead of a file")
	quota := flag.Int("quota", 0, "Fuel budget (overrides kelp.toml)")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides kelp.toml)")
	snapshot := flag.String("snapshot", "", "Write final machine state to this file")
	resume := flag.String("resume", "", "Resume from a machine snapshot instead of source")
	traceRuns := flag.Bool("trace", false, "Record this run in the history database")
	history := flag.Int("history", 0, "List the N most recent recorded runs and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kelp [options] [file.kelp]\n\n")
		fmt.Fprintf(os.Stderr, "Reduces a kelp program within a fuel budget and prints the residual term.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kelp -e '2 3 add 4 mul'        # Reduce an expression\n")
		fmt.Fprintf(os.Stderr, "  kelp -quota 5 prog.kelp        # Reduce a file with 5 units of fuel\n")
		fmt.Fprintf(os.Stderr, "  kelp -e '?x add' -snapshot s.kcbor  # Save the stuck machine\n")
		fmt.Fprintf(os.Stderr, "  kelp -resume s.kcbor           # Pick up where a snapshot stopped\n")
		fmt.Fprintf(os.Stderr, "  kelp -history 10               # Show recent recorded runs\n")
	}
	flag.Parse()

	cfg, err := manifest.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Log.Verbosity
	if *verbosity >= 0 {
		level = *verbosity
	}
	commonlog.Configure(level, nil)

	if *history > 0 {
		if err := showHistory(cfg, *history); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	m, source, err := loadMachine(cfg, *expr, *resume, *quota)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var store *trace.Store
	var runID string
	if *traceRuns || cfg.Trace.Enabled {
		store, err = trace.Open(cfg.Trace.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		runID, err = store.BeginRun(source, m.Quota())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	var obs vm.Observer
	if store != nil {
		obs = func(step int, b *vm.Block, action vm.StepAction) {
			if err := store.RecordStep(runID, step, b.String(), action.String()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}

	steps := vm.RunWithObserver(m, obs)
	residual := m.ToBlock()

	if store != nil {
		if err := store.FinishRun(runID, steps, residual.String()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if *snapshot != "" {
		data, err := vm.MarshalMachine(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*snapshot, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println(residual)
}

// loadMachine builds the machine to run: from a snapshot when resuming,
// otherwise by parsing -e or the file argument.
func loadMachine(cfg *manifest.Manifest, expr, resume string, quota int) (*vm.Machine, string, error) {
	if resume != "" {
		data, err := os.ReadFile(resume)
		if err != nil {
			return nil, "", fmt.Errorf("cannot read snapshot: %w", err)
		}
		m, err := vm.UnmarshalMachine(data)
		if err != nil {
			return nil, "", err
		}
		// A snapshot taken at halt has no fuel left; top it back up to
		// the requested budget or the resumed run cannot move.
		target := quota
		if target <= 0 {
			target = cfg.Run.Quota
		}
		if m.Quota() < target {
			m.Refuel(target - m.Quota())
		}
		return m, "resume:" + resume, nil
	}

	var source string
	switch {
	case expr != "":
		source = expr
	case flag.NArg() == 1:
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			return nil, "", fmt.Errorf("cannot read program: %w", err)
		}
		source = string(data)
	default:
		return nil, "", fmt.Errorf("nothing to reduce: pass -e, a file, or -resume")
	}

	block, err := compiler.Parse(source)
	if err != nil {
		return nil, "", err
	}
	if quota <= 0 {
		quota = cfg.Run.Quota
	}
	return vm.NewMachine(block, quota), source, nil
}

// showHistory prints the most recent recorded runs.
func showHistory(cfg *manifest.Manifest, n int) error {
	store, err := trace.Open(cfg.Trace.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(n)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  quota=%d steps=%d\n  %s => %s\n", r.ID, r.Quota, r.Steps, r.Source, r.Residual)
	}
	return nil
}
