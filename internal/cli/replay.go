package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ctslab/internal/compiler"
	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/ir"
	"github.com/roach88/ctslab/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// RunReplay holds the replay result for a single run.
type RunReplay struct {
	RunID         string `json:"run_id"`
	Model         string `json:"model"`
	Snapshots     int    `json:"snapshots"`
	Transitions   int    `json:"transitions"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []RunReplay `json:"runs"`
	TotalRuns        int         `json:"total_runs"`
	AllDeterministic bool        `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded runs and verify determinism",
		Long: `Rebuild each recorded run from its stored model and seed, run it to every
recorded snapshot time and compare the snapshots and applied transitions
with the recording.

Exit codes:
  0 - All runs reproduce exactly
  1 - At least one run diverged
  2 - Command error (database not found, unknown run, etc.)

Examples:
  ctslab replay --db ./runs.db
  ctslab replay --db ./runs.db --run 0190a7b2-...
  ctslab replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.Config.DB
			}
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $CTSLAB_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay only this run")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openExisting(f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := readRun(ctx, f, st, opts.RunID)
		if err != nil {
			return err
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]RunReplay, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		snaps, err := st.ReadSnapshots(ctx, run.ID)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to read snapshots", err)
		}
		recs, err := st.ReadTransitions(ctx, run.ID, store.TransitionFilter{})
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to read transitions", err)
		}

		f.VerboseLog("Replaying %s (%d snapshots, %d transitions)", run.ID, len(snaps), len(recs))
		rr, err := replayRun(ctx, run, snaps, recs, log)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeEngine, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
		result.Runs = append(result.Runs, rr)
	}

	if f.JSON() {
		if result.AllDeterministic {
			if err := f.Success(result); err != nil {
				return err
			}
		} else if err := f.Failure(ErrCodeGeneric, "replay diverged", result); err != nil {
			return err
		}
	} else {
		writeReplayText(f.Writer, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from the recording")
	}
	return nil
}

// replayRun re-executes run into a scratch in-memory store and compares
// the result with the recording. The returned error is reserved for
// failures of the scratch store itself.
func replayRun(ctx context.Context, run store.Run, snaps []store.Snapshot, recs []store.TransitionRecord, log *slog.Logger) (RunReplay, error) {
	rr := RunReplay{
		RunID:       run.ID,
		Model:       run.ModelName,
		Snapshots:   len(snaps),
		Transitions: len(recs),
	}
	diverge := func(format string, args ...any) (RunReplay, error) {
		rr.Divergence = fmt.Sprintf(format, args...)
		return rr, nil
	}

	if run.Model == nil {
		return diverge("run has no stored model")
	}
	hash, err := ir.ModelHash(run.Model)
	if err != nil {
		return diverge("model hash: %v", err)
	}
	if hash != run.ModelHash {
		return diverge("model hash %s does not match recorded %s", hash, run.ModelHash)
	}
	model, err := compiler.Build(run.Model)
	if err != nil {
		return diverge("model no longer builds: %v", err)
	}

	scratch, err := store.Open(":memory:")
	if err != nil {
		return rr, err
	}
	defer scratch.Close()
	if err := scratch.WriteRun(ctx, run); err != nil {
		return rr, err
	}
	rec := store.NewRecorder(scratch, run.ID)

	e, err := model.NewEngine(
		engine.WithSeed(run.Seed),
		engine.WithObserver(rec),
		engine.WithLogger(log),
	)
	if err != nil {
		return diverge("engine: %v", err)
	}

	for i, want := range snaps {
		e.Run(want.Time)
		got, err := rec.Sample(ctx, e)
		if err != nil {
			return rr, err
		}
		if msg := diffSnapshot(want, got); msg != "" {
			return diverge("snapshot %d: %s", i, msg)
		}
	}

	replayed, err := scratch.ReadTransitions(ctx, run.ID, store.TransitionFilter{})
	if err != nil {
		return rr, err
	}
	for i, n := 0, min(len(recs), len(replayed)); i < n; i++ {
		if recs[i] != replayed[i] {
			return diverge("transition %d: recorded %+v, replayed %+v", i, recs[i], replayed[i])
		}
	}
	if len(recs) != len(replayed) {
		return diverge("recorded %d transitions, replayed %d", len(recs), len(replayed))
	}

	rr.Deterministic = true
	return rr, nil
}

// diffSnapshot describes the first difference between two snapshots, or
// returns "" when they match.
func diffSnapshot(want, got store.Snapshot) string {
	switch {
	case want.Time != got.Time:
		return fmt.Sprintf("time %g, replayed %g", want.Time, got.Time)
	case !slices.Equal(want.NodeStates, got.NodeStates):
		return fmt.Sprintf("node states %v, replayed %v", want.NodeStates, got.NodeStates)
	case !slices.Equal(want.Properties, got.Properties):
		return fmt.Sprintf("properties %v, replayed %v", want.Properties, got.Properties)
	case want.Applied != got.Applied || want.Stale != got.Stale:
		return fmt.Sprintf("applied/stale %d/%d, replayed %d/%d", want.Applied, want.Stale, got.Applied, got.Stale)
	}
	return ""
}

func writeReplayText(w io.Writer, r ReplayResult) {
	if r.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range r.Runs {
		if run.Deterministic {
			fmt.Fprintf(w, "✓ %s (%s): %d snapshots, %d transitions\n", run.RunID, run.Model, run.Snapshots, run.Transitions)
			continue
		}
		fmt.Fprintf(w, "✗ %s (%s): %s\n", run.RunID, run.Model, run.Divergence)
	}
	fmt.Fprintln(w)
	if r.AllDeterministic {
		fmt.Fprintf(w, "All %d run(s) reproduce exactly\n", r.TotalRuns)
	} else {
		fmt.Fprintln(w, "Replay diverged")
	}
}
