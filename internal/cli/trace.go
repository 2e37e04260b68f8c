package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/ctslab/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Link     int // -1 means every link
	Name     string
	Limit    int
}

// RunListing is one row of the run list.
type RunListing struct {
	ID        string `json:"id"`
	Model     string `json:"model"`
	ModelHash string `json:"model_hash"`
	Seed      int64  `json:"seed"`
	NumNodes  int    `json:"num_nodes"`
}

// TraceStats summarises a run's recorded transitions.
type TraceStats struct {
	Snapshots   int            `json:"snapshots"`
	Transitions int            `json:"transitions"`
	ByName      map[string]int `json:"by_name"`
	FinalTime   float64        `json:"final_time"`
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	Run         RunListing               `json:"run"`
	Snapshots   []store.Snapshot         `json:"snapshots"`
	Transitions []store.TransitionRecord `json:"transitions"`
	Stats       TraceStats               `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `List the runs recorded in a database, or show one run's snapshots and
applied transitions.

Examples:
  ctslab trace --db ./runs.db
  ctslab trace --db ./runs.db --run 0190a7b2-...
  ctslab trace --db ./runs.db --run 0190a7b2-... --link 12 --name fall --limit 20`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.Config.DB
			}
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $CTSLAB_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show (default: list runs)")
	cmd.Flags().IntVar(&opts.Link, "link", -1, "only transitions on this link")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only transitions with this name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum transitions to show (0 = all)")

	return cmd
}

// openExisting opens a database that must already exist. store.Open would
// otherwise create an empty one.
func openExisting(f *OutputFormatter, path string) (*store.Store, error) {
	if path == "" {
		return nil, f.fail(ExitCommandError, ErrCodeGeneric, "no database: pass --db or set CTSLAB_DB", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

// readRun maps store.ErrRunNotFound to ErrCodeRunNotFound.
func readRun(ctx context.Context, f *OutputFormatter, st *store.Store, id string) (store.Run, error) {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return store.Run{}, f.fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", id), nil)
	}
	if err != nil {
		return store.Run{}, f.fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}
	return run, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExisting(f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, f, st)
	}

	run, err := readRun(ctx, f, st, opts.RunID)
	if err != nil {
		return err
	}

	snaps, err := st.ReadSnapshots(ctx, run.ID)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeStore, "failed to read snapshots", err)
	}

	filter := store.TransitionFilter{Name: opts.Name, Limit: opts.Limit}
	if opts.Link >= 0 {
		link := opts.Link
		filter.Link = &link
	}
	recs, err := st.ReadTransitions(ctx, run.ID, filter)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeStore, "failed to read transitions", err)
	}

	result := TraceResult{
		Run:         listing(run),
		Snapshots:   snaps,
		Transitions: recs,
		Stats: TraceStats{
			Snapshots:   len(snaps),
			Transitions: len(recs),
			ByName:      map[string]int{},
		},
	}
	for _, r := range recs {
		result.Stats.ByName[transitionLabel(r)]++
	}
	if len(snaps) > 0 {
		result.Stats.FinalTime = snaps[len(snaps)-1].Time
	}

	if f.JSON() {
		return f.Success(result)
	}
	var states []string
	if run.Model != nil {
		states = run.Model.States
	}
	writeTraceText(f.Writer, result, states, opts.Verbose)
	return nil
}

func listRuns(ctx context.Context, f *OutputFormatter, st *store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}

	out := make([]RunListing, len(runs))
	for i, r := range runs {
		out[i] = listing(r)
	}

	if f.JSON() {
		return f.Success(out)
	}
	if len(out) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range out {
		fmt.Fprintf(f.Writer, "%s  %s  seed=%d  nodes=%d\n", r.ID, r.Model, r.Seed, r.NumNodes)
	}
	return nil
}

func listing(r store.Run) RunListing {
	return RunListing{
		ID:        r.ID,
		Model:     r.ModelName,
		ModelHash: r.ModelHash,
		Seed:      r.Seed,
		NumNodes:  r.NumNodes,
	}
}

func transitionLabel(r store.TransitionRecord) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", r.Transition)
}

func writeTraceText(w io.Writer, r TraceResult, states []string, verbose bool) {
	fmt.Fprintf(w, "Trace for Run: %s\n", r.Run.ID)
	fmt.Fprintf(w, "Model: %s (seed %d, %d nodes)\n", r.Run.Model, r.Run.Seed, r.Run.NumNodes)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Snapshots ===")
	if len(r.Snapshots) == 0 {
		fmt.Fprintln(w, "  (no snapshots)")
	}
	for _, s := range r.Snapshots {
		fmt.Fprintf(w, "  [%d] t=%g applied=%d stale=%d", s.Step, s.Time, s.Applied, s.Stale)
		if verbose && len(states) > 0 {
			counts := stateCounts(states, s.NodeStates)
			for _, n := range states {
				fmt.Fprintf(w, " %s=%d", n, counts[n])
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Transitions ===")
	if len(r.Transitions) == 0 {
		fmt.Fprintln(w, "  (no transitions)")
	}
	for _, t := range r.Transitions {
		fmt.Fprintf(w, "  [%d] t=%g link %d (%d->%d) %s: %d -> %d\n",
			t.Seq, t.Time, t.Link, t.Tail, t.Head, transitionLabel(t), t.From, t.To)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Snapshots:   %d\n", r.Stats.Snapshots)
	fmt.Fprintf(w, "  Transitions: %d\n", r.Stats.Transitions)
	fmt.Fprintf(w, "  Final time:  %g\n", r.Stats.FinalTime)
	names := make([]string, 0, len(r.Stats.ByName))
	for n := range r.Stats.ByName {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "    %-12s %d\n", n, r.Stats.ByName[n])
	}
}
