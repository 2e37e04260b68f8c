package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ctslab/internal/compiler"
	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/observability"
	"github.com/roach88/ctslab/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Model    string
	Until    float64
	Interval float64
	Seed     int64
	Database string
	Metrics  bool

	// IDGenerator allows overriding run ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// RunSummary is the outcome of a run.
type RunSummary struct {
	RunID       string         `json:"run_id,omitempty"`
	Model       string         `json:"model"`
	Seed        int64          `json:"seed"`
	Until       float64        `json:"until"`
	Time        float64        `json:"time"`
	Segments    int            `json:"segments"`
	Interrupted bool           `json:"interrupted,omitempty"`
	Stats       engine.Stats   `json:"stats"`
	NodeStates  []int          `json:"node_states"`
	StateCounts map[string]int `json:"state_counts"`
	PropertySum *float64       `json:"property_sum,omitempty"`
	Metrics     string         `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <model-path>",
		Short: "Run a model to a time horizon",
		Long: `Run a CUE model from its initial conditions to --until.

With --interval the run is split into segments and the grid is sampled at
each segment end. With --db every applied transition and sample is recorded
to SQLite under a new run id for trace and replay.

Examples:
  ctslab run ./models --model sand --until 100
  ctslab run ./models/diffusion.cue --until 50 --interval 5 --db ./runs.db
  ctslab run ./models --model sand --seed 7 --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Config
			if !cmd.Flags().Changed("until") && cfg.Until > 0 {
				opts.Until = cfg.Until
			}
			if !cmd.Flags().Changed("interval") {
				opts.Interval = cfg.Interval
			}
			if !cmd.Flags().Changed("db") {
				opts.Database = cfg.DB
			}
			return runModel(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model name when the path defines several")
	cmd.Flags().Float64Var(&opts.Until, "until", 10, "simulated time to run to")
	cmd.Flags().Float64Var(&opts.Interval, "interval", 0, "sample every interval of simulated time (0 = only at the end)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (default: the model's seed)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func runModel(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if !(opts.Until > 0) {
		return f.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("--until must be positive, got %g", opts.Until), nil)
	}
	if opts.Interval < 0 {
		return f.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("--interval must be non-negative, got %g", opts.Interval), nil)
	}

	model, err := loadModel(path, opts.Model)
	if err != nil {
		return failLoad(f, err)
	}

	seed := model.Spec.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.Seed
	}
	if seed == 0 {
		seed = engine.DefaultSeed
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := observability.InitTracing(ctx, opts.Config.Tracing, cmd.ErrOrStderr(), log)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to initialise tracing", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	reg := prometheus.NewRegistry()
	collector, err := observability.NewEngineCollector(reg)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to register metrics", err)
	}

	engineOpts := []engine.Option{
		engine.WithSeed(seed),
		engine.WithObserver(collector),
		engine.WithLogger(log),
	}

	summary := RunSummary{
		Model: model.Spec.Name,
		Seed:  seed,
		Until: opts.Until,
	}

	var rec *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		gen := opts.IDGenerator
		if gen == nil {
			gen = store.UUIDv7Generator{}
		}
		run, err := store.NewRun(gen.Generate(), model.Spec, seed, model.Topology.NumNodes())
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to describe run", err)
		}
		if err := st.WriteRun(ctx, run); err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		summary.RunID = run.ID
		rec = store.NewRecorder(st, run.ID)
		engineOpts = append(engineOpts, engine.WithObserver(rec))
	}

	e, err := model.NewEngine(engineOpts...)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeEngine, "failed to create engine", err)
	}

	ctx, span := observability.StartRun(ctx, model.Spec.Name, seed)
	defer span.End()

	if rec != nil {
		if _, err := rec.Sample(ctx, e); err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, "failed to record initial sample", err)
		}
	}

	for _, until := range horizons(opts.Until, opts.Interval) {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		observability.TraceRun(ctx, e, until)
		summary.Segments++

		if rec != nil {
			if _, err := rec.Sample(ctx, e); err != nil {
				return f.fail(ExitCommandError, ErrCodeStore, "failed to record sample", err)
			}
		}
		f.VerboseLog("t=%g applied=%d stale=%d", e.CurrentTime(), e.Stats().Applied, e.Stats().Stale)
	}

	fillSummary(&summary, model, e)

	if opts.Metrics {
		var buf bytes.Buffer
		if err := observability.WriteText(&buf, collector.Gatherer()); err != nil {
			return f.fail(ExitCommandError, ErrCodeGeneric, "failed to write metrics", err)
		}
		summary.Metrics = buf.String()
	}

	if f.JSON() {
		return f.Success(summary)
	}
	writeRunText(f.Writer, summary, model.Spec.States)
	return nil
}

// horizons splits (0, until] into segment ends at multiples of interval.
// A zero interval is one segment.
func horizons(until, interval float64) []float64 {
	if interval <= 0 || interval >= until {
		return []float64{until}
	}
	var out []float64
	for k := 1; ; k++ {
		t := float64(k) * interval
		if t >= until {
			break
		}
		out = append(out, t)
	}
	return append(out, until)
}

func fillSummary(s *RunSummary, model *compiler.Model, e *engine.Engine) {
	s.Time = e.CurrentTime()
	s.Stats = e.Stats()
	s.NodeStates = e.NodeStates()
	s.StateCounts = stateCounts(model.Spec.States, s.NodeStates)
	if p := e.Properties(); p != nil {
		sum := p.Sum()
		s.PropertySum = &sum
	}
}

// stateCounts counts nodes per state name, including states no node is in.
func stateCounts(names []string, states []int) map[string]int {
	out := make(map[string]int, len(names))
	for _, n := range names {
		out[n] = 0
	}
	for _, s := range states {
		out[names[s]]++
	}
	return out
}

func writeRunText(w io.Writer, s RunSummary, names []string) {
	if s.RunID != "" {
		fmt.Fprintf(w, "Run %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Model: %s (seed %d)\n", s.Model, s.Seed)
	fmt.Fprintf(w, "Time: %g of %g in %d segment(s)", s.Time, s.Until, s.Segments)
	if s.Interrupted {
		fmt.Fprint(w, " [interrupted]")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Events: %d applied, %d stale, %d scheduled, %d pending\n",
		s.Stats.Applied, s.Stats.Stale, s.Stats.Scheduled, s.Stats.Pending)
	fmt.Fprintln(w, "States:")
	for _, n := range names {
		fmt.Fprintf(w, "  %-12s %d\n", n, s.StateCounts[n])
	}
	if s.PropertySum != nil {
		fmt.Fprintf(w, "Property sum: %g\n", *s.PropertySum)
	}
	if s.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, s.Metrics)
	}
}
