package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ctslab/internal/compiler"
	"github.com/roach88/ctslab/internal/engine"
	"github.com/roach88/ctslab/internal/ir"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Model string
	All   bool // include link states with no candidate transitions
}

// GridSummary describes a model's topology.
type GridSummary struct {
	Kind         string `json:"kind"`
	Nodes        int    `json:"nodes"`
	Links        int    `json:"links"`
	ActiveLinks  int    `json:"active_links"`
	Orientations int    `json:"orientations"`
}

// CandidateSummary is one transition out of a link state.
type CandidateSummary struct {
	ID       int     `json:"id"`
	Name     string  `json:"name,omitempty"`
	To       int     `json:"to"`
	ToLabel  string  `json:"to_label"`
	Rate     float64 `json:"rate"`
	Swap     bool    `json:"swap,omitempty"`
	Callback string  `json:"callback,omitempty"`
}

// LinkStateSummary is one row of the link-state table.
type LinkStateSummary struct {
	Index      int                `json:"index"`
	Label      string             `json:"label"`
	TotalRate  float64            `json:"total_rate"`
	Candidates []CandidateSummary `json:"candidates"`
}

// DescribeResult is the describe output.
type DescribeResult struct {
	Model          string             `json:"model"`
	Hash           string             `json:"hash"`
	Description    string             `json:"description,omitempty"`
	States         []string           `json:"states"`
	Grid           GridSummary        `json:"grid"`
	NumLinkStates  int                `json:"num_link_states"`
	NumTransitions int                `json:"num_transitions"`
	LinkStates     []LinkStateSummary `json:"link_states"`
	Callbacks      []string           `json:"callbacks"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <model-path>",
		Short: "Show a model's grid and link-state transition table",
		Long: `Build a model and print its grid and link-state table.

Each link state (tail, head, orientation) is listed with the transitions
that can fire from it. States with no transitions are hidden unless --all.

Examples:
  ctslab describe ./models --model sand
  ctslab describe ./models/diffusion.cue --all --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model name when the path defines several")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include link states with no transitions")

	return cmd
}

func runDescribe(opts *DescribeOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	model, err := loadModel(path, opts.Model)
	if err != nil {
		return failLoad(f, err)
	}

	e, err := model.NewEngine()
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeEngine, "failed to create engine", err)
	}

	result, err := describeModel(model, e, opts.All)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to describe model", err)
	}

	if f.JSON() {
		return f.Success(result)
	}
	writeDescribeText(f.Writer, result)
	return nil
}

func describeModel(model *compiler.Model, e *engine.Engine, all bool) (DescribeResult, error) {
	hash, err := ir.ModelHash(model.Spec)
	if err != nil {
		return DescribeResult{}, err
	}

	topo := model.Topology
	cls := e.Classifier()
	table := e.Table()

	result := DescribeResult{
		Model:       model.Spec.Name,
		Hash:        hash,
		Description: model.Spec.Description,
		States:      model.Spec.States,
		Grid: GridSummary{
			Kind:         model.Spec.Grid.Kind,
			Nodes:        topo.NumNodes(),
			Links:        topo.NumLinks(),
			ActiveLinks:  topo.NumActiveLinks(),
			Orientations: topo.NumOrientations(),
		},
		NumLinkStates:  cls.NumLinkStates(),
		NumTransitions: table.NumTransitions(),
		LinkStates:     []LinkStateSummary{},
		Callbacks:      engine.CallbackNames(),
	}

	for ls := 0; ls < cls.NumLinkStates(); ls++ {
		cands := table.Candidates(ls)
		if len(cands) == 0 && !all {
			continue
		}
		label, err := linkStateLabel(cls, ls, model.Spec)
		if err != nil {
			return DescribeResult{}, err
		}
		row := LinkStateSummary{
			Index:      ls,
			Label:      label,
			TotalRate:  table.TotalRate(ls),
			Candidates: []CandidateSummary{},
		}
		for _, c := range cands {
			toLabel, err := linkStateLabel(cls, c.To, model.Spec)
			if err != nil {
				return DescribeResult{}, err
			}
			row.Candidates = append(row.Candidates, CandidateSummary{
				ID:       c.ID,
				Name:     c.Name,
				To:       c.To,
				ToLabel:  toLabel,
				Rate:     c.Rate,
				Swap:     c.PropSwap,
				Callback: model.Spec.Transitions[c.ID].Callback,
			})
		}
		result.LinkStates = append(result.LinkStates, row)
	}
	return result, nil
}

// linkStateLabel renders a link state with state names, e.g.
// "(particle, fluid, 1)".
func linkStateLabel(cls *engine.Classifier, ls int, spec *ir.ModelSpec) (string, error) {
	t, err := cls.Decompose(ls)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s, %s, %d)", spec.StateName(t.Tail), spec.StateName(t.Head), t.Orientation), nil
}

func writeDescribeText(w io.Writer, r DescribeResult) {
	fmt.Fprintf(w, "Model: %s\n", r.Model)
	if r.Description != "" {
		fmt.Fprintf(w, "  %s\n", r.Description)
	}
	fmt.Fprintf(w, "Hash: %s\n", r.Hash)
	fmt.Fprintf(w, "States: %v\n", r.States)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Grid ===")
	fmt.Fprintf(w, "  Kind:         %s\n", r.Grid.Kind)
	fmt.Fprintf(w, "  Nodes:        %d\n", r.Grid.Nodes)
	fmt.Fprintf(w, "  Links:        %d (%d active)\n", r.Grid.Links, r.Grid.ActiveLinks)
	fmt.Fprintf(w, "  Orientations: %d\n", r.Grid.Orientations)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "=== Link states (%d, %d transitions) ===\n", r.NumLinkStates, r.NumTransitions)
	if len(r.LinkStates) == 0 {
		fmt.Fprintln(w, "  (no transitions)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ls := range r.LinkStates {
		fmt.Fprintf(tw, "  [%d]\t%s\ttotal %g\t\n", ls.Index, ls.Label, ls.TotalRate)
		for _, c := range ls.Candidates {
			name := c.Name
			if name == "" {
				name = fmt.Sprintf("#%d", c.ID)
			}
			extra := ""
			if c.Swap {
				extra += " swap"
			}
			if c.Callback != "" {
				extra += " callback=" + c.Callback
			}
			fmt.Fprintf(tw, "    %s\t-> %s [%d]\trate %g%s\t\n", name, c.ToLabel, c.To, c.Rate, extra)
		}
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Callbacks: %v\n", r.Callbacks)
}
