package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ctslab/internal/compiler"
)

// ModelValidation is the validation outcome for one model.
type ModelValidation struct {
	Name   string                     `json:"name"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Models []ModelValidation `json:"models"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model-path>",
		Short: "Validate models without running them",
		Long: `Validate every model in a CUE file or package directory.

Checks the schema, state ranges, rates, callbacks, grid shape and initial
pattern of each model and reports every problem found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	specs, err := loadSpecs(path)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return f.fail(ExitCommandError, le.Code, le.Message, nil)
		}
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to load models", err)
	}
	f.VerboseLog("Loaded %d model(s) from %s", len(specs), path)

	result := ValidationResult{Valid: true}
	total := 0
	for _, spec := range specs {
		errs := compiler.Validate(spec)
		result.Models = append(result.Models, ModelValidation{Name: spec.Name, Errors: errs})
		if len(errs) > 0 {
			result.Valid = false
			total += len(errs)
		}
	}

	if result.Valid {
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ All models valid (%d)\n", len(result.Models))
		for _, m := range result.Models {
			fmt.Fprintf(f.Writer, "  %s\n", m.Name)
		}
		return nil
	}

	msg := fmt.Sprintf("%d validation error(s)", total)
	if f.JSON() {
		if err := f.Failure(ErrCodeInvalid, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintf(f.Writer, "✗ %s\n", msg)
	for _, m := range result.Models {
		if len(m.Errors) == 0 {
			fmt.Fprintf(f.Writer, "  %s: ok\n", m.Name)
			continue
		}
		fmt.Fprintf(f.Writer, "  %s:\n", m.Name)
		for _, e := range m.Errors {
			fmt.Fprintf(f.Writer, "    [%s] %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	return NewExitError(ExitFailure, msg)
}
