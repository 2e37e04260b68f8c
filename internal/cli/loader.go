package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/ctslab/internal/compiler"
	"github.com/roach88/ctslab/internal/ir"
)

// LoadError is a model loading failure with the CLI error code it maps to.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// loadSpecs compiles every model at path. A missing path is ErrCodeNotFound;
// anything CUE rejects is ErrCodeCompile.
func loadSpecs(path string) ([]*ir.ModelSpec, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model path not found: %s", path), Err: err}
	}
	models, err := compiler.LoadModels(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCompile, Message: err.Error(), Err: err}
	}
	return models, nil
}

// loadModel compiles, selects and builds one model. Validation failures are
// ErrCodeInvalid and keep compiler.ValidationErrors reachable via errors.As.
func loadModel(path, name string) (*compiler.Model, error) {
	models, err := loadSpecs(path)
	if err != nil {
		return nil, err
	}
	spec, err := compiler.SelectModel(models, name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Err: err}
	}
	return buildSpec(spec)
}

// buildSpec builds a compiled model, mapping validation failures to
// ErrCodeInvalid.
func buildSpec(spec *ir.ModelSpec) (*compiler.Model, error) {
	m, err := compiler.Build(spec)
	if err != nil {
		code := ErrCodeEngine
		var verrs compiler.ValidationErrors
		if errors.As(err, &verrs) {
			code = ErrCodeInvalid
		}
		return nil, &LoadError{Code: code, Message: err.Error(), Err: err}
	}
	return m, nil
}

// failLoad reports a loadModel error. Everything but an invalid model is a
// command error.
func failLoad(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to load model", err)
	}
	exit := ExitCommandError
	if le.Code == ErrCodeInvalid {
		exit = ExitFailure
	}
	var details any
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		details = []compiler.ValidationError(verrs)
	}
	if outErr := f.Error(le.Code, le.Message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, "failed to load model", le.Err)
}
