package compiler

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/ctslab/internal/ir"
)

// LoadModels reads every model under the top-level "model" field of a CUE
// file or package directory, sorted by name.
//
//	model: sand: {
//		states: ["fluid", "particle"]
//		...
//	}
func LoadModels(path string) ([]*ir.ModelSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}

	ctx := cuecontext.New()
	var root cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("load models: no CUE instances in %s", path)
		}
		if err := instances[0].Err; err != nil {
			return nil, formatCUEError(err)
		}
		root = ctx.BuildInstance(instances[0])
	} else {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load models: %w", err)
		}
		root = ctx.CompileBytes(src, cue.Filename(path))
	}
	return CompileModels(root)
}

// CompileModels compiles every entry of root's "model" struct.
func CompileModels(root cue.Value) ([]*ir.ModelSpec, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	models := root.LookupPath(cue.ParsePath("model"))
	if !models.Exists() {
		return nil, &CompileError{
			Field:   "model",
			Message: "no model definitions found",
			Pos:     root.Pos(),
		}
	}

	iter, err := models.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*ir.ModelSpec
	for iter.Next() {
		spec, err := CompileModel(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LoadModel loads one model by name. An empty name selects the only model
// and fails when there are several.
func LoadModel(path, name string) (*ir.ModelSpec, error) {
	models, err := LoadModels(path)
	if err != nil {
		return nil, err
	}
	return SelectModel(models, name)
}

// SelectModel picks a model by name from a loaded set.
func SelectModel(models []*ir.ModelSpec, name string) (*ir.ModelSpec, error) {
	if name == "" {
		if len(models) == 1 {
			return models[0], nil
		}
		names := make([]string, len(models))
		for i, m := range models {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("%d models defined %v; pick one by name", len(models), names)
	}
	for _, m := range models {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("model %q not found", name)
}

// CompileString compiles model source text. Used by tests and the harness
// for inline models.
func CompileString(src string) ([]*ir.ModelSpec, error) {
	return CompileModels(cuecontext.New().CompileString(src))
}
