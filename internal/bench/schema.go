package bench

import (
	"github.com/zclconf/go-cty/cty"
)

// benchFile is the top-level structure of a bench file for decoding.
type benchFile struct {
	Project   *projectBlock `hcl:"project,block"`
	Generator *commandBlock `hcl:"generator,block"`
	Checker   *checkerBlock `hcl:"checker,block"`
	Run       *runBlock     `hcl:"run,block"`
}

// projectBlock locates the bench's inputs and outputs.
type projectBlock struct {
	UnitsDir        string   `hcl:"units_dir"`
	UnitPrefix      string   `hcl:"unit_prefix,optional"`
	UnitExt         string   `hcl:"unit_ext,optional"`
	Shared          []string `hcl:"shared,optional"`
	Template        string   `hcl:"template"`
	OutputDir       string   `hcl:"output_dir,optional"`
	IntermediateExt string   `hcl:"intermediate_ext,optional"`
	JobExt          string   `hcl:"job_ext,optional"`
}

// commandBlock describes the external generator invocation.
type commandBlock struct {
	Command string    `hcl:"command"`
	Args    []string  `hcl:"args,optional"`
	Env     cty.Value `hcl:"env,optional"`
	Retries int       `hcl:"retries,optional"`
}

// checkerBlock describes the model-checker invocation plus the sentinel
// file its success is recorded in.
type checkerBlock struct {
	Command  string    `hcl:"command"`
	Args     []string  `hcl:"args,optional"`
	Env      cty.Value `hcl:"env,optional"`
	Retries  int       `hcl:"retries,optional"`
	Sentinel string    `hcl:"sentinel,optional"`
}

// runBlock holds batch execution knobs.
type runBlock struct {
	Workers         int   `hcl:"workers,optional"`
	ContinueOnError *bool `hcl:"continue_on_error,optional"`
}
