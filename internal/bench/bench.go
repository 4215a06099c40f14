// Package bench loads the HCL bench file that describes a verification
// project: where unit definitions live, how the intermediate form is
// generated, how the model checker is invoked, and how the batch runs.
package bench

import (
	"github.com/vk/proofgridgo/internal/graph"
)

// Command is a fully resolved external command description.
type Command struct {
	Command string
	Args    []string
	Env     map[string]string
	Retries uint64
}

// Bench is the format-agnostic model of a verification project. All paths
// are resolved relative to the bench file's directory; the output directory
// is absolute so rendered job configs can point the engine at a
// collision-free working directory per unit.
type Bench struct {
	Dir string // directory containing the bench file

	UnitsDir        string
	UnitPrefix      string
	UnitExt         string
	Shared          []string
	Template        string
	OutputDir       string
	IntermediateExt string
	JobExt          string
	SentinelName    string

	Generator Command
	Checker   Command

	Workers         int
	ContinueOnError bool
}

// Layout maps the bench onto the artifact graph's layout.
func (b *Bench) Layout() graph.Layout {
	return graph.Layout{
		UnitsDir:        b.UnitsDir,
		UnitPrefix:      b.UnitPrefix,
		UnitExt:         b.UnitExt,
		Shared:          b.Shared,
		TemplatePath:    b.Template,
		OutputDir:       b.OutputDir,
		IntermediateExt: b.IntermediateExt,
		JobExt:          b.JobExt,
		SentinelName:    b.SentinelName,
	}
}
