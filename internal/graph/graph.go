// Package graph declares the fixed per-unit dependency chain:
//
//	Sentinel <- JobConfig <- {IntermediateForm, Template}
//	IntermediateForm <- {Definition, SharedInput...}
//
// The shape is static; only artifact names vary with the unit identifier.
// Reifying the chain as data (rather than name-pattern rules) keeps the
// staleness evaluator a plain walk over declared producers.
package graph

import (
	"path/filepath"

	"github.com/vk/proofgridgo/internal/store"
)

// Layout locates every artifact of the bench on disk.
type Layout struct {
	UnitsDir        string   // directory holding unit definitions
	UnitPrefix      string   // definition filename prefix, e.g. "formal_"
	UnitExt         string   // definition filename extension, e.g. ".py"
	Shared          []string // shared inputs every unit depends on
	TemplatePath    string   // job-config template
	OutputDir       string   // root of per-unit output directories
	IntermediateExt string   // e.g. "il"
	JobExt          string   // e.g. "sby"
	SentinelName    string   // e.g. "PASS"
}

// Graph resolves unit identifiers into artifact chains.
type Graph struct {
	layout Layout
}

// New builds a graph for the given layout.
func New(layout Layout) *Graph {
	return &Graph{layout: layout}
}

// Chain is the full set of artifacts for one unit, in dependency order.
type Chain struct {
	Unit             string
	Definition       store.Artifact
	Shared           []store.Artifact
	Template         store.Artifact
	IntermediateForm store.Artifact
	JobConfig        store.Artifact
	Sentinel         store.Artifact
}

// OutDir returns the unit's output directory. The mapping is a pure
// function of the identifier so reruns locate prior sentinels.
func (g *Graph) OutDir(unit string) string {
	return filepath.Join(g.layout.OutputDir, unit)
}

// DefinitionPath returns the path of the unit's hand-authored definition.
func (g *Graph) DefinitionPath(unit string) string {
	return filepath.Join(g.layout.UnitsDir, g.layout.UnitPrefix+unit+g.layout.UnitExt)
}

// Chain resolves the fixed chain for one unit.
func (g *Graph) Chain(unit string) *Chain {
	outDir := g.OutDir(unit)

	shared := make([]store.Artifact, 0, len(g.layout.Shared))
	for _, path := range g.layout.Shared {
		shared = append(shared, store.Artifact{Kind: store.SharedInput, Path: path})
	}

	return &Chain{
		Unit: unit,
		Definition: store.Artifact{
			Unit: unit,
			Kind: store.Definition,
			Path: g.DefinitionPath(unit),
		},
		Shared: shared,
		Template: store.Artifact{
			Kind: store.Template,
			Path: g.layout.TemplatePath,
		},
		IntermediateForm: store.Artifact{
			Unit: unit,
			Kind: store.IntermediateForm,
			Path: filepath.Join(outDir, unit+"."+g.layout.IntermediateExt),
		},
		JobConfig: store.Artifact{
			Unit: unit,
			Kind: store.JobConfig,
			Path: filepath.Join(outDir, unit+"."+g.layout.JobExt),
		},
		Sentinel: store.Artifact{
			Unit: unit,
			Kind: store.Sentinel,
			Path: filepath.Join(outDir, g.layout.SentinelName),
		},
	}
}

// Producers returns the direct producers of the given artifact kind within
// the chain, in declaration order. Kinds with no producers (the external
// inputs) return nil.
func (c *Chain) Producers(kind store.Kind) []store.Artifact {
	switch kind {
	case store.IntermediateForm:
		producers := []store.Artifact{c.Definition}
		return append(producers, c.Shared...)
	case store.JobConfig:
		return []store.Artifact{c.IntermediateForm, c.Template}
	case store.Sentinel:
		return []store.Artifact{c.JobConfig}
	default:
		return nil
	}
}
