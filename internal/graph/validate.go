package graph

import (
	"fmt"

	"github.com/vk/proofgridgo/internal/store"
)

// producersOf is the kind-level topology every chain instantiates.
var producersOf = map[store.Kind][]store.Kind{
	store.IntermediateForm: {store.Definition, store.SharedInput},
	store.JobConfig:        {store.IntermediateForm, store.Template},
	store.Sentinel:         {store.JobConfig},
}

// Validate checks that the declared topology is acyclic. The shape is fixed
// at compile time, so this is a guard against future edits to producersOf
// rather than a runtime concern.
func Validate() error {
	// Classic depth-first search with permanent and temporary marks.
	permanent := make(map[store.Kind]bool)
	temporary := make(map[store.Kind]bool)

	var visit func(k store.Kind) error
	visit = func(k store.Kind) error {
		if permanent[k] {
			return nil
		}
		if temporary[k] {
			return fmt.Errorf("cycle detected involving artifact kind %q", k)
		}
		temporary[k] = true
		for _, producer := range producersOf[k] {
			if err := visit(producer); err != nil {
				return err
			}
		}
		delete(temporary, k)
		permanent[k] = true
		return nil
	}

	for kind := range producersOf {
		if !permanent[kind] {
			if err := visit(kind); err != nil {
				return err
			}
		}
	}
	return nil
}
