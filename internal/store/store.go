// Package store abstracts files and directories as timestamped artifacts.
// It answers "does this exist" and "when was it last produced", and performs
// scoped artifact production that never leaves a partial write looking newer
// than its inputs.
//
// Two implementations exist: FS, backed by the real filesystem, and Mem,
// which replaces file modification times with a virtual logical clock so
// staleness logic can be tested without sleeping between writes.
package store

import (
	"io"
	"time"
)

// Kind tags an artifact with its role in a unit's chain.
type Kind int

const (
	Definition Kind = iota
	SharedInput
	Template
	IntermediateForm
	JobConfig
	Sentinel
)

// String returns the lower-case name used in logs and error messages.
func (k Kind) String() string {
	switch k {
	case Definition:
		return "definition"
	case SharedInput:
		return "shared-input"
	case Template:
		return "template"
	case IntermediateForm:
		return "intermediate-form"
	case JobConfig:
		return "job-config"
	case Sentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// Artifact is a named, kind-tagged resource. Shared artifacts (shared inputs
// and the job template) carry an empty Unit and are referenced, not owned,
// by every unit's chain.
type Artifact struct {
	Unit string
	Kind Kind
	Path string
}

// Store is the contract every artifact backend satisfies.
//
// Write runs the producer against a scratch destination and commits the
// result only if the producer returns nil, so an interrupted or failed
// production leaves the previous state of the artifact untouched. Nothing
// in this interface deletes artifacts: skipping a rebuild must never
// regress the cache below where it was when the run started.
type Store interface {
	// Stat reports the artifact's last-produced time and whether it exists.
	Stat(path string) (mtime time.Time, exists bool, err error)

	// Read returns the artifact's content.
	Read(path string) ([]byte, error)

	// Write produces the artifact atomically via the producer callback.
	Write(path string, produce func(w io.Writer) error) error

	// Touch updates the artifact's timestamp, creating it empty if absent.
	Touch(path string) error
}
