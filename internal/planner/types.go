// Package planner turns grouping and clustering results into concrete
// filesystem operations and executes them. Planning is pure: it touches no
// files, so plans can be returned over the API for a dry run and applied
// later.
package planner

import "fmt"

// OpKind is the kind of filesystem operation in a plan.
type OpKind string

const (
	OpMove   OpKind = "move"
	OpDelete OpKind = "delete"
	OpCopy   OpKind = "copy"
)

// Operation is a single planned filesystem action. Dest is empty for
// deletes.
type Operation struct {
	Kind   OpKind `json:"kind"`
	Source string `json:"source"`
	Dest   string `json:"dest,omitempty"`
}

// Summary describes a plan before execution.
type Summary struct {
	Operations      []Operation `json:"operations"`
	SpaceSavedBytes int64       `json:"space_saved"`
}

// FileError pairs a failed operation with its cause so one bad file does
// not abort the rest of the plan.
type FileError struct {
	Op    Operation `json:"op"`
	Cause string    `json:"cause"`
}

func (e FileError) Error() string {
	if e.Op.Dest == "" {
		return fmt.Sprintf("%s %s: %s", e.Op.Kind, e.Op.Source, e.Cause)
	}
	return fmt.Sprintf("%s %s -> %s: %s", e.Op.Kind, e.Op.Source, e.Op.Dest, e.Cause)
}

// Result reports what the executor actually did.
type Result struct {
	Completed int         `json:"completed"`
	Errors    []FileError `json:"errors,omitempty"`
}
