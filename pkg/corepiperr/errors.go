// Package corepiperr defines the pipeline's error taxonomy. Every fatal
// condition raised by the core packages carries one of these kinds so the
// orchestrator can log a single line and choose an exit code without
// inspecting error text.
package corepiperr

import "errors"

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindConfiguration covers unknown MAPPING, non-positive DPU_NUM, and
	// other invalid or missing configuration values. Fatal at init.
	KindConfiguration Kind = "configuration"
	// KindLookup covers node/edge/archetype names not resolvable in the
	// graph program. Fatal at analysis.
	KindLookup Kind = "lookup"
	// KindCapacity covers a node with no DPU having free capacity. Fatal
	// at partitioning.
	KindCapacity Kind = "capacity"
	// KindScheduling covers a dependency cycle detected by the task
	// manager (zero-progress round). Fatal at scheduling.
	KindScheduling Kind = "scheduling"
	// KindRuntimeInvariant covers internal bugs: a walker with an empty
	// next queue when promotion expects a start node, active-bag
	// overflow, and similar conditions that should never occur.
	KindRuntimeInvariant Kind = "runtime_invariant"
	// KindWorkerFailure covers any simulator worker exception, which
	// aborts the whole pipeline.
	KindWorkerFailure Kind = "worker_failure"
)

// Error is a kind-tagged pipeline error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Msg + ": " + e.Err.Error()
	}

	return string(e.Kind) + ": " + e.Msg
}

// Unwrap exposes the wrapped error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a Kind-tagged error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates a Kind-tagged error around an existing cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err is a pipeline Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error

	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}
