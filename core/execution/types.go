package execution

import (
	"time"

	"tcbench/core/profiling"
	"tcbench/core/results"
)

// ExecutionSpec describes a single subprocess invocation.
type ExecutionSpec struct {
	Args    []string
	Workdir string
	// Env is the complete child environment. Empty inherits the harness
	// environment unchanged.
	Env       []string
	Profiling profiling.Mode
}

// ExecutionHandle identifies a running execution in a backend.
type ExecutionHandle struct {
	ID            string
	BackendHandle any
}

// ExecutionIdentity provides stable identifiers for the running execution.
type ExecutionIdentity struct {
	RootPID int
}

// BackendProfilingInfo describes profiling attachment options for a handle.
type BackendProfilingInfo struct {
	Identity        ExecutionIdentity
	SupportedModes  []profiling.Mode
	SupportsProfile bool
}

// ExecutionResult is the backend-reported outcome of one invocation. A
// non-zero ExitCode is a result, not an error.
type ExecutionResult struct {
	Handle            ExecutionHandle
	ExitCode          int
	Err               error
	StartedAt         time.Time
	CompletedAt       time.Time
	Stdout            []byte
	Stderr            []byte
	Resources         results.Resources
	ProfilingAttached bool
	ProfilingError    error
}
