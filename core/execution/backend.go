package execution

import "context"

// ExecutionBackend is implemented by all execution adapters. A backend value
// drives exactly one invocation; the engine asks its factory for a fresh one
// per spec.
type ExecutionBackend interface {
	Name() string
	Prepare(ctx context.Context) error
	Start(spec ExecutionSpec) (ExecutionHandle, error)
	Wait(h ExecutionHandle) (ExecutionResult, error)
	Kill(h ExecutionHandle) error
	Cleanup(h ExecutionHandle) error
	ProfilingInfo(h ExecutionHandle) BackendProfilingInfo
}

// BackendFactory returns a backend ready for one invocation.
type BackendFactory func() ExecutionBackend
