package execution

import "os"

// ExtraErrorProvider allows backends to surface non-fatal errors collected during execution.
type ExtraErrorProvider interface {
	ExtraErrors() []string
}

// OutputProvider allows backends to expose captured stdout/stderr.
type OutputProvider interface {
	Stdout() []byte
	Stderr() []byte
}

// ProcessStateProvider is implemented by backends that can expose process resource usage.
type ProcessStateProvider interface {
	ProcessState() *os.ProcessState
}
