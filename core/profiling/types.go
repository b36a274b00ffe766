package profiling

import "context"

// Mode expresses whether exec tracing is attached to an invocation.
// Tracing is optional and defaults to disabled.
type Mode string

const (
	ProfilingDisabled Mode = "disabled"
	ProfilingHost     Mode = "host"
)

// Capabilities declares which attachment points a provider supports.
type Capabilities struct {
	Host bool
}

// Target describes the process a profiler should follow.
type Target struct {
	// RootPID is the host-visible PID of the invocation, or 0 when the
	// session attaches before the child exists.
	RootPID int
	Mode    Mode
}

// EventType is the classification of an observation emitted by profiling.
type EventType uint32

const (
	EventExec EventType = 1
)

// Event is an observation captured during execution.
type Event struct {
	Type EventType
	PID  uint32
	PPID uint32
	Comm string
	Path string
}

// Session represents a running profiling attachment.
type Session interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// Controller creates profiling sessions and advertises support.
type Controller interface {
	Start(ctx context.Context, target Target) (Session, error)
	Capabilities() Capabilities
}

// ExecCounter counts exec events that belong to the process tree rooted at
// a PID. Events from unrelated host processes are ignored.
type ExecCounter struct {
	tree  map[uint32]bool
	count int
}

func NewExecCounter(rootPID int) *ExecCounter {
	return &ExecCounter{tree: map[uint32]bool{uint32(rootPID): true}}
}

// Observe folds one event into the count.
func (c *ExecCounter) Observe(ev Event) {
	if ev.Type != EventExec {
		return
	}
	if !c.tree[ev.PID] && !c.tree[ev.PPID] {
		return
	}
	c.tree[ev.PID] = true
	c.count++
}

func (c *ExecCounter) Count() int { return c.count }
