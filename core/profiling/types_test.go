package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecCounterFollowsProcessTree(t *testing.T) {
	c := NewExecCounter(100)

	c.Observe(Event{Type: EventExec, PID: 100, PPID: 1, Comm: "taskset"})
	c.Observe(Event{Type: EventExec, PID: 100, PPID: 1, Comm: "bmt"})
	c.Observe(Event{Type: EventExec, PID: 101, PPID: 100, Comm: "sh"})
	c.Observe(Event{Type: EventExec, PID: 102, PPID: 101, Comm: "date"})
	c.Observe(Event{Type: EventExec, PID: 555, PPID: 1, Comm: "cron"})
	c.Observe(Event{Type: EventType(9), PID: 100, PPID: 1})

	assert.Equal(t, 4, c.Count())
}
