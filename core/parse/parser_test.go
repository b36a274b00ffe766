package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractsFirstGroupAndSanitises(t *testing.T) {
	p := New(
		"score", `Score\s+:\s+([\d,]+\.\d+)`,
		"missing", `nothing here (\d+)`,
	)

	got := p.Parse("header\nScore : 1,234.50\n")

	require.Len(t, got, 1)
	assert.Equal(t, "1234.50", got["score"])
	_, ok := got["missing"]
	assert.False(t, ok)
}

func TestParseEmptyOutput(t *testing.T) {
	got := New("x", `x=(\d+)`).Parse("")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPerfStat(t *testing.T) {
	out := `
 Performance counter stats for './bmt':

          1,503.21 msec task-clock                #    0.999 CPUs utilized
     4,812,334,101      cycles                    #    3.201 GHz
     9,100,220,500      instructions              #    1.89  insn per cycle
        12,345,678      branch-misses

       1.504311234 seconds time elapsed
`
	got := PerfStat().Parse(out)
	assert.Equal(t, "1503.21", got["task_clock_msec"])
	assert.Equal(t, "4812334101", got["cycles"])
	assert.Equal(t, "9100220500", got["instructions"])
	assert.Equal(t, "12345678", got["branch_misses"])
	assert.Equal(t, "1.504311234", got["elapsed_seconds"])
}

func TestNewPanicsOnOddPairs(t *testing.T) {
	assert.Panics(t, func() { New("only-name") })
}
