package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsed(args []string, fields map[string]string) ExecutionResult {
	return ExecutionResult{
		Args:   args,
		Stdout: Output{Fields: fields},
		Stderr: Output{Fields: map[string]string{}},
	}
}

func TestResultSetAggregatesReturnCodes(t *testing.T) {
	set := NewResultSet("build")
	require.NoError(t, set.Append(ExecutionResult{Args: []string{"make"}, ReturnCode: 0}))
	require.NoError(t, set.Append(ExecutionResult{Args: []string{"mv"}, ReturnCode: 2}))
	require.NoError(t, set.Append(ExecutionResult{Args: []string{"mv"}, ReturnCode: 1}))

	assert.Equal(t, 3, set.ReturnCode())
	assert.Equal(t, 3, set.Len())
}

func TestResultSetRejectsMixedOutput(t *testing.T) {
	set := NewResultSet("run")
	mixed := ExecutionResult{Stdout: Output{Fields: map[string]string{}}, Stderr: Output{Text: "raw"}}
	assert.ErrorIs(t, set.Append(mixed), ErrMixedOutput)

	require.NoError(t, set.Append(parsed([]string{"a"}, map[string]string{"x": "1"})))
	assert.ErrorIs(t, set.Append(ExecutionResult{Args: []string{"b"}}), ErrMixedOutput)
	assert.Equal(t, 1, set.Len())
}

func TestResultSetSerialization(t *testing.T) {
	raw := NewResultSet("prepare")
	require.NoError(t, raw.Append(ExecutionResult{Stdout: Output{Text: "one\n"}, Stderr: Output{Text: "warn\n"}}))
	require.NoError(t, raw.Append(ExecutionResult{Stdout: Output{Text: "two\n"}}))
	out, err := raw.Stdout()
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", out)
	errOut, err := raw.Stderr()
	require.NoError(t, err)
	assert.Equal(t, "warn\n", errOut)
	assert.False(t, raw.Structured())

	structured := NewResultSet("run")
	require.NoError(t, structured.Append(parsed([]string{"bmt"}, map[string]string{"score": "12.5"})))
	require.NoError(t, structured.Append(parsed([]string{"bmt"}, map[string]string{})))
	out, err = structured.Stdout()
	require.NoError(t, err)
	assert.Equal(t, "- score: \"12.5\"\n", out)
	assert.True(t, structured.Structured())
}

func TestBinaryNameSkipsWrappers(t *testing.T) {
	assert.Equal(t, "bmt", BinaryName([]string{"/work/himeno/bmt", "-x"}))
	assert.Equal(t, "bmt", BinaryName([]string{"taskset", "0x4", "/work/himeno/bmt"}))
	assert.Equal(t, "bmt", BinaryName([]string{"perf", "stat", "taskset", "0x4", "/work/bmt"}))
	assert.Equal(t, "", BinaryName([]string{"taskset", "0x4"}))
	assert.Equal(t, "", BinaryName(nil))
}

func TestClusterByNameIsStable(t *testing.T) {
	in := []ExecutionResult{
		parsed([]string{"taskset", "0x4", "/b/a"}, map[string]string{"x": "1"}),
		parsed([]string{"taskset", "0x4", "/b/b"}, map[string]string{"x": "2"}),
		parsed([]string{"taskset", "0x4", "/b/a"}, map[string]string{"x": "3"}),
	}

	clusters := ClusterByName(in)
	require.Len(t, clusters, 2)
	assert.Equal(t, "a", clusters[0].Name)
	assert.Equal(t, "b", clusters[1].Name)
	require.Len(t, clusters[0].Results, 2)
	assert.Equal(t, "1", clusters[0].Results[0].Stdout.Fields["x"])
	assert.Equal(t, "3", clusters[0].Results[1].Stdout.Fields["x"])
	assert.Equal(t, "2", clusters[1].Results[0].Stdout.Fields["x"])

	summaries := SummarizeClusters(clusters)
	a := summaries["a"]["x"]
	assert.InDelta(t, 2.0, a.Average, 1e-9)
	assert.InDelta(t, 1.41, a.Deviation, 0.005)
	assert.Equal(t, 70.71, a.Noise)
	assert.Equal(t, Stat{Average: 2, Deviation: 0, Noise: 0}, summaries["b"]["x"])
}

func TestExtractNumericSeriesSkipsNonNumericFields(t *testing.T) {
	in := []ExecutionResult{
		{
			Stdout: Output{Fields: map[string]string{"score": "10", "cpu": "fast", "gosa": "1.5e-3"}},
			Stderr: Output{Fields: map[string]string{"cycles": "100"}},
		},
		{
			Stdout: Output{Fields: map[string]string{"score": "20", "cpu": "0.5"}},
			Stderr: Output{Fields: map[string]string{"cycles": "nan"}},
		},
	}

	series := ExtractNumericSeries(in)
	assert.Equal(t, []float64{10, 20}, series["score"])
	assert.Equal(t, []float64{0.5}, series["cpu"])
	assert.Equal(t, []float64{0.0015}, series["gosa"])
	assert.Equal(t, []float64{100}, series["cycles"])
}

func TestSummarizeSingleSampleHasNoNoise(t *testing.T) {
	in := []ExecutionResult{parsed([]string{"bmt"}, map[string]string{"score": "42", "MFLOPS": "1000.5"})}

	summary := Summarize(ExtractNumericSeries(in))
	require.Len(t, summary, 2)
	for _, name := range summary.Metrics() {
		assert.Zero(t, summary[name].Noise, name)
		assert.Zero(t, summary[name].Deviation, name)
	}
	assert.Equal(t, []string{"MFLOPS", "score"}, summary.Metrics())
}

func TestSummarizeZeroMean(t *testing.T) {
	summary := Summarize(MetricSeries{"delta": {-1, 1}})
	assert.Equal(t, 0.0, summary["delta"].Average)
	assert.Equal(t, 0.0, summary["delta"].Noise)
	assert.InDelta(t, 1.414, summary["delta"].Deviation, 0.001)
}

func TestSummarizeUsesSampleDeviation(t *testing.T) {
	summary := Summarize(MetricSeries{"MFLOPS": {2, 4, 4, 4, 5, 5, 7, 9}})
	s := summary["MFLOPS"]
	assert.Equal(t, 5.0, s.Average)
	assert.InDelta(t, 2.138, s.Deviation, 0.001)
	assert.Equal(t, 42.76, s.Noise)
}
