package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tcbench/core/manifest"
	"tcbench/core/model"
	"tcbench/core/pipeline"
	"tcbench/core/results"
)

func sampleReport(t *testing.T, passed bool) pipeline.Report {
	t.Helper()
	run := results.NewResultSet("RUN")
	for _, score := range []string{"1", "3"} {
		require.NoError(t, run.Append(results.ExecutionResult{
			Args:   []string{"taskset", "0x1", "/r/bench-r1"},
			Stdout: results.Output{Fields: map[string]string{"score": score}},
			Stderr: results.Output{Fields: map[string]string{}},
		}))
	}
	clusters := results.ClusterByName(run.Results())
	r := pipeline.Report{
		Workload:  model.Workload{Binary: "bench-r1"},
		Run:       run,
		Clusters:  clusters,
		Summaries: results.SummarizeClusters(clusters),
		Passed:    passed,
	}
	if !passed {
		r.Failures = []string{"result 0: score=1 failed check"}
	}
	return r
}

func TestWriterPersistsArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	var console bytes.Buffer
	w := &Writer{
		Dir:         dir,
		Manifest:    manifest.Manifest{"args": map[string]any{"iterations": 2}},
		MetricsFile: filepath.Join(dir, "bench-r1.prom"),
		Console:     &console,
	}

	require.NoError(t, w.Report(context.Background(), sampleReport(t, false)))

	paths := PathsFor(dir, "bench-r1")
	out, err := os.ReadFile(paths.Out)
	require.NoError(t, err)
	assert.Equal(t, "- score: \"1\"\n- score: \"3\"\n", string(out))

	errData, err := os.ReadFile(paths.Err)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(errData))

	var m map[string]any
	data, err := os.ReadFile(paths.Manifest)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &m))
	outcome := m["outcome"].(map[string]any)
	assert.Equal(t, false, outcome["passed"])
	assert.Contains(t, m, "args")

	var stats map[string]results.StatSummary
	data, err = os.ReadFile(paths.Stats)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &stats))
	assert.Equal(t, 2.0, stats["bench-r1"]["score"].Average)
	assert.Equal(t, 70.71, stats["bench-r1"]["score"].Noise)

	prom, err := os.ReadFile(w.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `tcbench_metric_average{binary="bench-r1",metric="score"} 2`)
	assert.Contains(t, string(prom), `tcbench_metric_noise{binary="bench-r1",metric="score"} 70.71`)

	assert.Contains(t, console.String(), "FAIL")
	assert.Contains(t, console.String(), "score")
}

func TestWriterRequiresDir(t *testing.T) {
	w := &Writer{}
	assert.Error(t, w.Report(context.Background(), sampleReport(t, true)))
}

func TestSummaryHandlesRawClusters(t *testing.T) {
	run := results.NewResultSet("RUN")
	require.NoError(t, run.Append(results.ExecutionResult{Args: []string{"/r/raw"}, Stdout: results.Output{Text: "hi"}}))
	clusters := results.ClusterByName(run.Results())
	got := Summary(pipeline.Report{
		Workload:  model.Workload{Binary: "raw"},
		Run:       run,
		Clusters:  clusters,
		Summaries: results.SummarizeClusters(clusters),
		Passed:    true,
	})
	assert.Contains(t, got, "PASS")
	assert.True(t, strings.Contains(got, "no numeric metrics"))
}

func TestSummaryTabulatesMetrics(t *testing.T) {
	report := sampleReport(t, false)
	report.Failures = []string{"result 0: MFLOPS missing"}
	got := Summary(report)

	assert.Contains(t, got, "FAIL")
	for _, header := range []string{"metric", "average", "deviation", "noise %"} {
		assert.Contains(t, got, header)
	}
	for name, summary := range report.Summaries {
		for _, metric := range summary.Metrics() {
			assert.Contains(t, got, metric, name)
		}
	}
	assert.Contains(t, got, "result 0: MFLOPS missing")
}
