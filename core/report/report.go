// Package report persists finished runs: result files, the manifest, the
// statistics file, an optional metrics textfile and a console summary.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tcbench/core/manifest"
	"tcbench/core/pipeline"
)

// Writer implements pipeline.Reporter.
type Writer struct {
	// Dir is the results directory; it is created when missing.
	Dir      string
	Manifest manifest.Manifest
	// MetricsFile, when set, receives a Prometheus textfile of the summaries.
	MetricsFile string
	// Console receives the summary table. Nil prints nothing.
	Console io.Writer
	Logger  *slog.Logger
}

// Paths of the artifacts written for one binary.
type Paths struct {
	Out      string
	Err      string
	Manifest string
	Stats    string
}

func PathsFor(dir, binary string) Paths {
	base := filepath.Join(dir, binary)
	return Paths{
		Out:      base + ".out",
		Err:      base + ".err",
		Manifest: base + ".manifest",
		Stats:    base + ".stats",
	}
}

func (w *Writer) Report(ctx context.Context, r pipeline.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Dir == "" {
		return errors.New("results dir not set")
	}
	if r.Run == nil {
		return errors.New("no run results")
	}
	binary := r.Workload.Binary
	if binary == "" {
		binary = "run"
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	paths := PathsFor(w.Dir, binary)

	stdout, err := r.Run.Stdout()
	if err != nil {
		return err
	}
	stderr, err := r.Run.Stderr()
	if err != nil {
		return err
	}

	m := manifest.Manifest{}
	for k, v := range w.Manifest {
		m[k] = v
	}
	m["outcome"] = map[string]any{
		"passed":     r.Passed,
		"failures":   r.Failures,
		"returncode": r.Run.ReturnCode(),
	}
	manifestData, err := m.YAML()
	if err != nil {
		return err
	}
	stats, err := yaml.Marshal(r.Summaries)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{paths.Out, []byte(stdout)},
		{paths.Err, []byte(stderr)},
		{paths.Manifest, manifestData},
		{paths.Stats, stats},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
		}
	}
	w.logger().Info("results written", "dir", w.Dir, "binary", binary)

	if w.MetricsFile != "" {
		if err := WriteMetrics(w.MetricsFile, r.Summaries); err != nil {
			return err
		}
		w.logger().Info("metrics written", "path", w.MetricsFile)
	}
	if w.Console != nil {
		if _, err := io.WriteString(w.Console, Summary(r)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var _ pipeline.Reporter = (*Writer)(nil)
