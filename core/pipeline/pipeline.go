// Package pipeline drives one benchmark through
// PREPARE → BUILD → RUN → VALIDATE → REPORT.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"tcbench/core/execution"
	"tcbench/core/model"
	"tcbench/core/parse"
	"tcbench/core/profiling"
	"tcbench/core/results"
	"tcbench/core/topology"
)

type Stage string

const (
	StagePrepare  Stage = "PREPARE"
	StageBuild    Stage = "BUILD"
	StageRun      Stage = "RUN"
	StageValidate Stage = "VALIDATE"
	StageReport   Stage = "REPORT"
)

// Stages lists the fixed stage order.
func Stages() []Stage {
	return []Stage{StagePrepare, StageBuild, StageRun, StageValidate, StageReport}
}

type State string

const (
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
)

// Executor runs one subprocess to completion. execution.Engine implements it.
type Executor interface {
	Run(ctx context.Context, spec execution.ExecutionSpec) (execution.ExecutionResult, error)
}

// Report is what the REPORT stage hands to a Reporter.
type Report struct {
	Workload  model.Workload
	Run       *results.ResultSet
	Clusters  []results.Cluster
	Summaries map[string]results.StatSummary
	Passed    bool
	Failures  []string
}

// Reporter persists a finished run.
type Reporter interface {
	Report(ctx context.Context, r Report) error
}

// Pipeline holds everything one run needs. The Workload is fixed before
// Execute and is passed by value to every benchmark stage.
type Pipeline struct {
	Exec      Executor
	Benchmark model.Benchmark
	Workload  model.Workload
	Reporter  Reporter
	Logger    *slog.Logger

	// Env is the inherited environment the per-invocation overlay starts from.
	Env []string
	// Profile wraps RUN invocations with `perf stat`.
	Profile bool
	// Pin wraps RUN invocations with taskset using the machine affinity list.
	Pin bool
	// Tracing attaches exec tracing to RUN invocations.
	Tracing profiling.Mode
}

// Outcome is the terminal state of Execute.
type Outcome struct {
	State State
	// Stage is the last stage entered.
	Stage   Stage
	Passed  bool
	Results map[Stage]*results.ResultSet
	// Failures lists validation failures, one per failed check and result.
	Failures []string
}

// ValidationErr wraps model.ErrValidationFailure when validation failed.
func (o Outcome) ValidationErr() error {
	if len(o.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d check(s) failed: %s", model.ErrValidationFailure, len(o.Failures), o.Failures[0])
}

// Execute runs the stages in order. The returned error is set only for
// fatal failures (setup, PREPARE, BUILD, an unstructured RUN failure, or
// REPORT); a failed validation is reported through Outcome.Passed.
func (p *Pipeline) Execute(ctx context.Context) (Outcome, error) {
	out := Outcome{Results: map[Stage]*results.ResultSet{}}
	fail := func(stage Stage, err error) (Outcome, error) {
		out.State = StateFailure
		out.Stage = stage
		p.logger().Error("stage failed", "stage", stage, "error", err)
		return out, err
	}
	if p.Exec == nil || p.Benchmark == nil {
		return fail(StagePrepare, model.ConfigError("pipeline needs an executor and a benchmark"))
	}

	for _, stage := range []Stage{StagePrepare, StageBuild} {
		out.Stage = stage
		rs, err := p.runStage(ctx, stage)
		if rs != nil {
			out.Results[stage] = rs
		}
		if err != nil {
			return fail(stage, err)
		}
		if rs.ReturnCode() != 0 {
			stderr, _ := rs.Stderr()
			return fail(stage, &model.ExecutionError{Stage: string(stage), ReturnCode: rs.ReturnCode(), Stderr: stderr})
		}
	}

	out.Stage = StageRun
	run, err := p.runStage(ctx, StageRun)
	if run != nil {
		out.Results[StageRun] = run
	}
	if err != nil {
		return fail(StageRun, err)
	}
	if run.ReturnCode() != 0 {
		if !run.Structured() {
			stderr, _ := run.Stderr()
			return fail(StageRun, &model.ExecutionError{Stage: string(StageRun), ReturnCode: run.ReturnCode(), Stderr: stderr})
		}
		p.logger().Warn("run returned non-zero with structured output; deferring to validation",
			"stage", StageRun, "returncode", run.ReturnCode())
	}

	out.Stage = StageValidate
	out.Failures = Validate(run.Results(), p.Benchmark.Checks())
	out.Passed = len(out.Failures) == 0
	p.logger().Info("stage finished", "stage", StageValidate, "passed", out.Passed, "failures", len(out.Failures))
	for _, f := range out.Failures {
		p.logger().Warn("validation", "failure", f)
	}

	out.Stage = StageReport
	clusters := results.ClusterByName(run.Results())
	if p.Reporter != nil {
		err := p.Reporter.Report(ctx, Report{
			Workload:  p.Workload,
			Run:       run,
			Clusters:  clusters,
			Summaries: results.SummarizeClusters(clusters),
			Passed:    out.Passed,
			Failures:  out.Failures,
		})
		if err != nil {
			return fail(StageReport, fmt.Errorf("report: %w", err))
		}
	}
	out.State = StateSuccess
	return out, nil
}

func (p *Pipeline) commands(stage Stage) ([]model.Command, error) {
	switch stage {
	case StagePrepare:
		return p.Benchmark.Prepare(p.Workload)
	case StageBuild:
		return p.Benchmark.Build(p.Workload)
	case StageRun:
		return p.Benchmark.Run(p.Workload)
	default:
		return nil, fmt.Errorf("stage %s has no commands", stage)
	}
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage) (*results.ResultSet, error) {
	cmds, err := p.commands(stage)
	if err != nil {
		return nil, fmt.Errorf("%s commands: %w", stage, err)
	}
	stdoutParser, stderrParser := p.parsers(stage)
	env := Overlay(p.Env, p.Workload)
	rs := results.NewResultSet(string(stage))

	p.logger().Info("stage started", "stage", stage, "commands", len(cmds))
	for _, cmd := range cmds {
		if cmd.Empty() {
			continue
		}
		spec := execution.ExecutionSpec{Args: cmd, Env: env}
		if stage == StageRun {
			spec.Args = p.wrap(cmd)
			spec.Profiling = p.Tracing
		}
		res, err := p.Exec.Run(ctx, spec)
		if err != nil {
			return rs, fmt.Errorf("%s: %w", stage, err)
		}
		if err := rs.Append(toResult(spec.Args, res, stdoutParser, stderrParser)); err != nil {
			return rs, err
		}
		p.logger().Debug("invocation finished", "stage", stage, "args", spec.Args, "returncode", res.ExitCode)
	}
	p.logger().Info("stage finished", "stage", stage, "commands", rs.Len(), "returncode", rs.ReturnCode())
	return rs, nil
}

// parsers returns nil parsers for raw output. When the benchmark parses
// stdout, stderr is parsed as well so a result is never mixed.
func (p *Pipeline) parsers(stage Stage) (*parse.OutputParser, *parse.OutputParser) {
	if stage != StageRun {
		return nil, nil
	}
	stdout := p.Benchmark.Parser()
	if stdout == nil {
		return nil, nil
	}
	if p.Profile {
		return stdout, parse.PerfStat()
	}
	return stdout, parse.New()
}

// wrap prefixes RUN invocations with perf stat and a taskset pin.
func (p *Pipeline) wrap(cmd model.Command) []string {
	args := append([]string(nil), cmd...)
	if p.Profile {
		args = append([]string{"perf", "stat"}, args...)
	}
	if p.Pin && len(p.Workload.Machine.Affinity) > 0 {
		mask := topology.TasksetMask(p.Workload.Machine.Affinity, p.Workload.Threads)
		args = append([]string{"taskset", mask}, args...)
	}
	return args
}

func toResult(args []string, res execution.ExecutionResult, stdoutParser, stderrParser *parse.OutputParser) results.ExecutionResult {
	r := results.ExecutionResult{
		Args:       args,
		ReturnCode: res.ExitCode,
		Resources:  res.Resources,
	}
	if stdoutParser == nil {
		r.Stdout = results.Output{Text: string(res.Stdout)}
		r.Stderr = results.Output{Text: string(res.Stderr)}
		return r
	}
	r.Stdout = results.Output{Fields: stdoutParser.Parse(string(res.Stdout))}
	r.Stderr = results.Output{Fields: stderrParser.Parse(string(res.Stderr))}
	return r
}

// Validate applies checks to every result's parsed stdout. A missing or
// non-numeric field fails like a false predicate.
func Validate(rs []results.ExecutionResult, checks map[string]model.Check) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failures []string
	if len(rs) == 0 && len(names) > 0 {
		return []string{"no results to validate"}
	}
	for i, r := range rs {
		for _, name := range names {
			raw, ok := r.Stdout.Fields[name]
			if !ok {
				failures = append(failures, fmt.Sprintf("result %d: %s missing", i, name))
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				failures = append(failures, fmt.Sprintf("result %d: %s=%q not numeric", i, name, raw))
				continue
			}
			if !checks[name](v) {
				failures = append(failures, fmt.Sprintf("result %d: %s=%v failed check", i, name, v))
			}
		}
	}
	return failures
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
