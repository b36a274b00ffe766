// Package runner wires configuration, model resolution and the pipeline
// into one harness run.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"tcbench/backend/process"
	"tcbench/config"
	"tcbench/core/execution"
	"tcbench/core/flags"
	"tcbench/core/manifest"
	"tcbench/core/model"
	"tcbench/core/pipeline"
	"tcbench/core/profiling"
	"tcbench/core/profiling/ebpf"
	"tcbench/core/profiling/noop"
	"tcbench/core/registry"
	"tcbench/core/report"
	"tcbench/core/toolchain"
	"tcbench/models"
)

// Workspace is the directory tree owned by one run. Concurrent runs must use
// distinct run ids; nothing is locked.
type Workspace struct {
	Root      string
	Toolchain string
	Results   string
}

func NewWorkspace(rootDir, runID string) Workspace {
	root := filepath.Join(rootDir, runID)
	return Workspace{
		Root:      root,
		Toolchain: filepath.Join(root, "toolchain"),
		Results:   filepath.Join(root, "results"),
	}
}

// RunOptions carries the collaborators of a run. Zero values select the
// built-in registry, the process backend and the inherited environment.
type RunOptions struct {
	Registry   *registry.Registry
	NewBackend execution.BackendFactory
	Profiler   profiling.Controller
	Locator    *toolchain.Locator
	Env        []string
	Logger     *slog.Logger
	// Console receives the report summary.
	Console io.Writer
}

type RunResult struct {
	Config    config.Config
	Workspace Workspace
	Outcome   pipeline.Outcome
	// ExitCode is 0 for a validated pass and 1 otherwise.
	ExitCode int
}

// Run executes one benchmark end to end. Resolution and configuration
// failures are returned before any subprocess runs.
func Run(ctx context.Context, cfg config.Config, opts RunOptions) (RunResult, error) {
	cfg = cfg.Fill()
	res := RunResult{Config: cfg, ExitCode: 1}
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run", cfg.RunID)

	reg := opts.Registry
	if reg == nil {
		reg = models.Builtin()
	}
	bench, err := reg.ResolveBenchmark(cfg.Benchmark)
	if err != nil {
		return res, err
	}
	machine, err := reg.ResolveMachine(cfg.Machine)
	if err != nil {
		return res, err
	}

	ws := NewWorkspace(cfg.RootDir, cfg.RunID)
	res.Workspace = ws
	if err := os.MkdirAll(ws.Root, 0o755); err != nil {
		return res, fmt.Errorf("create workspace: %w", err)
	}

	newBackend := opts.NewBackend
	if newBackend == nil {
		newBackend = process.Factory(process.Options{})
	}
	engine := execution.Engine{
		NewBackend: newBackend,
		Profiler:   opts.Profiler,
		Logger:     logger,
	}
	if engine.Profiler == nil && cfg.Tracing == profiling.ProfilingHost {
		engine.Profiler = tracer(cfg, logger)
	}

	locator := toolchain.Locator{Dir: ws.Toolchain, Logger: logger}
	if opts.Locator != nil {
		locator = *opts.Locator
		if locator.Dir == "" {
			locator.Dir = ws.Toolchain
		}
	}
	path, err := locator.Locate(ctx, cfg.Toolchain)
	if err != nil {
		return res, fmt.Errorf("locate toolchain: %w", err)
	}
	compiler, tc, err := reg.ProbeCompiler(ctx, engine, path)
	if err != nil {
		return res, err
	}
	logger.Info("toolchain", "compiler", tc.Compiler, "version", tc.Version, "bin", tc.BinDir)

	info, err := machine.Detect(ctx, engine)
	if err != nil {
		return res, err
	}
	logger.Info("machine", "arch", info.Arch, "name", info.Name, "threads", info.Topology.Threads)

	composed, err := flags.Compose(compiler, machine, bench, cfg.CompileFlags, cfg.LinkFlags)
	if err != nil {
		return res, err
	}

	workload := model.Workload{
		RootDir:    ws.Root,
		Binary:     bench.Name() + "-" + cfg.RunID,
		Toolchain:  tc,
		Machine:    info,
		Flags:      composed,
		RunFlags:   cfg.RunFlags,
		Iterations: cfg.Iterations,
		Size:       cfg.Size,
		Threads:    cfg.Threads,
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}
	writer := &report.Writer{
		Dir: ws.Results,
		Manifest: manifest.Build(manifest.Input{
			Benchmark: bench,
			Compiler:  compiler,
			Machine:   machine,
			Workload:  workload,
			Args:      cfg,
			Env:       env,
		}),
		MetricsFile: cfg.MetricsFile,
		Console:     opts.Console,
		Logger:      logger,
	}

	p := &pipeline.Pipeline{
		Exec:      engine,
		Benchmark: bench,
		Workload:  workload,
		Reporter:  writer,
		Logger:    logger,
		Env:       env,
		Profile:   cfg.Profile,
		Pin:       cfg.Pin && cfg.Threads > 0,
		Tracing:   cfg.Tracing,
	}
	out, err := p.Execute(ctx)
	res.Outcome = out
	if err != nil {
		return res, err
	}
	if out.Passed {
		res.ExitCode = 0
	}
	return res, nil
}

// tracer picks the eBPF controller, or a no-op one where exec tracepoints
// cannot be attached.
func tracer(cfg config.Config, logger *slog.Logger) profiling.Controller {
	ctrl := ebpf.NewController(ebpf.Config{ObjectDir: cfg.BPFObjectDir})
	if ctrl.Capabilities().Host {
		return ctrl
	}
	reason := "exec tracing not supported on " + runtime.GOOS
	logger.Warn(reason + "; continuing without it")
	return noop.NewController(reason)
}
