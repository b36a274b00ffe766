package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"time"

	"tcbench/core/profiling"
	"tcbench/core/results"
)

// Engine runs invocations synchronously, one backend per spec, with
// optional exec tracing.
type Engine struct {
	NewBackend BackendFactory
	Profiler   profiling.Controller
	Logger     *slog.Logger
}

// Run blocks until the child exits. There is no timeout: a hung child hangs
// the caller. The returned error is reserved for failures to launch or reap
// the process; a non-zero exit is reported through ExitCode.
func (e Engine) Run(ctx context.Context, spec ExecutionSpec) (ExecutionResult, error) {
	result := ExecutionResult{}
	if len(spec.Args) == 0 {
		err := errors.New("no command provided")
		result.Err = err
		return result, err
	}
	if e.NewBackend == nil {
		err := errors.New("backend required")
		result.Err = err
		return result, err
	}
	backend := e.NewBackend()
	e.logger().Debug("exec", "backend", backend.Name(), "args", strings.Join(spec.Args, " "))

	if err := backend.Prepare(ctx); err != nil {
		result.Err = err
		return result, err
	}

	// The session is attached before the child starts so the root execve is
	// observed. Events are buffered until the root PID is known.
	var (
		session  profiling.Session
		buffered []profiling.Event
		wg       sync.WaitGroup
	)
	if spec.Profiling != "" && spec.Profiling != profiling.ProfilingDisabled {
		if e.Profiler == nil {
			result.ProfilingError = errors.New("profiling requested but profiler not configured")
		} else {
			session, result.ProfilingError = e.Profiler.Start(ctx, profiling.Target{Mode: spec.Profiling})
			if result.ProfilingError == nil {
				result.ProfilingAttached = true
				wg.Add(2)
				go func() {
					defer wg.Done()
					for ev := range session.Events() {
						buffered = append(buffered, ev)
					}
				}()
				go func() {
					defer wg.Done()
					for err := range session.Errors() {
						e.logger().Debug("profiling", "error", err)
					}
				}()
			}
		}
		if result.ProfilingError != nil {
			e.logger().Warn("exec tracing unavailable", "error", result.ProfilingError)
		}
	}
	closeSession := func() {
		if session != nil {
			_ = session.Close()
		}
		wg.Wait()
	}

	result.StartedAt = time.Now()
	handle, err := backend.Start(spec)
	result.Handle = handle
	if err != nil {
		closeSession()
		result.Err = fmt.Errorf("start %s: %w", spec.Args[0], err)
		_ = backend.Cleanup(handle)
		return result, result.Err
	}

	waitRes, waitErr := backend.Wait(handle)
	result.CompletedAt = time.Now()
	result.ExitCode = waitRes.ExitCode
	if waitErr != nil && !isExitError(waitErr) {
		result.Err = waitErr
	}

	closeSession()

	result.Resources = ResourcesFromBackend(backend)
	if result.ProfilingAttached {
		counter := profiling.NewExecCounter(backend.ProfilingInfo(handle).Identity.RootPID)
		for _, ev := range buffered {
			counter.Observe(ev)
		}
		result.Resources.Execs = counter.Count()
	}
	if out, ok := backend.(OutputProvider); ok {
		result.Stdout = bytes.Clone(out.Stdout())
		result.Stderr = bytes.Clone(out.Stderr())
	}
	if extra, ok := backend.(ExtraErrorProvider); ok {
		for _, msg := range extra.ExtraErrors() {
			e.logger().Warn("backend", "error", msg)
		}
	}

	if cleanupErr := backend.Cleanup(handle); cleanupErr != nil && result.Err == nil {
		result.Err = cleanupErr
	}
	return result, result.Err
}

// Output runs args and returns stdout. A non-zero exit is an error carrying
// stderr, so callers can use it for introspection commands.
func (e Engine) Output(ctx context.Context, args ...string) (string, error) {
	res, err := e.Run(ctx, ExecutionSpec{Args: args})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return string(res.Stdout), fmt.Errorf("%s exited %d: %s", strings.Join(args, " "), res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return string(res.Stdout), nil
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// ExitCoder is implemented by errors that carry a process exit status.
type ExitCoder interface {
	ExitCode() int
}

func isExitError(err error) bool {
	var coder ExitCoder
	return errors.As(err, &coder)
}

// ResourcesFromBackend reads CPU time and peak RSS from the reaped process.
func ResourcesFromBackend(b ExecutionBackend) results.Resources {
	if psProvider, ok := b.(ProcessStateProvider); ok {
		if ps := psProvider.ProcessState(); ps != nil {
			cpu := ps.UserTime() + ps.SystemTime()
			resources := results.Resources{
				CPUTimeMs: cpu.Milliseconds(),
			}
			if usage, ok := ps.SysUsage().(*syscall.Rusage); ok {
				resources.MaxRSSKB = int64(usage.Maxrss)
			}
			return resources
		}
	}
	return results.Resources{}
}
