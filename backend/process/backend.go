package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"tcbench/core/execution"
	"tcbench/core/profiling"
)

// Options mirror child output to extra writers. Nil writers discard.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Backend runs one local subprocess in its own process group so a caller
// can terminate the whole tree.
type Backend struct {
	opts      Options
	cmd       *exec.Cmd
	stdoutBuf bytes.Buffer
	stderrBuf bytes.Buffer
}

func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Factory returns an execution.BackendFactory producing fresh backends.
func Factory(opts Options) execution.BackendFactory {
	return func() execution.ExecutionBackend { return New(opts) }
}

func (b *Backend) Name() string { return "process" }

func (b *Backend) Prepare(ctx context.Context) error {
	return ctx.Err()
}

func (b *Backend) Start(spec execution.ExecutionSpec) (execution.ExecutionHandle, error) {
	if len(spec.Args) == 0 {
		return execution.ExecutionHandle{}, fmt.Errorf("no command provided")
	}
	if b.cmd != nil {
		return execution.ExecutionHandle{}, fmt.Errorf("backend already started")
	}

	cmd := exec.Command(spec.Args[0], spec.Args[1:]...)
	if spec.Workdir != "" {
		cmd.Dir = spec.Workdir
	}
	if len(spec.Env) > 0 {
		cmd.Env = spec.Env
	}
	cmd.Stdout = writerWithMirror(&b.stdoutBuf, b.opts.Stdout)
	cmd.Stderr = writerWithMirror(&b.stderrBuf, b.opts.Stderr)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return execution.ExecutionHandle{}, err
	}
	b.cmd = cmd

	return execution.ExecutionHandle{
		ID:            fmt.Sprintf("pid-%d", cmd.Process.Pid),
		BackendHandle: cmd.Process,
	}, nil
}

func (b *Backend) Wait(h execution.ExecutionHandle) (execution.ExecutionResult, error) {
	if b.cmd == nil {
		return execution.ExecutionResult{}, fmt.Errorf("backend not started")
	}

	waitErr := b.cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		exitCode = exitCodeForError(waitErr)
	}
	return execution.ExecutionResult{
		Handle:   h,
		ExitCode: exitCode,
		Err:      waitErr,
	}, waitErr
}

// Kill signals the child's process group.
func (b *Backend) Kill(h execution.ExecutionHandle) error {
	_ = h
	if b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-b.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

func (b *Backend) Cleanup(h execution.ExecutionHandle) error {
	_ = h
	return nil
}

func (b *Backend) ProfilingInfo(h execution.ExecutionHandle) execution.BackendProfilingInfo {
	_ = h
	rootPID := 0
	if b.cmd != nil && b.cmd.Process != nil {
		rootPID = b.cmd.Process.Pid
	}
	return execution.BackendProfilingInfo{
		Identity: execution.ExecutionIdentity{RootPID: rootPID},
		SupportedModes: []profiling.Mode{
			profiling.ProfilingDisabled,
			profiling.ProfilingHost,
		},
		SupportsProfile: true,
	}
}

func (b *Backend) ProcessState() *os.ProcessState {
	if b.cmd == nil {
		return nil
	}
	return b.cmd.ProcessState
}

func (b *Backend) Stdout() []byte { return b.stdoutBuf.Bytes() }
func (b *Backend) Stderr() []byte { return b.stderrBuf.Bytes() }

func writerWithMirror(buf *bytes.Buffer, mirror io.Writer) io.Writer {
	if mirror == nil {
		return buf
	}
	return io.MultiWriter(mirror, buf)
}

func exitCodeForError(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}
	return 1
}

var _ execution.ExecutionBackend = (*Backend)(nil)
var _ execution.OutputProvider = (*Backend)(nil)
var _ execution.ProcessStateProvider = (*Backend)(nil)
