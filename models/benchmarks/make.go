// Package benchmarks holds the built-in workload models.
package benchmarks

import (
	"errors"
	"path/filepath"
	"strings"

	"tcbench/core/model"
)

var errNoRoot = errors.New("workload root dir not set")

// dir is the benchmark's private source/build directory inside the run root.
func dir(w model.Workload, name string) (string, error) {
	if w.RootDir == "" {
		return "", errNoRoot
	}
	return filepath.Join(w.RootDir, name), nil
}

// makeCommand builds a make invocation passing the probed drivers and the
// composed flags. Extra tokens follow the standard variables.
func makeCommand(srcDir string, w model.Workload, extra ...string) model.Command {
	cmd := model.Command{
		"make", "-C", srcDir,
		"CC=" + w.Toolchain.CC,
		"CXX=" + w.Toolchain.CXX,
		"FC=" + w.Toolchain.FC,
		"CFLAGS=" + w.Flags.Compile,
		"CXXFLAGS=" + w.Flags.Compile,
		"LDFLAGS=" + w.Flags.Link,
	}
	return append(cmd, extra...)
}

// repeat returns one invocation of binary per iteration.
func repeat(w model.Workload, binary string, args ...string) []model.Command {
	n := w.Iterations
	if n < 1 {
		n = 1
	}
	cmds := make([]model.Command, 0, n)
	for i := 0; i < n; i++ {
		cmd := model.Command{binary}
		cmd = append(cmd, args...)
		cmd = append(cmd, strings.Fields(w.RunFlags)...)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func positive(v float64) bool { return v > 0 }
