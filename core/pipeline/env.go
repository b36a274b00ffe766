package pipeline

import (
	"strconv"
	"strings"

	"tcbench/core/model"
)

// Overlay returns the child environment for one invocation: base with the
// toolchain lib dir appended to LD_LIBRARY_PATH and OMP_NUM_THREADS set
// from the thread count. base is not modified.
func Overlay(base []string, w model.Workload) []string {
	env := make([]string, 0, len(base)+2)
	ldPath := ""
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case "LD_LIBRARY_PATH":
			ldPath = value
			continue
		case "OMP_NUM_THREADS":
			if w.Threads > 0 {
				continue
			}
		}
		env = append(env, kv)
	}

	if lib := w.Toolchain.LibDir; lib != "" {
		if ldPath == "" {
			ldPath = lib
		} else {
			ldPath += ":" + lib
		}
	}
	if ldPath != "" {
		env = append(env, "LD_LIBRARY_PATH="+ldPath)
	}
	if w.Threads > 0 {
		env = append(env, "OMP_NUM_THREADS="+strconv.Itoa(w.Threads))
	}
	return env
}
