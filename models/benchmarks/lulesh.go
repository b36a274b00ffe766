package benchmarks

import (
	"path/filepath"
	"strconv"

	"tcbench/core/model"
	"tcbench/core/parse"
)

const (
	luleshURL        = "https://github.com/BaptisteGerondeau/LULESH.git"
	luleshExecutable = "lulesh2.0"
	// luleshEdge scales the size option onto LULESH's per-domain edge; size 2
	// gives the upstream default of 30.
	luleshEdge = 15
)

// Lulesh is the LLNL shock hydrodynamics proxy application.
type Lulesh struct{}

func NewLulesh() *Lulesh { return &Lulesh{} }

func (l *Lulesh) Name() string { return "lulesh" }

func (l *Lulesh) Flags() model.Flags {
	return model.Flags{Compile: "-DUSE_MPI=0 -fopenmp", Link: "-O3 -fopenmp"}
}

func (l *Lulesh) Prepare(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, l.Name())
	if err != nil {
		return nil, err
	}
	return []model.Command{{"git", "clone", luleshURL, root}}, nil
}

func (l *Lulesh) Build(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, l.Name())
	if err != nil {
		return nil, err
	}
	return []model.Command{{
		"make", "-C", root,
		"CXX=" + w.Toolchain.CXX,
		"CXXFLAGS=" + w.Flags.Compile,
		"LDFLAGS=" + w.Flags.Link,
		"LULESH_EXEC=" + l.binary(w),
	}}, nil
}

func (l *Lulesh) Run(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, l.Name())
	if err != nil {
		return nil, err
	}
	size := w.Size
	if size < 1 {
		size = 2
	}
	return repeat(w, filepath.Join(root, l.binary(w)), "-s", strconv.Itoa(size*luleshEdge)), nil
}

func (l *Lulesh) Parser() *parse.OutputParser {
	return parse.New(
		"iterations", `Iteration count\s+=\s+(\d+)`,
		"energy", `Final Origin Energy\s+=\s+([-+.\deE]+)`,
		"elapsed", `Elapsed time\s+=\s+(\d+\.?\d*)`,
		"grind", `Grind time \(us/z/c\)\s+=\s+(\d+\.?\d*)`,
		"FOM", `FOM\s+=\s+(\d+\.?\d*)`,
	)
}

func (l *Lulesh) Checks() map[string]model.Check {
	return map[string]model.Check{"FOM": positive}
}

func (l *Lulesh) binary(w model.Workload) string {
	if w.Binary != "" {
		return w.Binary
	}
	return luleshExecutable
}
