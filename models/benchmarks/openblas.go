package benchmarks

import (
	"path/filepath"
	"strconv"

	"tcbench/core/model"
	"tcbench/core/parse"
)

var openblasRepos = map[string]string{
	"OpenBLAS":    "https://github.com/xianyi/OpenBLAS.git",
	"BLAS-Tester": "https://github.com/xianyi/BLAS-Tester.git",
}

// OpenBLAS builds the library single threaded and runs the BLAS-Tester
// level 1-3 drivers against it.
type OpenBLAS struct{}

func NewOpenBLAS() *OpenBLAS { return &OpenBLAS{} }

func (o *OpenBLAS) Name() string { return "openblas" }

func (o *OpenBLAS) Flags() model.Flags { return model.Flags{} }

func (o *OpenBLAS) Prepare(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, o.Name())
	if err != nil {
		return nil, err
	}
	return []model.Command{
		{"mkdir", "-p", root},
		{"git", "clone", openblasRepos["OpenBLAS"], filepath.Join(root, "OpenBLAS")},
		{"git", "clone", openblasRepos["BLAS-Tester"], filepath.Join(root, "BLAS-Tester")},
	}, nil
}

func (o *OpenBLAS) Build(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, o.Name())
	if err != nil {
		return nil, err
	}
	lib := filepath.Join(root, "OpenBLAS", "libopenblas.a")
	arch := "ARM64"
	if w.Machine.Arch == "x86_64" {
		arch = "X86"
	}
	return []model.Command{
		makeCommand(filepath.Join(root, "OpenBLAS"), w, "USE_THREAD=0"),
		makeCommand(filepath.Join(root, "BLAS-Tester"), w, "NUMTHREADS=1", "ARCH="+arch, "TEST_BLAS="+lib),
	}, nil
}

func (o *OpenBLAS) Run(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, o.Name())
	if err != nil {
		return nil, err
	}
	var cmds []model.Command
	for _, tester := range openblasTesters() {
		cmds = append(cmds, repeat(w, filepath.Join(root, "BLAS-Tester", "bin", tester))...)
	}
	return cmds, nil
}

func (o *OpenBLAS) Parser() *parse.OutputParser {
	pairs := make([]string, 0, 22)
	for i := 0; i < 10; i++ {
		n := strconv.Itoa(i)
		pairs = append(pairs, "Test"+n, `\s+`+n+`\s.*\d+\.\d\s+(\d+\.\d\d)\s+PASS`)
	}
	pairs = append(pairs, "Pass", `tests run, (\d+) passed`)
	return parse.New(pairs...)
}

func (o *OpenBLAS) Checks() map[string]model.Check {
	return map[string]model.Check{"Pass": positive}
}

// openblasTesters lists x{c,d,s,z}l{1,2,3}blastst in build order.
func openblasTesters() []string {
	var out []string
	for _, t := range []string{"c", "d", "s", "z"} {
		for _, l := range []string{"1", "2", "3"} {
			out = append(out, "x"+t+"l"+l+"blastst")
		}
	}
	return out
}
