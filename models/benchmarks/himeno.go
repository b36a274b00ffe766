package benchmarks

import (
	"path/filepath"

	"tcbench/core/model"
	"tcbench/core/parse"
)

const (
	himenoURL        = "http://accc.riken.jp/en/wp-content/uploads/sites/2/2015/07/himenobmt.c.zip"
	himenoExecutable = "bmt"
	himenoDefaultSz  = 2
)

// Himeno is Dr. Ryutaro Himeno's Poisson solver benchmark.
type Himeno struct{}

func NewHimeno() *Himeno { return &Himeno{} }

func (h *Himeno) Name() string { return "himeno" }

func (h *Himeno) Flags() model.Flags { return model.Flags{} }

func (h *Himeno) Prepare(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, h.Name())
	if err != nil {
		return nil, err
	}
	return []model.Command{
		{"mkdir", "-p", root},
		{"wget", "-P", root, himenoURL},
		{"unzip", "-o", filepath.Join(root, "himenobmt.c.zip"), "-d", root},
		{"lhasa", "-xw=" + root, filepath.Join(root, "himenobmt.c.lzh")},
	}, nil
}

func (h *Himeno) Build(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, h.Name())
	if err != nil {
		return nil, err
	}
	cmds := []model.Command{makeCommand(root, w, "MODEL="+himenoModel(w.Size))}
	if w.Binary != "" {
		cmds = append(cmds, model.Command{"mv", filepath.Join(root, himenoExecutable), filepath.Join(root, w.Binary)})
	}
	return cmds, nil
}

func (h *Himeno) Run(w model.Workload) ([]model.Command, error) {
	root, err := dir(w, h.Name())
	if err != nil {
		return nil, err
	}
	binary := himenoExecutable
	if w.Binary != "" {
		binary = w.Binary
	}
	return repeat(w, filepath.Join(root, binary)), nil
}

func (h *Himeno) Parser() *parse.OutputParser {
	return parse.New(
		"mimax", `\bmimax\b\s+=\s+(\d+)`,
		"mjmax", `\bmjmax\b\s+=\s+(\d+)`,
		"mkmax", `\bmkmax\b\s+=\s+(\d+)`,
		"imax", `\bimax\b\s+=\s+(\d+)`,
		"jmax", `\bjmax\b\s+=\s+(\d+)`,
		"kmax", `\bkmax\b\s+=\s*(\d+)`,
		"cpu", `cpu\s+:\s+(\d+[^\s]*)`,
		"gosa", `Gosa\s+:\s+(\d+[^\s]*)`,
		"MFLOPS", `MFLOPS measured\s+:\s+(\d+\.\d+)`,
		"score", `Score based on MMX Pentium 200MHz\s+:\s+(\d+\.\d+)`,
	)
}

func (h *Himeno) Checks() map[string]model.Check {
	return map[string]model.Check{"MFLOPS": positive}
}

// himenoModel maps the problem size onto the makefile grid presets.
func himenoModel(size int) string {
	if size == 0 {
		size = himenoDefaultSz
	}
	switch {
	case size >= 3:
		return "LARGE"
	case size == 2:
		return "MIDDLE"
	default:
		return "SMALL"
	}
}
