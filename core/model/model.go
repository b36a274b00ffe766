package model

import (
	"context"

	"tcbench/core/parse"
	"tcbench/core/topology"
)

// Kind names one of the three pluggable model families.
type Kind string

const (
	KindBenchmark Kind = "benchmark"
	KindCompiler  Kind = "compiler"
	KindMachine   Kind = "machine"
)

// Kinds lists every model family in resolution order.
func Kinds() []Kind {
	return []Kind{KindBenchmark, KindCompiler, KindMachine}
}

// Command is the argv of one subprocess invocation. An empty command is a
// valid no-op and is never executed.
type Command []string

func (c Command) Empty() bool { return len(c) == 0 }

// Flags is a compile/link flag pair. Both strings are space separated and
// order sensitive.
type Flags struct {
	Compile string `yaml:"compile"`
	Link    string `yaml:"link"`
}

// Check is a predicate over one parsed numeric field.
type Check func(value float64) bool

// Toolchain is the identity of a probed compiler driver set.
type Toolchain struct {
	Compiler string `yaml:"compiler"`
	Version  string `yaml:"version"`
	Probed   string `yaml:"probed"`
	BinDir   string `yaml:"bin_dir"`
	Sysroot  string `yaml:"sysroot"`
	CC       string `yaml:"cc"`
	CXX      string `yaml:"cxx"`
	FC       string `yaml:"fc"`
	LibDir   string `yaml:"lib_dir"`
}

// MachineInfo is the detected state of the host a run targets. It is built
// once per machine resolution and not modified afterwards.
type MachineInfo struct {
	Arch        string        `yaml:"arch"`
	Name        string        `yaml:"name"`
	Topology    topology.Info `yaml:"topology"`
	Affinity    []int         `yaml:"affinity"`
	Features    []string      `yaml:"features"`
	AllowedCPUs int           `yaml:"allowed_cpus"`
}

// Workload threads the resolved state of a run through every benchmark
// stage. Benchmarks derive their commands from it and never store it.
type Workload struct {
	RootDir    string      `yaml:"root_dir"`
	Binary     string      `yaml:"binary"`
	Toolchain  Toolchain   `yaml:"toolchain"`
	Machine    MachineInfo `yaml:"machine"`
	Flags      Flags       `yaml:"flags"`
	RunFlags   string      `yaml:"run_flags"`
	Iterations int         `yaml:"iterations"`
	Size       int         `yaml:"size"`
	Threads    int         `yaml:"threads"`
}

// Prober runs a short-lived introspection command and returns its stdout.
// Compiler identity checks and topology detection go through it.
type Prober interface {
	Output(ctx context.Context, args ...string) (string, error)
}

// Benchmark is the capability contract for workload models.
type Benchmark interface {
	Name() string
	Flags() Flags
	Prepare(w Workload) ([]Command, error)
	Build(w Workload) ([]Command, error)
	Run(w Workload) ([]Command, error)
	// Parser returns nil when the benchmark output is kept as raw text.
	Parser() *parse.OutputParser
	Checks() map[string]Check
}

// Compiler is the capability contract for toolchain models.
type Compiler interface {
	Name() string
	Flags() Flags
	// Check reports whether path (a driver binary or a bin directory) belongs
	// to this compiler. Probe failures are returned, not swallowed.
	Check(ctx context.Context, p Prober, path string) (Toolchain, bool, error)
	// ValidateFlags translates GNU-style flags into the toolchain's own
	// syntax. It is idempotent and keeps unknown flags in place.
	ValidateFlags(f Flags) Flags
}

// Machine is the capability contract for host models.
type Machine interface {
	Arch() string
	Flags() Flags
	Detect(ctx context.Context, p Prober) (MachineInfo, error)
}
