// Package models registers the built-in benchmark, compiler and machine
// implementations.
package models

import (
	"tcbench/core/model"
	"tcbench/core/registry"
	"tcbench/models/benchmarks"
	"tcbench/models/compilers"
	"tcbench/models/machines"
)

// Register adds every built-in model to r. Compilers are registered in
// probe order: gcc before clang.
func Register(r *registry.Registry) {
	r.Register(model.KindBenchmark, "himeno", func() any { return benchmarks.NewHimeno() })
	r.Register(model.KindBenchmark, "lulesh", func() any { return benchmarks.NewLulesh() })
	r.Register(model.KindBenchmark, "openblas", func() any { return benchmarks.NewOpenBLAS() })

	r.Register(model.KindCompiler, "gcc", func() any { return compilers.NewGCC() })
	r.Register(model.KindCompiler, "clang", func() any { return compilers.NewClang() })

	r.Register(model.KindMachine, "x86_64", func() any { return machines.NewX86_64() })
	r.Register(model.KindMachine, "aarch64", func() any { return machines.NewAarch64() })
}

// Builtin returns a registry holding only the built-in models.
func Builtin() *registry.Registry {
	r := registry.New()
	Register(r)
	return r
}
