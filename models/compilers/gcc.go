package compilers

import "tcbench/core/model"

// GCC is the GNU compiler collection.
type GCC struct{ driver }

func NewGCC() *GCC {
	return &GCC{driver{
		name:  "gcc",
		cc:    "gcc",
		cxx:   "g++",
		fc:    "gfortran",
		flags: model.Flags{Compile: "-O3 -ffast-math -funroll-loops"},
	}}
}
