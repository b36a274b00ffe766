package benchmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcbench/core/model"
)

func workload() model.Workload {
	return model.Workload{
		RootDir:    "/runs/r1",
		Binary:     "bench-r1",
		Iterations: 3,
		Size:       2,
		RunFlags:   "-v",
		Flags:      model.Flags{Compile: "-O3 -fopenmp", Link: "-fopenmp"},
		Toolchain:  model.Toolchain{CC: "/tc/bin/gcc", CXX: "/tc/bin/g++", FC: "/tc/bin/gfortran"},
		Machine:    model.MachineInfo{Arch: "x86_64"},
	}
}

func TestHimenoCommands(t *testing.T) {
	h := NewHimeno()
	w := workload()

	prep, err := h.Prepare(w)
	require.NoError(t, err)
	require.Len(t, prep, 4)
	assert.Equal(t, model.Command{"mkdir", "-p", "/runs/r1/himeno"}, prep[0])
	assert.Equal(t, "lhasa", prep[3][0])

	build, err := h.Build(w)
	require.NoError(t, err)
	require.Len(t, build, 2)
	assert.Contains(t, build[0], "MODEL=MIDDLE")
	assert.Contains(t, build[0], "CFLAGS=-O3 -fopenmp")
	assert.Equal(t, model.Command{"mv", "/runs/r1/himeno/bmt", "/runs/r1/himeno/bench-r1"}, build[1])

	run, err := h.Run(w)
	require.NoError(t, err)
	require.Len(t, run, 3)
	assert.Equal(t, model.Command{"/runs/r1/himeno/bench-r1", "-v"}, run[0])
}

func TestHimenoSizePresets(t *testing.T) {
	assert.Equal(t, "SMALL", himenoModel(1))
	assert.Equal(t, "MIDDLE", himenoModel(0))
	assert.Equal(t, "MIDDLE", himenoModel(2))
	assert.Equal(t, "LARGE", himenoModel(5))
}

func TestHimenoParser(t *testing.T) {
	out := `mimax = 129 mjmax = 65 mkmax = 65
imax = 128 jmax = 64 kmax =64
cpu : 2.345 sec.
Loop executed for 300 times
Gosa : 1.234e-06
MFLOPS measured : 1234.56
Score based on MMX Pentium 200MHz : 37.65
`
	fields := NewHimeno().Parser().Parse(out)
	assert.Equal(t, "129", fields["mimax"])
	assert.Equal(t, "64", fields["kmax"])
	assert.Equal(t, "2.345", fields["cpu"])
	assert.Equal(t, "1.234e-06", fields["gosa"])
	assert.Equal(t, "1234.56", fields["MFLOPS"])
	assert.Equal(t, "37.65", fields["score"])
}

func TestLuleshCommands(t *testing.T) {
	l := NewLulesh()
	w := workload()

	assert.Equal(t, model.Flags{Compile: "-DUSE_MPI=0 -fopenmp", Link: "-O3 -fopenmp"}, l.Flags())

	build, err := l.Build(w)
	require.NoError(t, err)
	require.Len(t, build, 1)
	assert.Contains(t, build[0], "CXX=/tc/bin/g++")
	assert.Contains(t, build[0], "LULESH_EXEC=bench-r1")

	run, err := l.Run(w)
	require.NoError(t, err)
	require.Len(t, run, 3)
	assert.Equal(t, model.Command{"/runs/r1/lulesh/bench-r1", "-s", "30", "-v"}, run[2])
}

func TestLuleshParser(t *testing.T) {
	out := `Run completed:
   Problem size        =  30
   MPI tasks           =  1
   Iteration count     =  932
   Final Origin Energy =  2.025075e+05
Elapsed time         =      10.29 (s)
Grind time (us/z/c)  =  0.40901499 (per dom)  ( 0.40901499 overall)
FOM                  =  2444.9227 (z/s)
`
	fields := NewLulesh().Parser().Parse(out)
	assert.Equal(t, "932", fields["iterations"])
	assert.Equal(t, "2.025075e+05", fields["energy"])
	assert.Equal(t, "10.29", fields["elapsed"])
	assert.Equal(t, "0.40901499", fields["grind"])
	assert.Equal(t, "2444.9227", fields["FOM"])
}

func TestOpenBLASCommands(t *testing.T) {
	o := NewOpenBLAS()
	w := workload()
	w.Iterations = 1

	build, err := o.Build(w)
	require.NoError(t, err)
	require.Len(t, build, 2)
	assert.Contains(t, build[0], "USE_THREAD=0")
	assert.Contains(t, build[1], "ARCH=X86")
	assert.Contains(t, build[1], "TEST_BLAS=/runs/r1/openblas/OpenBLAS/libopenblas.a")

	w.Machine.Arch = "aarch64"
	build, err = o.Build(w)
	require.NoError(t, err)
	assert.Contains(t, build[1], "ARCH=ARM64")

	run, err := o.Run(w)
	require.NoError(t, err)
	require.Len(t, run, 12)
	assert.Equal(t, "/runs/r1/openblas/BLAS-Tester/bin/xcl1blastst", run[0][0])
	assert.Equal(t, "/runs/r1/openblas/BLAS-Tester/bin/xzl3blastst", run[11][0])
}

func TestOpenBLASParser(t *testing.T) {
	out := `   0     N    1.0     12.34  PASS
   1     N    1.0     56.78  PASS
10 tests run, 10 passed
`
	fields := NewOpenBLAS().Parser().Parse(out)
	assert.Equal(t, "12.34", fields["Test0"])
	assert.Equal(t, "56.78", fields["Test1"])
	assert.Equal(t, "10", fields["Pass"])
	_, ok := fields["Test2"]
	assert.False(t, ok)
}

func TestStagesNeedRootDir(t *testing.T) {
	for _, b := range []model.Benchmark{NewHimeno(), NewLulesh(), NewOpenBLAS()} {
		_, err := b.Prepare(model.Workload{})
		assert.ErrorIs(t, err, errNoRoot, b.Name())
	}
}
