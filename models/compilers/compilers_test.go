package compilers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcbench/core/model"
)

type fakeProber struct {
	out   map[string]string
	err   error
	calls [][]string
}

func (p *fakeProber) Output(ctx context.Context, args ...string) (string, error) {
	p.calls = append(p.calls, args)
	if p.err != nil {
		return "", p.err
	}
	return p.out[args[0]], nil
}

func toolchainDir(t *testing.T, drivers ...string) string {
	t.Helper()
	root := t.TempDir()
	bin := filepath.Join(root, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	for _, d := range drivers {
		require.NoError(t, os.WriteFile(filepath.Join(bin, d), []byte("#!/bin/sh\n"), 0o755))
	}
	return bin
}

func TestGCCCheckDirectory(t *testing.T) {
	bin := toolchainDir(t, "gcc", "g++", "gfortran")
	p := &fakeProber{out: map[string]string{
		filepath.Join(bin, "gcc"): "gcc (GCC) 12.2.0\nCopyright (C) 2022\n",
	}}

	tc, ok, err := NewGCC().Check(context.Background(), p, bin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "gcc", tc.Compiler)
	assert.Equal(t, "12.2.0", tc.Version)
	assert.Equal(t, filepath.Join(bin, "g++"), tc.CXX)
	assert.Equal(t, filepath.Join(bin, "gfortran"), tc.FC)
	assert.Equal(t, filepath.Dir(bin), tc.Sysroot)
	assert.Equal(t, filepath.Join(filepath.Dir(bin), "lib"), tc.LibDir)
}

func TestCheckRejectsOtherDriver(t *testing.T) {
	bin := toolchainDir(t, "clang")
	p := &fakeProber{out: map[string]string{
		filepath.Join(bin, "clang"): "clang version 17.0.6\nTarget: x86_64-pc-linux-gnu\n",
	}}

	_, ok, err := NewGCC().Check(context.Background(), p, bin)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, p.calls, "gcc must not probe a directory without its driver")

	tc, ok, err := NewClang().Check(context.Background(), p, filepath.Join(bin, "clang"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "17.0.6", tc.Version)
	assert.Equal(t, filepath.Join(bin, "flang"), tc.FC)
}

func TestCheckMissingPath(t *testing.T) {
	_, ok, err := NewGCC().Check(context.Background(), &fakeProber{}, filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPropagatesProbeErrors(t *testing.T) {
	bin := toolchainDir(t, "gcc")
	boom := errors.New("exec format error")
	_, _, err := NewGCC().Check(context.Background(), &fakeProber{err: boom}, bin)
	assert.ErrorIs(t, err, boom)
}

func TestClangValidateFlags(t *testing.T) {
	c := NewClang()
	in := model.Flags{Compile: "-O3 -fopenmp -DFOO", Link: "-fopenmp -lm"}
	once := c.ValidateFlags(in)
	assert.Equal(t, model.Flags{Compile: "-O3 -fopenmp=libomp -DFOO", Link: "-fopenmp=libomp -lm"}, once)
	assert.Equal(t, once, c.ValidateFlags(once))
}

func TestGCCValidateFlagsIsIdentity(t *testing.T) {
	in := model.Flags{Compile: "-O2  -fopenmp", Link: "-lm"}
	assert.Equal(t, in, NewGCC().ValidateFlags(in))
}
