// Package compilers holds the built-in toolchain models.
package compilers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"tcbench/core/model"
)

// driver is the identity shared by GNU-compatible toolchains: a C driver
// probed with --version, plus its C++ and Fortran siblings.
type driver struct {
	name  string
	cc    string
	cxx   string
	fc    string
	flags model.Flags
}

func (d driver) Name() string       { return d.name }
func (d driver) Flags() model.Flags { return d.flags }

// Check accepts either the C driver itself or a directory containing it.
func (d driver) Check(ctx context.Context, p model.Prober, path string) (model.Toolchain, bool, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Toolchain{}, false, nil
	}
	if err != nil {
		return model.Toolchain{}, false, err
	}

	binary := path
	if st.IsDir() {
		binary = filepath.Join(path, d.cc)
		if _, err := os.Stat(binary); errors.Is(err, fs.ErrNotExist) {
			return model.Toolchain{}, false, nil
		} else if err != nil {
			return model.Toolchain{}, false, err
		}
	}

	out, err := p.Output(ctx, binary, "--version")
	if err != nil {
		return model.Toolchain{}, false, fmt.Errorf("probe %s: %w", binary, err)
	}
	if !strings.Contains(out, d.cc) {
		return model.Toolchain{}, false, nil
	}

	binDir, err := filepath.Abs(filepath.Dir(binary))
	if err != nil {
		return model.Toolchain{}, false, err
	}
	return model.Toolchain{
		Compiler: d.name,
		Version:  d.version(out),
		Probed:   path,
		BinDir:   binDir,
		Sysroot:  filepath.Dir(binDir),
		CC:       filepath.Join(binDir, d.cc),
		CXX:      filepath.Join(binDir, d.cxx),
		FC:       filepath.Join(binDir, d.fc),
		LibDir:   filepath.Join(filepath.Dir(binDir), "lib"),
	}, true, nil
}

func (d driver) version(out string) string {
	re := regexp.MustCompile(regexp.QuoteMeta(d.cc) + `.*? (\d+\.\d+\.\d+)`)
	if m := re.FindStringSubmatch(out); len(m) > 1 {
		return m[1]
	}
	return ""
}

func (d driver) ValidateFlags(f model.Flags) model.Flags { return f }
