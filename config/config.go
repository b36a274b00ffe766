// Package config holds the harness options and their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"tcbench/core/model"
	"tcbench/core/profiling"
)

// Config drives one harness run. Every field can come from the config file
// or the command line; the command line wins.
type Config struct {
	Benchmark string `yaml:"benchmark" validate:"required"`
	// Machine is a machine model name. Empty selects the host architecture.
	Machine string `yaml:"machine"`
	// Toolchain is a driver name, a path, or a file:// or http(s):// URL.
	Toolchain    string `yaml:"toolchain" validate:"required"`
	CompileFlags string `yaml:"compile_flags"`
	LinkFlags    string `yaml:"link_flags"`
	RunFlags     string `yaml:"run_flags"`
	Iterations   int    `yaml:"iterations" validate:"gte=1"`
	// Size is the problem size; 0 keeps the benchmark's default.
	Size int `yaml:"size" validate:"gte=0"`
	// Threads is the worker count; 0 leaves OMP_NUM_THREADS and pinning to the host.
	Threads   int    `yaml:"threads" validate:"gte=0"`
	Verbosity int    `yaml:"verbosity" validate:"gte=0"`
	RunID     string `yaml:"run_id" validate:"omitempty,excludesall=/\\"`
	RootDir   string `yaml:"root_dir" validate:"required"`

	// Profile wraps RUN invocations with perf stat.
	Profile bool `yaml:"profile"`
	// Pin wraps RUN invocations with taskset using the planned affinity.
	Pin          bool           `yaml:"pin"`
	Tracing      profiling.Mode `yaml:"tracing" validate:"oneof=disabled host"`
	BPFObjectDir string         `yaml:"bpf_object_dir"`
	MetricsFile  string         `yaml:"metrics_file"`
}

// Defaults returns the baseline configuration: one iteration with the gcc
// found on PATH, tracing off.
func Defaults() Config {
	return Config{
		Toolchain:  "gcc",
		Iterations: 1,
		RootDir:    "runs",
		Pin:        true,
		Tracing:    profiling.ProfilingDisabled,
	}
}

// LoadFile overlays a YAML file onto base. Unknown keys are rejected.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	cfg := base
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return base, model.ConfigError("parse %s: %v", path, err)
	}
	return cfg, nil
}

// Fill sets the run id and machine when they are empty.
func (c Config) Fill() Config {
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	if c.Machine == "" {
		c.Machine = HostArch()
	}
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate ensures the config is usable.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.ConfigError("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), describe(fe)))
	}
	return model.ConfigError("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// NormalizeArch maps Go and kernel architecture spellings onto machine
// model names.
func NormalizeArch(arch string) string {
	switch arch {
	case "amd64", "x86-64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return arch
	}
}
