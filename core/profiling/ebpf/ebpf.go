// Package ebpf traces exec events with precompiled CO-RE objects so that a
// run can report how many processes each benchmark invocation spawned.
package ebpf

import (
	"os"

	"tcbench/core/profiling"
)

// EnvObjectDir overrides the object directory when Config.ObjectDir is empty.
const EnvObjectDir = "TCBENCH_BPF_DIR"

const defaultObjDir = "ebpf/objects"

// Config locates the compiled tracing objects.
type Config struct {
	ObjectDir string
}

func (c Config) dir() string {
	if c.ObjectDir != "" {
		return c.ObjectDir
	}
	if env := os.Getenv(EnvObjectDir); env != "" {
		return env
	}
	return defaultObjDir
}

// Controller attaches host-side exec tracepoints per invocation.
type Controller struct {
	cfg Config
}

func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

func (c *Controller) Capabilities() profiling.Capabilities {
	return profiling.Capabilities{Host: supported}
}

var _ profiling.Controller = (*Controller)(nil)
