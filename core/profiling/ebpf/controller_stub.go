//go:build !linux

package ebpf

import (
	"context"
	"fmt"

	"tcbench/core/profiling"
)

const supported = false

func (c *Controller) Start(ctx context.Context, target profiling.Target) (profiling.Session, error) {
	_ = ctx
	_ = target
	return nil, fmt.Errorf("eBPF exec tracing is only supported on Linux")
}
