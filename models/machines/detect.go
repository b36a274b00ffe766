// Package machines holds the built-in host models.
package machines

import (
	"context"
	"runtime"

	"golang.org/x/sys/cpu"

	"tcbench/core/model"
	"tcbench/core/topology"
)

// namer picks a marketing name from the lscpu summary; "" when unknown.
type namer func(summary map[string]string) string

// detect gathers topology through lscpu and plans the affinity list.
func detect(ctx context.Context, p model.Prober, arch string, name namer) (model.MachineInfo, error) {
	out, err := p.Output(ctx, "lscpu")
	if err != nil {
		return model.MachineInfo{}, &model.TopologyError{Command: "lscpu", Err: err}
	}
	summary := topology.ParseSummary(out)
	info, err := topology.FromSummary(summary)
	if err != nil {
		return model.MachineInfo{}, &model.TopologyError{Command: "lscpu", Err: err}
	}

	caches, err := p.Output(ctx, "lscpu", "-p=CPU,CACHE")
	if err != nil {
		return model.MachineInfo{}, &model.TopologyError{Command: "lscpu -p=CPU,CACHE", Err: err}
	}
	if info, err = topology.ApplyCacheSpans(info, caches); err != nil {
		return model.MachineInfo{}, &model.TopologyError{Command: "lscpu -p=CPU,CACHE", Err: err}
	}

	affinity, err := topology.Plan(info)
	if err != nil {
		return model.MachineInfo{}, &model.TopologyError{Command: "lscpu", Err: err}
	}

	return model.MachineInfo{
		Arch:        arch,
		Name:        name(summary),
		Topology:    info,
		Affinity:    affinity,
		Features:    features(arch),
		AllowedCPUs: allowedCPUs(),
	}, nil
}

// features lists the SIMD extensions of the running host when it matches
// arch. A machine model describing another architecture reports none.
func features(arch string) []string {
	var out []string
	add := func(name string, ok bool) {
		if ok {
			out = append(out, name)
		}
	}
	switch {
	case arch == "x86_64" && runtime.GOARCH == "amd64":
		add("sse4.1", cpu.X86.HasSSE41)
		add("sse4.2", cpu.X86.HasSSE42)
		add("aes", cpu.X86.HasAES)
		add("pclmulqdq", cpu.X86.HasPCLMULQDQ)
		add("avx", cpu.X86.HasAVX)
		add("avx2", cpu.X86.HasAVX2)
		add("fma", cpu.X86.HasFMA)
		add("avx512f", cpu.X86.HasAVX512F)
		add("avx512bw", cpu.X86.HasAVX512BW)
		add("avx512dq", cpu.X86.HasAVX512DQ)
		add("avx512vl", cpu.X86.HasAVX512VL)
		add("avx512vnni", cpu.X86.HasAVX512VNNI)
	case arch == "aarch64" && runtime.GOARCH == "arm64":
		add("asimd", cpu.ARM64.HasASIMD)
		add("asimdhp", cpu.ARM64.HasASIMDHP)
		add("fphp", cpu.ARM64.HasFPHP)
		add("sve", cpu.ARM64.HasSVE)
		add("atomics", cpu.ARM64.HasATOMICS)
	}
	return out
}
