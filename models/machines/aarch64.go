package machines

import (
	"context"
	"strconv"

	"tcbench/core/model"
)

// Aarch64 covers Arm servers. Several of them leave "Model name" empty, so
// known parts are recognised by their shape.
type Aarch64 struct{}

func NewAarch64() *Aarch64 { return &Aarch64{} }

func (m *Aarch64) Arch() string       { return "aarch64" }
func (m *Aarch64) Flags() model.Flags { return model.Flags{} }

func (m *Aarch64) Detect(ctx context.Context, p model.Prober) (model.MachineInfo, error) {
	return detect(ctx, p, m.Arch(), aarch64Name)
}

type armPart struct {
	name           string
	cpus           int
	sockets        int
	nodes          int
	coresPerSocket int
}

// Zero fields match anything.
//
//	       CPUs   C/S  Nodes Sockets
//	D03     16     4     1     4
//	D05     64    32     4     2
//	Amber  46-92  46     1    1-2
//	TX2   28-224  28     2    1-2
var armParts = []armPart{
	{name: "D03", cpus: 16, sockets: 4},
	{name: "D05", cpus: 64, sockets: 2, nodes: 4},
	{name: "Amberwing", coresPerSocket: 46, nodes: 1},
	{name: "ThunderX2", coresPerSocket: 28, nodes: 2},
}

func aarch64Name(summary map[string]string) string {
	if name := summary["Model name"]; name != "" {
		return name
	}
	num := func(key string) int {
		v, _ := strconv.Atoi(summary[key])
		return v
	}
	cpus, sockets, nodes, cps := num("CPU(s)"), num("Socket(s)"), num("NUMA node(s)"), num("Core(s) per socket")
	if cps == 0 {
		cps = num("Core(s) per cluster")
	}
	for _, part := range armParts {
		if part.cpus != 0 && part.cpus != cpus {
			continue
		}
		if part.sockets != 0 && part.sockets != sockets {
			continue
		}
		if part.nodes != 0 && part.nodes != nodes {
			continue
		}
		if part.coresPerSocket != 0 && part.coresPerSocket != cps {
			continue
		}
		return part.name
	}
	return ""
}
