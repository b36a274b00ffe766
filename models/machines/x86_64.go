package machines

import (
	"context"

	"tcbench/core/model"
)

// X86_64 covers Intel and AMD hosts, which report a usable "Model name".
type X86_64 struct{}

func NewX86_64() *X86_64 { return &X86_64{} }

func (m *X86_64) Arch() string       { return "x86_64" }
func (m *X86_64) Flags() model.Flags { return model.Flags{} }

func (m *X86_64) Detect(ctx context.Context, p model.Prober) (model.MachineInfo, error) {
	return detect(ctx, p, m.Arch(), func(summary map[string]string) string {
		return summary["Model name"]
	})
}
