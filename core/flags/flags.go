// Package flags merges model and user build flags.
package flags

import (
	"strings"

	"tcbench/core/model"
)

// Compose concatenates compiler, machine, benchmark and user flags in that
// order, so later fragments override earlier ones on order-sensitive
// toolchains, then lets the compiler translate the result.
func Compose(c model.Compiler, m model.Machine, b model.Benchmark, userCompile, userLink string) (model.Flags, error) {
	switch {
	case c == nil:
		return model.Flags{}, model.ConfigError("compiler model not resolved")
	case m == nil:
		return model.Flags{}, model.ConfigError("machine model not resolved")
	case b == nil:
		return model.Flags{}, model.ConfigError("benchmark model not resolved")
	}

	cf, mf, bf := c.Flags(), m.Flags(), b.Flags()
	merged := model.Flags{
		Compile: join(cf.Compile, mf.Compile, bf.Compile, userCompile),
		Link:    join(cf.Link, mf.Link, bf.Link, userLink),
	}
	return c.ValidateFlags(merged), nil
}

func join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
