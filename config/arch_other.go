//go:build !unix

package config

import "runtime"

// HostArch is the architecture the harness was built for.
func HostArch() string {
	return NormalizeArch(runtime.GOARCH)
}
