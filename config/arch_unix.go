//go:build unix

package config

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// HostArch is the kernel machine name of the running host.
func HostArch() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return NormalizeArch(runtime.GOARCH)
	}
	return NormalizeArch(unix.ByteSliceToString(u.Machine[:]))
}
