//go:build linux

package machines

import "golang.org/x/sys/unix"

// allowedCPUs is the size of the harness's own scheduler mask. It can be
// smaller than the topology's thread count inside cgroups or under taskset.
func allowedCPUs() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0
	}
	return set.Count()
}
