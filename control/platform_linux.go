//go:build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes.

package control

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// RegisterPlatformProbes sets Linux-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.page_size", func() any {
		return unix.Getpagesize()
	})
	dp.RegisterProbe("platform.memory", func() any {
		var si unix.Sysinfo_t
		if err := unix.Sysinfo(&si); err != nil {
			return err.Error()
		}
		unit := uint64(si.Unit)
		return map[string]uint64{
			"total": uint64(si.Totalram) * unit,
			"free":  uint64(si.Freeram) * unit,
		}
	})
}
