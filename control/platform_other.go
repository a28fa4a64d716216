//go:build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// Portable debug probes for non-Linux hosts.

package control

import (
	"os"
	"runtime"
)

// RegisterPlatformProbes sets portable debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.page_size", func() any {
		return os.Getpagesize()
	})
}
