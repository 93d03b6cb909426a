//go:build linux

package providers

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
)

// collectHostInfo gathers host facts from uname(2), sysinfo(2),
// /etc/os-release, /proc/cpuinfo, and the current user database.
func collectHostInfo() (hostInfo, error) {
	var info hostInfo

	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return hostInfo{}, emit.NewError(emit.KindIO, "uname", err)
	}
	sysname := unix.ByteSliceToString(uts.Sysname[:])
	release := unix.ByteSliceToString(uts.Release[:])

	info.name = osReleaseName()
	if info.name == "" {
		info.name = sysname
	}
	info.osVersion = strings.TrimSpace(sysname + " " + release)

	current, err := user.Current()
	if err != nil {
		return hostInfo{}, emit.NewError(emit.KindIO, "current user", err)
	}
	info.user = current.Username

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return hostInfo{}, emit.NewError(emit.KindIO, "sysinfo", err)
	}
	totalBytes := uint64(si.Totalram) * uint64(si.Unit)
	info.memory = fmt.Sprintf("%d GiB", totalBytes>>30)

	cpu, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return hostInfo{}, emit.NewError(emit.KindIO, "read /proc/cpuinfo", err)
	}
	vendor, brand, cores, mhz := parseCPUInfo(string(cpu))
	info.cpuVendor = vendor
	info.cpuBrand = brand
	info.cpuCoreCount = strconv.Itoa(cores)
	info.cpuFrequency = mhz

	cpuNames := make([]string, 0, cores)
	for i := 0; i < cores; i++ {
		cpuNames = append(cpuNames, fmt.Sprintf("cpu%d", i))
	}
	info.cpuName = strings.Join(cpuNames, ",")

	return info, nil
}

// osReleaseName returns PRETTY_NAME from /etc/os-release, or empty when the
// file or field is unavailable.
func osReleaseName() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	return parseOSRelease(string(data))
}

// parseOSRelease extracts the PRETTY_NAME value, stripping surrounding
// quotes.
func parseOSRelease(data string) string {
	for _, line := range strings.Split(data, "\n") {
		value, ok := strings.CutPrefix(line, "PRETTY_NAME=")
		if !ok {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}

// parseCPUInfo extracts vendor, brand, logical core count, and frequency
// (integer MHz) from /proc/cpuinfo content.
func parseCPUInfo(data string) (vendor, brand string, cores int, mhz string) {
	for _, line := range strings.Split(data, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		switch label {
		case "processor":
			cores++
		case "vendor_id":
			if vendor == "" {
				vendor = value
			}
		case "model name":
			if brand == "" {
				brand = value
			}
		case "cpu MHz":
			if mhz == "" {
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					mhz = strconv.Itoa(int(f))
				}
			}
		}
	}
	return vendor, brand, cores, mhz
}
