//go:build !linux

package providers

import "github.com/rustyhorde/vergen-sub001/internal/emit"

// collectHostInfo reports host inspection as unsupported on this platform;
// the default policy substitutes sentinels for every enabled fact.
func collectHostInfo() (hostInfo, error) {
	return hostInfo{}, emit.NewError(emit.KindUnknown, "host inspection is not supported on this platform", nil)
}
