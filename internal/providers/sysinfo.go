package providers

import (
	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// Sysinfo emits the VERGEN_SYSINFO_* facts describing the machine the build
// ran on. Collection is OS-specific; on unsupported platforms every enabled
// fact falls back through the default policy.
type Sysinfo struct {
	Name         bool
	OsVersion    bool
	User         bool
	Memory       bool
	CpuVendor    bool
	CpuCoreCount bool
	CpuName      bool
	CpuBrand     bool
	CpuFrequency bool

	// Collect overrides host inspection. Injectable for tests.
	Collect func() (hostInfo, error)
}

// AllSysinfo returns a Sysinfo provider with every fact enabled.
func AllSysinfo() *Sysinfo {
	return &Sysinfo{
		Name:         true,
		OsVersion:    true,
		User:         true,
		Memory:       true,
		CpuVendor:    true,
		CpuCoreCount: true,
		CpuName:      true,
		CpuBrand:     true,
		CpuFrequency: true,
	}
}

// hostInfo carries the collected host facts, already formatted for
// emission.
type hostInfo struct {
	name         string
	osVersion    string
	user         string
	memory       string
	cpuVendor    string
	cpuCoreCount string
	cpuName      string
	cpuBrand     string
	cpuFrequency string
}

func (s *Sysinfo) any() bool {
	return s.Name || s.OsVersion || s.User || s.Memory || s.CpuVendor ||
		s.CpuCoreCount || s.CpuName || s.CpuBrand || s.CpuFrequency
}

func (s *Sysinfo) enabledKeys() []keys.Key {
	var ks []keys.Key
	add := func(on bool, k keys.Key) {
		if on {
			ks = append(ks, k)
		}
	}
	add(s.Name, keys.SysinfoName)
	add(s.OsVersion, keys.SysinfoOsVersion)
	add(s.User, keys.SysinfoUser)
	add(s.Memory, keys.SysinfoMemory)
	add(s.CpuVendor, keys.SysinfoCpuVendor)
	add(s.CpuCoreCount, keys.SysinfoCpuCoreCount)
	add(s.CpuName, keys.SysinfoCpuName)
	add(s.CpuBrand, keys.SysinfoCpuBrand)
	add(s.CpuFrequency, keys.SysinfoCpuFrequency)
	return ks
}

// TryPopulate implements emit.Provider.
func (s *Sysinfo) TryPopulate(env hostenv.Env, pol emit.RunPolicy, sink *emit.Sink) error {
	if !s.any() {
		return nil
	}
	collect := s.Collect
	if collect == nil {
		collect = collectHostInfo
	}

	var info hostInfo
	loaded := false
	load := func() (hostInfo, error) {
		if loaded {
			return info, nil
		}
		collected, err := collect()
		if err != nil {
			return hostInfo{}, err
		}
		info = collected
		loaded = true
		return info, nil
	}

	type fact struct {
		on    bool
		key   keys.Key
		field func(hostInfo) string
	}
	facts := []fact{
		{s.Name, keys.SysinfoName, func(i hostInfo) string { return i.name }},
		{s.OsVersion, keys.SysinfoOsVersion, func(i hostInfo) string { return i.osVersion }},
		{s.User, keys.SysinfoUser, func(i hostInfo) string { return i.user }},
		{s.Memory, keys.SysinfoMemory, func(i hostInfo) string { return i.memory }},
		{s.CpuVendor, keys.SysinfoCpuVendor, func(i hostInfo) string { return i.cpuVendor }},
		{s.CpuCoreCount, keys.SysinfoCpuCoreCount, func(i hostInfo) string { return i.cpuCoreCount }},
		{s.CpuName, keys.SysinfoCpuName, func(i hostInfo) string { return i.cpuName }},
		{s.CpuBrand, keys.SysinfoCpuBrand, func(i hostInfo) string { return i.cpuBrand }},
		{s.CpuFrequency, keys.SysinfoCpuFrequency, func(i hostInfo) string { return i.cpuFrequency }},
	}
	for _, f := range facts {
		if !f.on {
			continue
		}
		field := f.field
		err := emit.Resolve(env, pol, f.key, false, func() (string, error) {
			i, err := load()
			if err != nil {
				return "", err
			}
			return field(i), nil
		}, sink)
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults implements emit.Provider.
func (s *Sysinfo) ApplyDefaults(cfg emit.DefaultConfig, env hostenv.Env, sink *emit.Sink) error {
	if cfg.FailOnError {
		return cfg.Err
	}
	for _, k := range s.enabledKeys() {
		emit.AddDefault(env, k, sink)
	}
	return nil
}
