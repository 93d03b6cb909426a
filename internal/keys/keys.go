// Package keys defines the registry of build facts the generator can emit.
//
// Each Key names one fact (a build timestamp, a git SHA, the rustc channel,
// ...) and maps to a fixed upper-snake environment variable name. The names
// are a stability contract with downstream consumers that read them at
// compile time: names are never renamed or removed across releases, only
// added. Ordering and equality derive from declaration order, which gives
// the emitted directive stream a deterministic order regardless of the
// order providers ran in.
package keys

// Key identifies one emitted build fact.
type Key int

// The full registry, grouped by provider. Declaration order is the total
// order used at serialization time.
const (
	// Build facts.
	BuildDate Key = iota
	BuildTimestamp

	// Cargo context facts.
	CargoDebug
	CargoFeatures
	CargoOptLevel
	CargoTargetTriple
	CargoDependencies

	// Git facts.
	GitBranch
	GitCommitAuthorEmail
	GitCommitAuthorName
	GitCommitCount
	GitCommitDate
	GitCommitMessage
	GitCommitTimestamp
	GitDescribe
	GitSha
	GitDirty

	// Rustc facts.
	RustcChannel
	RustcCommitDate
	RustcCommitHash
	RustcHostTriple
	RustcLlvmVersion
	RustcSemver

	// Host system facts.
	SysinfoName
	SysinfoOsVersion
	SysinfoUser
	SysinfoMemory
	SysinfoCpuVendor
	SysinfoCpuCoreCount
	SysinfoCpuName
	SysinfoCpuBrand
	SysinfoCpuFrequency

	// keyCount marks the end of the registry; it is not a valid Key.
	keyCount
)

// names maps each Key to its emitted environment variable name. Indexed by
// the Key value itself, so the two declarations must stay in sync.
var names = [...]string{
	BuildDate:      "VERGEN_BUILD_DATE",
	BuildTimestamp: "VERGEN_BUILD_TIMESTAMP",

	CargoDebug:        "VERGEN_CARGO_DEBUG",
	CargoFeatures:     "VERGEN_CARGO_FEATURES",
	CargoOptLevel:     "VERGEN_CARGO_OPT_LEVEL",
	CargoTargetTriple: "VERGEN_CARGO_TARGET_TRIPLE",
	CargoDependencies: "VERGEN_CARGO_DEPENDENCIES",

	GitBranch:            "VERGEN_GIT_BRANCH",
	GitCommitAuthorEmail: "VERGEN_GIT_COMMIT_AUTHOR_EMAIL",
	GitCommitAuthorName:  "VERGEN_GIT_COMMIT_AUTHOR_NAME",
	GitCommitCount:       "VERGEN_GIT_COMMIT_COUNT",
	GitCommitDate:        "VERGEN_GIT_COMMIT_DATE",
	GitCommitMessage:     "VERGEN_GIT_COMMIT_MESSAGE",
	GitCommitTimestamp:   "VERGEN_GIT_COMMIT_TIMESTAMP",
	GitDescribe:          "VERGEN_GIT_DESCRIBE",
	GitSha:               "VERGEN_GIT_SHA",
	GitDirty:             "VERGEN_GIT_DIRTY",

	RustcChannel:     "VERGEN_RUSTC_CHANNEL",
	RustcCommitDate:  "VERGEN_RUSTC_COMMIT_DATE",
	RustcCommitHash:  "VERGEN_RUSTC_COMMIT_HASH",
	RustcHostTriple:  "VERGEN_RUSTC_HOST_TRIPLE",
	RustcLlvmVersion: "VERGEN_RUSTC_LLVM_VERSION",
	RustcSemver:      "VERGEN_RUSTC_SEMVER",

	SysinfoName:         "VERGEN_SYSINFO_NAME",
	SysinfoOsVersion:    "VERGEN_SYSINFO_OS_VERSION",
	SysinfoUser:         "VERGEN_SYSINFO_USER",
	SysinfoMemory:       "VERGEN_SYSINFO_TOTAL_MEMORY",
	SysinfoCpuVendor:    "VERGEN_SYSINFO_CPU_VENDOR",
	SysinfoCpuCoreCount: "VERGEN_SYSINFO_CPU_CORE_COUNT",
	SysinfoCpuName:      "VERGEN_SYSINFO_CPU_NAME",
	SysinfoCpuBrand:     "VERGEN_SYSINFO_CPU_BRAND",
	SysinfoCpuFrequency: "VERGEN_SYSINFO_CPU_FREQUENCY",
}

// Name returns the fixed environment variable name for the key. The name
// doubles as the per-key override variable consulted by the default policy.
func (k Key) Name() string {
	if k < 0 || k >= keyCount {
		return ""
	}
	return names[k]
}

// String implements fmt.Stringer.
func (k Key) String() string { return k.Name() }

// Group identifies the provider family a key belongs to.
type Group string

// Provider groups.
const (
	GroupBuild   Group = "build"
	GroupCargo   Group = "cargo"
	GroupGit     Group = "git"
	GroupRustc   Group = "rustc"
	GroupSysinfo Group = "sysinfo"
)

// Group returns the provider family for the key.
func (k Key) Group() Group {
	switch {
	case k >= BuildDate && k <= BuildTimestamp:
		return GroupBuild
	case k >= CargoDebug && k <= CargoDependencies:
		return GroupCargo
	case k >= GitBranch && k <= GitDirty:
		return GroupGit
	case k >= RustcChannel && k <= RustcSemver:
		return GroupRustc
	default:
		return GroupSysinfo
	}
}

// All returns every key in the registry in declaration order.
func All() []Key {
	all := make([]Key, 0, int(keyCount))
	for k := Key(0); k < keyCount; k++ {
		all = append(all, k)
	}
	return all
}
