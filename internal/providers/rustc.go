package providers

import (
	"strings"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// Rustc emits the VERGEN_RUSTC_* facts from `rustc -vV` verbose version
// output.
type Rustc struct {
	Channel     bool
	CommitDate  bool
	CommitHash  bool
	HostTriple  bool
	LlvmVersion bool
	Semver      bool

	// Runner overrides subprocess execution. Injectable for tests.
	Runner CmdRunner
}

// AllRustc returns a Rustc provider with every fact enabled.
func AllRustc() *Rustc {
	return &Rustc{
		Channel:     true,
		CommitDate:  true,
		CommitHash:  true,
		HostTriple:  true,
		LlvmVersion: true,
		Semver:      true,
	}
}

func (r *Rustc) any() bool {
	return r.Channel || r.CommitDate || r.CommitHash || r.HostTriple ||
		r.LlvmVersion || r.Semver
}

func (r *Rustc) enabledKeys() []keys.Key {
	var ks []keys.Key
	add := func(on bool, k keys.Key) {
		if on {
			ks = append(ks, k)
		}
	}
	add(r.Channel, keys.RustcChannel)
	add(r.CommitDate, keys.RustcCommitDate)
	add(r.CommitHash, keys.RustcCommitHash)
	add(r.HostTriple, keys.RustcHostTriple)
	add(r.LlvmVersion, keys.RustcLlvmVersion)
	add(r.Semver, keys.RustcSemver)
	return ks
}

// rustcInfo is the parsed form of `rustc -vV`.
type rustcInfo struct {
	semver     string
	host       string
	commitHash string
	commitDate string
	llvm       string
	channel    string
}

// parseRustcVersion extracts the labeled fields from verbose version
// output, e.g.
//
//	rustc 1.68.0-nightly (c7572670a 2023-01-03)
//	binary: rustc
//	commit-hash: c7572670a1302f5c7e245d069200e22da9df0316
//	commit-date: 2023-01-03
//	host: x86_64-unknown-linux-gnu
//	release: 1.68.0-nightly
//	LLVM version: 15.0
//
// The LLVM line is absent on some channels; llvm stays empty then.
func parseRustcVersion(out string) (rustcInfo, error) {
	var info rustcInfo
	for _, line := range strings.Split(out, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(label) {
		case "release":
			info.semver = value
		case "host":
			info.host = value
		case "commit-hash":
			info.commitHash = value
		case "commit-date":
			info.commitDate = value
		case "LLVM version":
			info.llvm = value
		}
	}
	if info.semver == "" || info.host == "" {
		return rustcInfo{}, emit.NewError(emit.KindParse, "unrecognized rustc -vV output", nil)
	}
	info.channel = channelFromSemver(info.semver)
	return info, nil
}

// channelFromSemver derives the release channel from the version's
// prerelease suffix.
func channelFromSemver(semver string) string {
	_, pre, _ := strings.Cut(semver, "-")
	switch {
	case strings.HasPrefix(pre, "nightly"):
		return "nightly"
	case strings.HasPrefix(pre, "beta"):
		return "beta"
	case strings.HasPrefix(pre, "dev"):
		return "dev"
	default:
		return "stable"
	}
}

// TryPopulate implements emit.Provider.
func (r *Rustc) TryPopulate(env hostenv.Env, pol emit.RunPolicy, sink *emit.Sink) error {
	if !r.any() {
		return nil
	}
	run := r.Runner
	if run == nil {
		run = execRunner("")
	}

	// One subprocess serves all six facts; load it lazily so overrides
	// and idempotent mode never spawn rustc at all.
	var info rustcInfo
	loaded := false
	load := func() (rustcInfo, error) {
		if loaded {
			return info, nil
		}
		out, err := run("rustc", "-vV")
		if err != nil {
			return rustcInfo{}, err
		}
		parsed, err := parseRustcVersion(out)
		if err != nil {
			return rustcInfo{}, err
		}
		info = parsed
		loaded = true
		return info, nil
	}

	type fact struct {
		on    bool
		key   keys.Key
		field func(rustcInfo) string
	}
	facts := []fact{
		{r.Channel, keys.RustcChannel, func(i rustcInfo) string { return i.channel }},
		{r.CommitDate, keys.RustcCommitDate, func(i rustcInfo) string { return i.commitDate }},
		{r.CommitHash, keys.RustcCommitHash, func(i rustcInfo) string { return i.commitHash }},
		{r.HostTriple, keys.RustcHostTriple, func(i rustcInfo) string { return i.host }},
		{r.Semver, keys.RustcSemver, func(i rustcInfo) string { return i.semver }},
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

	// The LLVM line is missing on toolchains that do not report it; that
	// is a per-key fallback, not a provider failure.
	if r.LlvmVersion {
		if _, ok := env.Lookup(keys.RustcLlvmVersion.Name()); ok || pol.Idempotent {
			if err := emit.Resolve(env, pol, keys.RustcLlvmVersion, false, func() (string, error) {
				return "", nil
			}, sink); err != nil {
				return err
			}
		} else {
			i, err := load()
			if err != nil {
				return err
			}
			if i.llvm != "" {
				sink.Insert(keys.RustcLlvmVersion, i.llvm)
			} else {
				emit.AddDefault(env, keys.RustcLlvmVersion, sink)
			}
		}
	}
	return nil
}

// ApplyDefaults implements emit.Provider.
func (r *Rustc) ApplyDefaults(cfg emit.DefaultConfig, env hostenv.Env, sink *emit.Sink) error {
	if cfg.FailOnError {
		return cfg.Err
	}
	for _, k := range r.enabledKeys() {
		emit.AddDefault(env, k, sink)
	}
	return nil
}
