package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/providers"
)

// Manifest selects which providers run and which facts each one emits. A nil
// section disables that provider entirely; a section with `all: true` enables
// every fact and individual toggles refine from there.
type Manifest struct {
	Build   *BuildSection   `yaml:"build"`
	Cargo   *CargoSection   `yaml:"cargo"`
	Git     *GitSection     `yaml:"git"`
	Rustc   *RustcSection   `yaml:"rustc"`
	Sysinfo *SysinfoSection `yaml:"sysinfo"`
}

// BuildSection selects the build-clock facts.
type BuildSection struct {
	All       bool `yaml:"all"`
	Date      bool `yaml:"date"`
	Timestamp bool `yaml:"timestamp"`
	UseLocal  bool `yaml:"use_local"`
}

// CargoSection selects the cargo context facts.
type CargoSection struct {
	All          bool   `yaml:"all"`
	Debug        bool   `yaml:"debug"`
	Features     bool   `yaml:"features"`
	OptLevel     bool   `yaml:"opt_level"`
	TargetTriple bool   `yaml:"target_triple"`
	Dependencies bool   `yaml:"dependencies"`
	NameFilter   string `yaml:"name_filter"`
}

// GitSection selects the repository facts and describe/sha/dirty options.
type GitSection struct {
	All               bool `yaml:"all"`
	Branch            bool `yaml:"branch"`
	CommitAuthorEmail bool `yaml:"commit_author_email"`
	CommitAuthorName  bool `yaml:"commit_author_name"`
	CommitCount       bool `yaml:"commit_count"`
	CommitDate        bool `yaml:"commit_date"`
	CommitMessage     bool `yaml:"commit_message"`
	CommitTimestamp   bool `yaml:"commit_timestamp"`
	Describe          bool `yaml:"describe"`
	Sha               bool `yaml:"sha"`
	Dirty             bool `yaml:"dirty"`

	DescribeTags          bool   `yaml:"describe_tags"`
	DescribeDirty         bool   `yaml:"describe_dirty"`
	DescribeMatch         string `yaml:"describe_match"`
	ShaShort              bool   `yaml:"sha_short"`
	DirtyIncludeUntracked bool   `yaml:"dirty_include_untracked"`
	RepoPath              string `yaml:"repo_path"`
}

// RustcSection selects the compiler facts.
type RustcSection struct {
	All         bool `yaml:"all"`
	Channel     bool `yaml:"channel"`
	CommitDate  bool `yaml:"commit_date"`
	CommitHash  bool `yaml:"commit_hash"`
	HostTriple  bool `yaml:"host_triple"`
	LlvmVersion bool `yaml:"llvm_version"`
	Semver      bool `yaml:"semver"`
}

// SysinfoSection selects the host facts.
type SysinfoSection struct {
	All          bool `yaml:"all"`
	Name         bool `yaml:"name"`
	OsVersion    bool `yaml:"os_version"`
	User         bool `yaml:"user"`
	Memory       bool `yaml:"memory"`
	CpuVendor    bool `yaml:"cpu_vendor"`
	CpuCoreCount bool `yaml:"cpu_core_count"`
	CpuName      bool `yaml:"cpu_name"`
	CpuBrand     bool `yaml:"cpu_brand"`
	CpuFrequency bool `yaml:"cpu_frequency"`
}

// DefaultManifest enables every provider with every fact, matching the
// behavior when no manifest is configured.
func DefaultManifest() *Manifest {
	return &Manifest{
		Build:   &BuildSection{All: true},
		Cargo:   &CargoSection{All: true},
		Git:     &GitSection{All: true},
		Rustc:   &RustcSection{All: true},
		Sysinfo: &SysinfoSection{All: true},
	}
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrManifest,
			Message: "failed to read manifest " + path,
			Err:     err,
		}
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ConfigError{
			Type:    ErrManifest,
			Message: "failed to parse manifest " + path,
			Err:     err,
		}
	}
	return &m, nil
}

// Providers instantiates the providers the manifest enables, in fixed
// registration order.
func (m *Manifest) Providers() []emit.Provider {
	var ps []emit.Provider
	if b := m.Build; b != nil {
		p := &providers.Build{
			BuildDate:      b.All || b.Date,
			BuildTimestamp: b.All || b.Timestamp,
			UseLocal:       b.UseLocal,
		}
		ps = append(ps, p)
	}
	if c := m.Cargo; c != nil {
		p := &providers.Cargo{
			Debug:        c.All || c.Debug,
			Features:     c.All || c.Features,
			OptLevel:     c.All || c.OptLevel,
			TargetTriple: c.All || c.TargetTriple,
			Dependencies: c.All || c.Dependencies,
			NameFilter:   c.NameFilter,
		}
		ps = append(ps, p)
	}
	if g := m.Git; g != nil {
		p := &providers.Git{
			Branch:            g.All || g.Branch,
			CommitAuthorEmail: g.All || g.CommitAuthorEmail,
			CommitAuthorName:  g.All || g.CommitAuthorName,
			CommitCount:       g.All || g.CommitCount,
			CommitDate:        g.All || g.CommitDate,
			CommitMessage:     g.All || g.CommitMessage,
			CommitTimestamp:   g.All || g.CommitTimestamp,
			Describe:          g.All || g.Describe,
			Sha:               g.All || g.Sha,
			Dirty:             g.All || g.Dirty,

			DescribeTags:          g.DescribeTags,
			DescribeDirty:         g.DescribeDirty,
			DescribeMatch:         g.DescribeMatch,
			ShaShort:              g.ShaShort,
			DirtyIncludeUntracked: g.DirtyIncludeUntracked,
			RepoPath:              g.RepoPath,
		}
		ps = append(ps, p)
	}
	if r := m.Rustc; r != nil {
		p := &providers.Rustc{
			Channel:     r.All || r.Channel,
			CommitDate:  r.All || r.CommitDate,
			CommitHash:  r.All || r.CommitHash,
			HostTriple:  r.All || r.HostTriple,
			LlvmVersion: r.All || r.LlvmVersion,
			Semver:      r.All || r.Semver,
		}
		ps = append(ps, p)
	}
	if s := m.Sysinfo; s != nil {
		p := &providers.Sysinfo{
			Name:         s.All || s.Name,
			OsVersion:    s.All || s.OsVersion,
			User:         s.All || s.User,
			Memory:       s.All || s.Memory,
			CpuVendor:    s.All || s.CpuVendor,
			CpuCoreCount: s.All || s.CpuCoreCount,
			CpuName:      s.All || s.CpuName,
			CpuBrand:     s.All || s.CpuBrand,
			CpuFrequency: s.All || s.CpuFrequency,
		}
		ps = append(ps, p)
	}
	return ps
}
