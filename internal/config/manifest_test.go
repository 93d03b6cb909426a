package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyhorde/vergen-sub001/internal/providers"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vergen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifestSections(t *testing.T) {
	path := writeManifest(t, `
build:
  all: true
git:
  sha: true
  sha_short: true
  describe: true
  describe_tags: true
  describe_match: "v*"
  repo_path: /src/project
rustc:
  semver: true
  channel: true
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)

	require.NotNil(t, m.Build)
	assert.True(t, m.Build.All)
	require.NotNil(t, m.Git)
	assert.True(t, m.Git.ShaShort)
	assert.Equal(t, "v*", m.Git.DescribeMatch)
	assert.Equal(t, "/src/project", m.Git.RepoPath)
	assert.Nil(t, m.Cargo)
	assert.Nil(t, m.Sysinfo)
}

func TestLoadManifestMalformed(t *testing.T) {
	path := writeManifest(t, "build: [not a mapping")

	_, err := LoadManifest(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrManifest, cfgErr.Type)
}

func TestProvidersRegistrationOrder(t *testing.T) {
	ps := DefaultManifest().Providers()
	require.Len(t, ps, 5)

	_, ok := ps[0].(*providers.Build)
	assert.True(t, ok)
	_, ok = ps[1].(*providers.Cargo)
	assert.True(t, ok)
	_, ok = ps[2].(*providers.Git)
	assert.True(t, ok)
	_, ok = ps[3].(*providers.Rustc)
	assert.True(t, ok)
	_, ok = ps[4].(*providers.Sysinfo)
	assert.True(t, ok)
}

func TestProvidersAllShorthandEnablesEveryFact(t *testing.T) {
	m := &Manifest{Rustc: &RustcSection{All: true}}

	ps := m.Providers()
	require.Len(t, ps, 1)

	r, ok := ps[0].(*providers.Rustc)
	require.True(t, ok)
	assert.True(t, r.Channel)
	assert.True(t, r.CommitDate)
	assert.True(t, r.CommitHash)
	assert.True(t, r.HostTriple)
	assert.True(t, r.LlvmVersion)
	assert.True(t, r.Semver)
}

func TestProvidersIndividualToggles(t *testing.T) {
	m := &Manifest{
		Cargo: &CargoSection{Debug: true, NameFilter: "^serde"},
		Git:   &GitSection{Sha: true, ShaShort: true},
	}

	ps := m.Providers()
	require.Len(t, ps, 2)

	c, ok := ps[0].(*providers.Cargo)
	require.True(t, ok)
	assert.True(t, c.Debug)
	assert.False(t, c.Features)
	assert.Equal(t, "^serde", c.NameFilter)

	g, ok := ps[1].(*providers.Git)
	require.True(t, ok)
	assert.True(t, g.Sha)
	assert.True(t, g.ShaShort)
	assert.False(t, g.Branch)
}
