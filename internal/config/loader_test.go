package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearPolicyEnv guards against flags leaking in from the host environment.
func clearPolicyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"VERGEN_IDEMPOTENT", "VERGEN_FAIL_ON_ERROR", "VERGEN_QUIET", "VERGEN_MANIFEST", "LOG_LEVEL", "VERGEN_BUILD_SCRIPT"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearPolicyEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "build.rs", s.BuildScript)
	assert.False(t, s.Idempotent)
	assert.False(t, s.FailOnError)
	assert.False(t, s.Quiet)
	require.NotNil(t, s.Manifest)
	assert.Len(t, s.Manifest.Providers(), 5)
}

func TestLoadPresenceCheckedFlags(t *testing.T) {
	clearPolicyEnv(t)
	// Any value enables a flag, including "0" and the empty string.
	t.Setenv("VERGEN_IDEMPOTENT", "0")
	t.Setenv("VERGEN_FAIL_ON_ERROR", "")
	t.Setenv("VERGEN_QUIET", "false")

	s, err := Load()
	require.NoError(t, err)

	assert.True(t, s.Idempotent)
	assert.True(t, s.FailOnError)
	assert.True(t, s.Quiet)

	pol := s.Policy()
	assert.True(t, pol.Idempotent)
	assert.True(t, pol.FailOnError)
	assert.True(t, pol.Quiet)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrValidation, cfgErr.Type)
}

func TestLoadMissingManifestFile(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("VERGEN_MANIFEST", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrManifest, cfgErr.Type)
}

func TestLoadManifestFromEnv(t *testing.T) {
	clearPolicyEnv(t)
	path := filepath.Join(t.TempDir(), "vergen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("build:\n  all: true\n"), 0o644))
	t.Setenv("VERGEN_MANIFEST", path)

	s, err := Load()
	require.NoError(t, err)

	require.NotNil(t, s.Manifest)
	assert.Len(t, s.Manifest.Providers(), 1)
}

func TestLoadCustomBuildScript(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("VERGEN_BUILD_SCRIPT", "build/main.rs")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "build/main.rs", s.BuildScript)
}

func TestConfigErrorFormatting(t *testing.T) {
	err := &ConfigError{Type: ErrManifest, Message: "failed to read manifest x.yaml", Err: os.ErrNotExist}
	assert.Equal(t, "[MANIFEST] failed to read manifest x.yaml: file does not exist", err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bare := &ConfigError{Type: ErrValidation, Message: "settings validation failed"}
	assert.Equal(t, "[VALIDATION] settings validation failed", bare.Error())
}
