package emit

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// fakeProvider is a scriptable provider for exercising the orchestration
// protocol without any real external state.
type fakeProvider struct {
	entries     map[keys.Key]string
	triggers    []string
	populateErr error

	populated bool
	defaulted bool
}

func (p *fakeProvider) TryPopulate(env hostenv.Env, pol RunPolicy, sink *Sink) error {
	p.populated = true
	if p.populateErr != nil {
		return p.populateErr
	}
	for k, v := range p.entries {
		if err := Resolve(env, pol, k, false, func() (string, error) { return v, nil }, sink); err != nil {
			return err
		}
	}
	for _, path := range p.triggers {
		sink.AddRebuildTrigger(path)
	}
	return nil
}

func (p *fakeProvider) ApplyDefaults(cfg DefaultConfig, env hostenv.Env, sink *Sink) error {
	p.defaulted = true
	if cfg.FailOnError {
		return cfg.Err
	}
	for k := range p.entries {
		AddDefault(env, k, sink)
	}
	return nil
}

func emitString(t *testing.T, e *Emitter) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Emit(&buf))
	return buf.String()
}

func TestNewReadsIdempotentFromEnvironmentPresence(t *testing.T) {
	assert.False(t, New(hostenv.Fake(nil)).Policy().Idempotent)
	// Any value counts, including the empty string.
	assert.True(t, New(hostenv.Fake(map[string]string{"VERGEN_IDEMPOTENT": ""})).Policy().Idempotent)
	assert.True(t, New(hostenv.Fake(map[string]string{"VERGEN_IDEMPOTENT": "true"})).Policy().Idempotent)
}

func TestEmitOrderIsKeyOrderNotRegistrationOrder(t *testing.T) {
	// Register the sysinfo-ish provider before the build-ish one; the
	// output must still come out in registry order.
	late := &fakeProvider{entries: map[keys.Key]string{keys.SysinfoUser: "jozias"}}
	early := &fakeProvider{entries: map[keys.Key]string{keys.BuildDate: "2023-01-04"}}

	e := New(hostenv.Fake(nil))
	require.NoError(t, e.AddProvider(late))
	require.NoError(t, e.AddProvider(early))
	require.NoError(t, e.Run())

	out := emitString(t, e)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{
		"cargo:rustc-env=VERGEN_BUILD_DATE=2023-01-04",
		"cargo:rustc-env=VERGEN_SYSINFO_USER=jozias",
		"cargo:rerun-if-changed=build.rs",
		"cargo:rerun-if-env-changed=VERGEN_IDEMPOTENT",
		"cargo:rerun-if-env-changed=SOURCE_DATE_EPOCH",
	}, lines)
}

func TestGracefulDegradationOnProviderFailure(t *testing.T) {
	broken := &fakeProvider{
		entries:     map[keys.Key]string{keys.GitSha: "unused"},
		populateErr: NewError(KindIO, "git not found", errors.New("exec: git")),
	}
	healthy := &fakeProvider{entries: map[keys.Key]string{keys.BuildDate: "2023-01-04"}}

	e := New(hostenv.Fake(nil))
	require.NoError(t, e.AddProvider(broken))
	require.NoError(t, e.AddProvider(healthy))
	require.NoError(t, e.Run())

	assert.True(t, broken.defaulted)
	sha, _ := e.Sink().Value(keys.GitSha)
	assert.Equal(t, IdempotentDefault, sha)
	date, _ := e.Sink().Value(keys.BuildDate)
	assert.Equal(t, "2023-01-04", date)

	out := emitString(t, e)
	assert.Contains(t, out, "cargo:warning=VERGEN_GIT_SHA set to default\n")
	assert.Contains(t, out, "cargo:rustc-env=VERGEN_BUILD_DATE=2023-01-04\n")
}

func TestFailOnErrorAbortsWithZeroOutput(t *testing.T) {
	broken := &fakeProvider{
		entries:     map[keys.Key]string{keys.GitSha: "unused"},
		populateErr: NewError(KindIO, "git not found", nil),
	}
	never := &fakeProvider{entries: map[keys.Key]string{keys.BuildDate: "2023-01-04"}}

	e := New(hostenv.Fake(nil)).FailOnError()
	require.NoError(t, e.AddProvider(broken))
	require.NoError(t, e.AddProvider(never))
	require.Error(t, e.Run())

	assert.False(t, never.populated, "run must stop at the first fatal provider")

	var buf bytes.Buffer
	err := e.Emit(&buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "aborted run must not emit partial output")
}

func TestQuietSuppressesWarningsButKeepsDefaults(t *testing.T) {
	broken := &fakeProvider{
		entries:     map[keys.Key]string{keys.GitSha: "unused"},
		populateErr: NewError(KindIO, "git not found", nil),
	}

	e := New(hostenv.Fake(nil)).Quiet()
	require.NoError(t, e.AddProvider(broken))
	require.NoError(t, e.Run())

	out := emitString(t, e)
	assert.NotContains(t, out, "cargo:warning=")
	assert.Contains(t, out, "cargo:rustc-env=VERGEN_GIT_SHA="+IdempotentDefault+"\n")
	// The warning is still collected, just not emitted.
	assert.NotEmpty(t, e.Sink().Warnings())
}

func TestReEmitIsByteIdentical(t *testing.T) {
	p := &fakeProvider{
		entries:  map[keys.Key]string{keys.BuildDate: "2023-01-04", keys.GitBranch: "main"},
		triggers: []string{".git/HEAD"},
	}
	e := New(hostenv.Fake(nil))
	require.NoError(t, e.AddProvider(p))
	require.NoError(t, e.Run())

	first := emitString(t, e)
	second := emitString(t, e)
	assert.Equal(t, first, second)
}

func TestMutationAfterSerializationIsRejected(t *testing.T) {
	e := New(hostenv.Fake(nil))
	require.NoError(t, e.AddProvider(&fakeProvider{entries: map[keys.Key]string{keys.BuildDate: "d"}}))
	require.NoError(t, e.Run())
	_ = emitString(t, e)

	var genErr *Error
	err := e.AddProvider(&fakeProvider{})
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindProtocol, genErr.Kind)
	require.Error(t, e.Run())
}

func TestEmptyRunEmitsNothing(t *testing.T) {
	e := New(hostenv.Fake(nil))
	require.NoError(t, e.Run())
	assert.Empty(t, emitString(t, e))
}

func TestNewlinesAreFilteredFromValues(t *testing.T) {
	p := &fakeProvider{entries: map[keys.Key]string{keys.GitCommitMessage: "subject\ninjected=evil"}}
	e := New(hostenv.Fake(nil))
	require.NoError(t, e.AddProvider(p))
	require.NoError(t, e.Run())

	out := emitString(t, e)
	assert.Contains(t, out, "cargo:rustc-env=VERGEN_GIT_COMMIT_MESSAGE=subjectinjected=evil\n")
}

func TestTriggerLinesPrecedeTrailer(t *testing.T) {
	p := &fakeProvider{
		entries:  map[keys.Key]string{keys.GitSha: "abc"},
		triggers: []string{".git/HEAD", ".git/refs/heads/main"},
	}
	e := New(hostenv.Fake(nil)).BuildScript("tools/gen.rs")
	require.NoError(t, e.AddProvider(p))
	require.NoError(t, e.Run())

	lines := strings.Split(strings.TrimSpace(emitString(t, e)), "\n")
	require.Equal(t, []string{
		"cargo:rustc-env=VERGEN_GIT_SHA=abc",
		"cargo:rerun-if-changed=.git/HEAD",
		"cargo:rerun-if-changed=.git/refs/heads/main",
		"cargo:rerun-if-changed=tools/gen.rs",
		"cargo:rerun-if-env-changed=VERGEN_IDEMPOTENT",
		"cargo:rerun-if-env-changed=SOURCE_DATE_EPOCH",
	}, lines)
}

func TestIdempotentRunDropsRebuildTriggers(t *testing.T) {
	// A provider that registers triggers regardless of policy; the run
	// itself must strip them so output cannot vary with filesystem state.
	p := &fakeProvider{
		entries:  map[keys.Key]string{keys.GitSha: "unused"},
		triggers: []string{".git/HEAD"},
	}
	e := New(hostenv.Fake(nil)).Idempotent()
	require.NoError(t, e.AddProvider(p))
	require.NoError(t, e.Run())

	assert.Empty(t, e.Sink().RebuildTriggers())
	assert.NotContains(t, emitString(t, e), "cargo:rerun-if-changed=.git/HEAD")
}

// customFacts exercises the parallel extension interface.
type customFacts struct {
	values map[string]string
	err    error
}

func (c *customFacts) TryPopulateCustom(_ hostenv.Env, _ RunPolicy, sink *Sink) error {
	if c.err != nil {
		return c.err
	}
	for name, v := range c.values {
		sink.InsertCustom(name, v)
	}
	return nil
}

func (c *customFacts) ApplyCustomDefaults(cfg DefaultConfig, _ hostenv.Env, sink *Sink) error {
	if cfg.FailOnError {
		return cfg.Err
	}
	for name := range c.values {
		sink.InsertCustom(name, IdempotentDefault)
		sink.AddWarning(name + " set to default")
	}
	return nil
}

func TestCustomEntriesFollowFixedEntries(t *testing.T) {
	e := New(hostenv.Fake(nil))
	require.NoError(t, e.AddProvider(&fakeProvider{entries: map[keys.Key]string{keys.SysinfoUser: "u"}}))
	require.NoError(t, e.AddCustomProvider(&customFacts{values: map[string]string{
		"BUILD_HOST_ROLE": "ci",
		"ARTIFACT_TIER":   "release",
	}}))
	require.NoError(t, e.Run())

	lines := strings.Split(strings.TrimSpace(emitString(t, e)), "\n")
	require.Equal(t, []string{
		"cargo:rustc-env=VERGEN_SYSINFO_USER=u",
		"cargo:rustc-env=ARTIFACT_TIER=release",
		"cargo:rustc-env=BUILD_HOST_ROLE=ci",
		"cargo:rerun-if-changed=build.rs",
		"cargo:rerun-if-env-changed=VERGEN_IDEMPOTENT",
		"cargo:rerun-if-env-changed=SOURCE_DATE_EPOCH",
	}, lines)
}

func TestCustomProviderFailureDegrades(t *testing.T) {
	e := New(hostenv.Fake(nil))
	bad := &customFacts{values: map[string]string{"BUILD_HOST_ROLE": "ci"}, err: errors.New("nope")}
	// err set: TryPopulateCustom fails, defaults kick in.
	require.NoError(t, e.AddCustomProvider(bad))
	require.NoError(t, e.Run())

	v, ok := e.Sink().CustomValue("BUILD_HOST_ROLE")
	assert.True(t, ok)
	assert.Equal(t, IdempotentDefault, v)
}
