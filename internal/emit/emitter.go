// Package emit implements the shared instruction-emission core: the output
// sink, the idempotency/default policy, the provider contract, and the
// emitter that turns one run's accumulated facts into cargo build-script
// directives.
//
// The central design decision lives here: under the default policy a broken
// build environment (no git metadata, sandboxed CI without host info) must
// never block compilation. Failed facts degrade to a sentinel value plus a
// warning directive; only fail-on-error mode turns the first failure into a
// fatal, zero-output abort.
package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
)

// defaultBuildScript is the path emitted as the generator's own rebuild
// trigger unless overridden.
const defaultBuildScript = "build.rs"

// directivePrefix starts every emitted line.
const directivePrefix = "cargo:"

// runState tracks the emitter lifecycle. An emitter moves from empty
// through accumulating to serialized and is never reset; construct a new
// one for another run.
type runState int

const (
	stateEmpty runState = iota
	stateAccumulating
	stateSerialized
)

// Emitter registers providers, runs them in registration order against a
// single sink, and serializes the result. Not safe for concurrent use; a
// run is strictly sequential by design.
type Emitter struct {
	env         hostenv.Env
	pol         RunPolicy
	buildScript string
	providers   []Provider
	custom      []CustomProvider
	sink        *Sink
	state       runState
	runErr      error
}

// New creates an emitter over the given environment snapshot. Idempotent
// mode defaults to the presence of VERGEN_IDEMPOTENT in the snapshot.
func New(env hostenv.Env) *Emitter {
	_, idempotent := env.Lookup(IdempotentVar)
	return &Emitter{
		env:         env,
		pol:         RunPolicy{Idempotent: idempotent},
		buildScript: defaultBuildScript,
		sink:        NewSink(),
	}
}

// Idempotent enables idempotent mode for this run.
func (e *Emitter) Idempotent() *Emitter {
	e.pol.Idempotent = true
	return e
}

// FailOnError makes the first unresolved fact abort the whole run instead
// of degrading to a sentinel value.
func (e *Emitter) FailOnError() *Emitter {
	e.pol.FailOnError = true
	return e
}

// Quiet suppresses warning directives at serialization. Defaults are still
// substituted.
func (e *Emitter) Quiet() *Emitter {
	e.pol.Quiet = true
	return e
}

// BuildScript overrides the build-script path emitted as the generator's
// own rebuild trigger.
func (e *Emitter) BuildScript(path string) *Emitter {
	e.buildScript = path
	return e
}

// Policy returns the run policy in effect.
func (e *Emitter) Policy() RunPolicy { return e.pol }

// Sink exposes the accumulated output. Intended for tests and for the
// logging in the generator binary.
func (e *Emitter) Sink() *Sink { return e.sink }

// AddProvider registers a provider. Valid until the first Emit.
func (e *Emitter) AddProvider(p Provider) error {
	if e.state == stateSerialized {
		return NewError(KindProtocol, "emitter already serialized; construct a new one", nil)
	}
	e.providers = append(e.providers, p)
	e.state = stateAccumulating
	return nil
}

// AddCustomProvider registers a caller-supplied provider. Custom providers
// run after all fixed providers, in their own registration order.
func (e *Emitter) AddCustomProvider(p CustomProvider) error {
	if e.state == stateSerialized {
		return NewError(KindProtocol, "emitter already serialized; construct a new one", nil)
	}
	e.custom = append(e.custom, p)
	e.state = stateAccumulating
	return nil
}

// Run executes every registered provider in registration order. Each
// provider is one unit: a TryPopulate failure routes to that provider's
// ApplyDefaults with the triggering error. An ApplyDefaults error, only
// reachable under fail-on-error, aborts the run; the emitter then refuses
// to serialize so no partial output escapes.
func (e *Emitter) Run() error {
	if e.state == stateSerialized {
		return NewError(KindProtocol, "emitter already serialized; construct a new one", nil)
	}
	if e.runErr != nil {
		return e.runErr
	}
	for _, p := range e.providers {
		if err := p.TryPopulate(e.env, e.pol, e.sink); err != nil {
			cfg := DefaultConfig{FailOnError: e.pol.FailOnError, Err: err}
			if derr := p.ApplyDefaults(cfg, e.env, e.sink); derr != nil {
				e.runErr = derr
				return derr
			}
		}
	}
	for _, p := range e.custom {
		if err := p.TryPopulateCustom(e.env, e.pol, e.sink); err != nil {
			cfg := DefaultConfig{FailOnError: e.pol.FailOnError, Err: err}
			if derr := p.ApplyCustomDefaults(cfg, e.env, e.sink); derr != nil {
				e.runErr = derr
				return derr
			}
		}
	}
	// Idempotent output must not vary with filesystem state, so any trigger
	// a provider registered anyway is dropped here.
	if e.pol.Idempotent {
		e.sink.ClearRebuildTriggers()
	}
	e.state = stateAccumulating
	return nil
}

// Emit serializes the sink as directive lines. The first call moves the
// emitter to its terminal state: further AddProvider/Run calls fail, while
// repeated Emit calls produce byte-identical output. An aborted run emits
// nothing.
func (e *Emitter) Emit(w io.Writer) error {
	if e.runErr != nil {
		return NewError(KindProtocol, "run aborted, nothing to emit", e.runErr)
	}
	e.state = stateSerialized

	for _, k := range e.sink.sortedKeys() {
		v, _ := e.sink.Value(k)
		if err := writeDirective(w, "rustc-env", k.Name()+"="+v); err != nil {
			return err
		}
	}
	for _, name := range e.sink.sortedCustomNames() {
		v, _ := e.sink.CustomValue(name)
		if err := writeDirective(w, "rustc-env", name+"="+v); err != nil {
			return err
		}
	}
	if !e.pol.Quiet {
		for _, warning := range e.sink.Warnings() {
			if err := writeDirective(w, "warning", warning); err != nil {
				return err
			}
		}
	}
	for _, path := range e.sink.RebuildTriggers() {
		if err := writeDirective(w, "rerun-if-changed", path); err != nil {
			return err
		}
	}

	// The trailer ties regeneration to the build script itself and to the
	// two run-level environment toggles, but only when the run produced
	// something to protect.
	if e.sink.Len() > 0 || len(e.sink.Warnings()) > 0 {
		if err := writeDirective(w, "rerun-if-changed", e.buildScript); err != nil {
			return err
		}
		if err := writeDirective(w, "rerun-if-env-changed", IdempotentVar); err != nil {
			return err
		}
		if err := writeDirective(w, "rerun-if-env-changed", SourceDateEpochVar); err != nil {
			return err
		}
	}
	return nil
}

// writeDirective emits one protocol line, stripping embedded newlines so a
// value can never smuggle extra directives into the stream.
func writeDirective(w io.Writer, directive, payload string) error {
	sanitized := strings.ReplaceAll(payload, "\n", "")
	if _, err := fmt.Fprintf(w, "%s%s=%s\n", directivePrefix, directive, sanitized); err != nil {
		return NewError(KindIO, "write "+directive+" directive", err)
	}
	return nil
}
