// Package providers contains the concrete fact providers: build timestamps,
// git state, rustc identity, cargo context, and host system information.
// Each is a thin instance of the provider contract in the emit package;
// every external query they perform is injectable for tests.
package providers

import (
	"time"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Build emits the VERGEN_BUILD_* facts.
//
// When SOURCE_DATE_EPOCH is present in the environment the emitted date and
// timestamp derive from it instead of the wall clock, which keeps output
// deterministic even outside idempotent mode.
type Build struct {
	// BuildDate enables VERGEN_BUILD_DATE.
	BuildDate bool
	// BuildTimestamp enables VERGEN_BUILD_TIMESTAMP.
	BuildTimestamp bool
	// UseLocal formats output in the local timezone instead of UTC. It has
	// no effect when SOURCE_DATE_EPOCH is in use.
	UseLocal bool

	// Now is the clock source; defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// AllBuild returns a Build provider with every fact enabled.
func AllBuild() *Build {
	return &Build{BuildDate: true, BuildTimestamp: true}
}

func (b *Build) any() bool { return b.BuildDate || b.BuildTimestamp }

// TryPopulate implements emit.Provider.
func (b *Build) TryPopulate(env hostenv.Env, pol emit.RunPolicy, sink *emit.Sink) error {
	if !b.any() {
		return nil
	}

	ts, deterministic, err := emit.SourceDateEpoch(env)
	if err != nil {
		return err
	}
	if !deterministic {
		now := time.Now
		if b.Now != nil {
			now = b.Now
		}
		ts = now().UTC()
		if b.UseLocal {
			ts = ts.Local()
		}
	}

	if b.BuildDate {
		err := emit.Resolve(env, pol, keys.BuildDate, deterministic, func() (string, error) {
			return ts.Format(dateLayout), nil
		}, sink)
		if err != nil {
			return err
		}
	}
	if b.BuildTimestamp {
		err := emit.Resolve(env, pol, keys.BuildTimestamp, deterministic, func() (string, error) {
			return ts.Format(timestampLayout), nil
		}, sink)
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults implements emit.Provider.
func (b *Build) ApplyDefaults(cfg emit.DefaultConfig, env hostenv.Env, sink *emit.Sink) error {
	if cfg.FailOnError {
		return cfg.Err
	}
	if b.BuildDate {
		emit.AddDefault(env, keys.BuildDate, sink)
	}
	if b.BuildTimestamp {
		emit.AddDefault(env, keys.BuildTimestamp, sink)
	}
	return nil
}
