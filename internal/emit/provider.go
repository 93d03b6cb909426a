package emit

import "github.com/rustyhorde/vergen-sub001/internal/hostenv"

// Provider is the contract every fact-gathering module implements. The
// emitter drives each provider as one unit: TryPopulate first, and exactly
// when it fails, ApplyDefaults.
type Provider interface {
	// TryPopulate computes the provider's configured facts and inserts
	// them into the sink, along with any rebuild triggers it knows about.
	// It may consult the environment snapshot, spawn subprocesses, or
	// query the OS. There is no atomicity guarantee across a provider's
	// keys: some may have been written before an error on another.
	TryPopulate(env hostenv.Env, pol RunPolicy, sink *Sink) error

	// ApplyDefaults records the fallback value for each configured fact,
	// or propagates cfg.Err when the run is configured to fail on error.
	ApplyDefaults(cfg DefaultConfig, env hostenv.Env, sink *Sink) error
}

// CustomProvider is the extension point for caller-supplied facts outside
// the fixed registry. It follows the same populate/default protocol as
// Provider but writes string-named entries.
type CustomProvider interface {
	TryPopulateCustom(env hostenv.Env, pol RunPolicy, sink *Sink) error
	ApplyCustomDefaults(cfg DefaultConfig, env hostenv.Env, sink *Sink) error
}
