package emit

import (
	"strconv"
	"time"

	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// IdempotentDefault is the sentinel value substituted for a key when
// idempotent mode is on or when live computation failed and the run is
// allowed to degrade.
const IdempotentDefault = "VERGEN_IDEMPOTENT_OUTPUT"

// IdempotentVar enables idempotent mode for a run when present in the
// environment, whatever its value.
const IdempotentVar = "VERGEN_IDEMPOTENT"

// SourceDateEpochVar is the reproducible-builds timestamp variable. When
// present and parseable as integer seconds it supplies a deterministic
// timestamp that takes priority over both idempotent substitution and the
// wall clock for timestamp-family keys.
const SourceDateEpochVar = "SOURCE_DATE_EPOCH"

// RunPolicy is the global, immutable configuration of one generation run.
type RunPolicy struct {
	// Idempotent prefers deterministic sentinel output over querying live
	// state.
	Idempotent bool
	// FailOnError propagates the first provider failure as a fatal error
	// instead of degrading to sentinel values.
	FailOnError bool
	// Quiet suppresses warning directives at serialization. Defaults are
	// still substituted and warnings still collected.
	Quiet bool
}

// DefaultConfig is handed to a provider's ApplyDefaults after its
// TryPopulate failed. It carries the triggering error and whether the run
// must abort instead of defaulting.
type DefaultConfig struct {
	FailOnError bool
	Err         error
}

// AddDefault records the fallback value for key: the per-key environment
// override when one is set, otherwise the idempotent sentinel. A warning is
// collected either way.
func AddDefault(env hostenv.Env, key keys.Key, sink *Sink) {
	if v, ok := env.Lookup(key.Name()); ok {
		sink.Insert(key, v)
		sink.AddWarning(key.Name() + " overridden")
		return
	}
	sink.Insert(key, IdempotentDefault)
	sink.AddWarning(key.Name() + " set to default")
}

// Resolve runs the shared per-key decision chain every provider goes
// through:
//
//  1. a per-key environment override wins outright ("overridden" warning)
//  2. idempotent mode without a deterministic source yields the sentinel
//     ("set to default" warning)
//  3. otherwise the live value is computed and used
//
// deterministic marks keys whose live value already comes from an external
// determinism source (SOURCE_DATE_EPOCH); for those, idempotent mode does
// not force the sentinel. A live computation error is returned to the
// caller untouched: the orchestrator decides between aborting the run and
// defaulting the provider's keys.
func Resolve(env hostenv.Env, pol RunPolicy, key keys.Key, deterministic bool, live func() (string, error), sink *Sink) error {
	if v, ok := env.Lookup(key.Name()); ok {
		sink.Insert(key, v)
		sink.AddWarning(key.Name() + " overridden")
		return nil
	}
	if pol.Idempotent && !deterministic {
		sink.Insert(key, IdempotentDefault)
		sink.AddWarning(key.Name() + " set to default")
		return nil
	}
	v, err := live()
	if err != nil {
		return err
	}
	sink.Insert(key, v)
	return nil
}

// SourceDateEpoch reads the reproducibility timestamp from the snapshot.
// The second return reports whether the variable was present; a present
// but unparseable value is an environment error.
func SourceDateEpoch(env hostenv.Env) (time.Time, bool, error) {
	raw, ok := env.Lookup(SourceDateEpochVar)
	if !ok {
		return time.Time{}, false, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, NewError(KindEnvironment, "malformed "+SourceDateEpochVar, err)
	}
	return time.Unix(secs, 0).UTC(), true, nil
}
