// Package config loads the generator's runtime settings. Values are resolved
// via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Manifest Defaults (Lowest)
//
// Settings are loaded once at process start and are immutable thereafter. The
// provider selection lives in an optional YAML manifest; the emission policy
// flags live in the environment because cargo forwards them to build scripts.
package config

import "github.com/rustyhorde/vergen-sub001/internal/emit"

// Environment variable names recognized by the loader beyond the per-key
// override surface.
const (
	// FailOnErrorVar aborts a run on the first provider failure when present.
	FailOnErrorVar = "VERGEN_FAIL_ON_ERROR"
	// QuietVar suppresses warning directives when present.
	QuietVar = "VERGEN_QUIET"
	// ManifestVar points at the YAML manifest selecting providers and facts.
	ManifestVar = "VERGEN_MANIFEST"
)

// Settings is the top-level runtime configuration. It is populated once
// during process initialization and never modified.
type Settings struct {
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	ManifestPath string `envconfig:"VERGEN_MANIFEST"`
	BuildScript  string `envconfig:"VERGEN_BUILD_SCRIPT" default:"build.rs" validate:"required"`

	// Presence-checked flags: any value, including empty, enables them.
	// Populated by the loader, not by envconfig.
	Idempotent  bool `ignored:"true"`
	FailOnError bool `ignored:"true"`
	Quiet       bool `ignored:"true"`

	// Manifest is the parsed provider selection, or the full default set
	// when no manifest path was configured.
	Manifest *Manifest `ignored:"true" validate:"required"`
}

// Policy renders the settings as an emission policy.
func (s *Settings) Policy() emit.RunPolicy {
	return emit.RunPolicy{
		Idempotent:  s.Idempotent,
		FailOnError: s.FailOnError,
		Quiet:       s.Quiet,
	}
}
