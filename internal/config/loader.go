// loader.go implements the settings loading lifecycle.
//
// The loading sequence is:
//  1. Load .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate Settings.
//  3. Presence-check the policy flags (any value enables them).
//  4. Parse the YAML manifest when one is configured, otherwise fall back
//     to the full default provider set.
//  5. Validate the struct using go-playground/validator.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
)

// ConfigErrorType classifies loader failures for diagnostics.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "PARSING"
	ErrValidation ConfigErrorType = "VALIDATION"
	ErrManifest   ConfigErrorType = "MANIFEST"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// envLookup matches the signature of os.LookupEnv and allows injection for
// testing.
type envLookup func(key string) (string, bool)

// Load loads and validates the generator settings from the process
// environment.
func Load() (*Settings, error) {
	return loadWithLookup(os.LookupEnv)
}

// loadWithLookup is the internal implementation of Load that accepts an
// injectable environment lookup for the presence-checked flags. envconfig
// always reads the real process environment, so tests set variables with
// t.Setenv and pass os.LookupEnv here.
func loadWithLookup(lookup envLookup) (*Settings, error) {
	// Step 1: Load .env file (non-fatal if absent). godotenv does NOT
	// override existing environment variables.
	_ = godotenv.Load()

	// Step 2: Process envconfig tags.
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	// Step 3: Presence-checked flags. VERGEN_IDEMPOTENT=0 still enables
	// idempotent mode; only absence disables it.
	_, s.Idempotent = lookup(emit.IdempotentVar)
	_, s.FailOnError = lookup(FailOnErrorVar)
	_, s.Quiet = lookup(QuietVar)

	// Step 4: Parse the manifest, or default to everything enabled.
	if s.ManifestPath != "" {
		m, err := LoadManifest(s.ManifestPath)
		if err != nil {
			return nil, err
		}
		s.Manifest = m
	} else {
		s.Manifest = DefaultManifest()
	}

	// Step 5: Validate the populated struct.
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "settings validation failed",
			Err:     err,
		}
	}

	return &s, nil
}
