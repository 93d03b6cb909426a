// Package main is the entrypoint for the vergen build-script generator.
//
// The generator inspects the build environment (clock, cargo context, git
// repository, rustc toolchain, host machine) and prints cargo build-script
// directives on stdout. Cargo parses stdout line by line, so all logging
// goes to stderr as structured JSON.
//
// Startup flow:
//  1. Load settings from the environment (dotenv, envconfig, manifest).
//  2. Initialize the structured logger at the configured level.
//  3. Snapshot the process environment once; every downstream read goes
//     through the snapshot.
//  4. Build the emitter from the settings and register the manifest's
//     providers in fixed order.
//  5. Run all providers, then serialize the directive stream to stdout.
//
// Any failure exits non-zero without printing partial directives, so a
// broken invocation can never poison a cargo build.
package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/rustyhorde/vergen-sub001/internal/config"
	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
)

// parseLevel maps the configured level name to a slog level. The loader has
// already validated the name.
func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	settings, err := config.Load()
	if err != nil {
		// The logger is not configured yet; report with the default level.
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(settings.LogLevel),
	})).With("run_id", uuid.New().String())

	env := hostenv.Snapshot()

	emitter := emit.New(env).BuildScript(settings.BuildScript)
	if settings.Idempotent {
		emitter.Idempotent()
	}
	if settings.FailOnError {
		emitter.FailOnError()
	}
	if settings.Quiet {
		emitter.Quiet()
	}

	providers := settings.Manifest.Providers()
	for _, p := range providers {
		if err := emitter.AddProvider(p); err != nil {
			logger.Error("failed to register provider", "error", err)
			os.Exit(1)
		}
	}
	logger.Debug("emitter configured",
		"providers", len(providers),
		"idempotent", emitter.Policy().Idempotent,
		"fail_on_error", emitter.Policy().FailOnError,
		"quiet", emitter.Policy().Quiet,
	)

	if err := emitter.Run(); err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}

	if err := emitter.Emit(os.Stdout); err != nil {
		logger.Error("failed to serialize directives", "error", err)
		os.Exit(1)
	}

	logger.Info("directives emitted",
		"entries", emitter.Sink().Len(),
		"warnings", len(emitter.Sink().Warnings()),
		"defaulted", emitter.Sink().CountIdempotent(),
	)
}
