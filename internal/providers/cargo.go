package providers

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// cargoFeaturePrefix marks the per-feature variables cargo exports to build
// scripts.
const cargoFeaturePrefix = "CARGO_FEATURE_"

// Cargo emits the VERGEN_CARGO_* facts from the context variables cargo
// provides to build scripts (DEBUG, OPT_LEVEL, TARGET, CARGO_FEATURE_*) and
// from `cargo metadata` for the dependency list. A missing context variable
// is an environment error: it means the generator is not running under
// cargo, and the default policy decides what happens next.
type Cargo struct {
	Debug        bool
	Features     bool
	OptLevel     bool
	TargetTriple bool
	Dependencies bool

	// NameFilter restricts the dependency list to crate names matching
	// this regular expression. Empty keeps everything.
	NameFilter string

	// Runner overrides subprocess execution. Injectable for tests.
	Runner CmdRunner
}

// AllCargo returns a Cargo provider with every fact enabled.
func AllCargo() *Cargo {
	return &Cargo{
		Debug:        true,
		Features:     true,
		OptLevel:     true,
		TargetTriple: true,
		Dependencies: true,
	}
}

func (c *Cargo) any() bool {
	return c.Debug || c.Features || c.OptLevel || c.TargetTriple || c.Dependencies
}

func (c *Cargo) enabledKeys() []keys.Key {
	var ks []keys.Key
	add := func(on bool, k keys.Key) {
		if on {
			ks = append(ks, k)
		}
	}
	add(c.Debug, keys.CargoDebug)
	add(c.Features, keys.CargoFeatures)
	add(c.OptLevel, keys.CargoOptLevel)
	add(c.TargetTriple, keys.CargoTargetTriple)
	add(c.Dependencies, keys.CargoDependencies)
	return ks
}

// contextVar reads one of cargo's build-script variables from the snapshot.
func contextVar(env hostenv.Env, name string) (string, error) {
	v, ok := env.Lookup(name)
	if !ok {
		return "", emit.NewError(emit.KindEnvironment, name+" is not set; not running under cargo", nil)
	}
	return v, nil
}

// featureList collects the enabled cargo features from CARGO_FEATURE_*
// variables, lowercased and comma-joined in sorted order.
func featureList(env hostenv.Env) string {
	var features []string
	for _, name := range env.KeysWithPrefix(cargoFeaturePrefix) {
		features = append(features, strings.ToLower(strings.TrimPrefix(name, cargoFeaturePrefix)))
	}
	return strings.Join(features, ",")
}

// cargoMetadata mirrors the subset of `cargo metadata --format-version 1`
// output needed to list the root package's resolved dependencies.
type cargoMetadata struct {
	Packages []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"packages"`
	Resolve struct {
		Root  string `json:"root"`
		Nodes []struct {
			ID   string `json:"id"`
			Deps []struct {
				Pkg string `json:"pkg"`
			} `json:"deps"`
		} `json:"nodes"`
	} `json:"resolve"`
}

// dependencyList runs cargo metadata and renders the root package's direct
// dependencies as "name version" pairs, comma-joined.
func (c *Cargo) dependencyList(run CmdRunner) (string, error) {
	var nameRE *regexp.Regexp
	if c.NameFilter != "" {
		re, err := regexp.Compile(c.NameFilter)
		if err != nil {
			return "", emit.NewError(emit.KindParse, "invalid dependency name filter", err)
		}
		nameRE = re
	}

	out, err := run("cargo", "metadata", "--format-version", "1")
	if err != nil {
		return "", err
	}
	var meta cargoMetadata
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		return "", emit.NewError(emit.KindParse, "malformed cargo metadata output", err)
	}
	if meta.Resolve.Root == "" {
		return "", emit.NewError(emit.KindParse, "cargo metadata has no resolved root package", nil)
	}

	byID := make(map[string]string, len(meta.Packages))
	for _, pkg := range meta.Packages {
		byID[pkg.ID] = pkg.Name + " " + pkg.Version
	}
	var deps []string
	for _, node := range meta.Resolve.Nodes {
		if node.ID != meta.Resolve.Root {
			continue
		}
		for _, dep := range node.Deps {
			spec, ok := byID[dep.Pkg]
			if !ok {
				continue
			}
			if nameRE != nil && !nameRE.MatchString(strings.SplitN(spec, " ", 2)[0]) {
				continue
			}
			deps = append(deps, spec)
		}
	}
	return strings.Join(deps, ","), nil
}

// TryPopulate implements emit.Provider.
func (c *Cargo) TryPopulate(env hostenv.Env, pol emit.RunPolicy, sink *emit.Sink) error {
	if !c.any() {
		return nil
	}
	run := c.Runner
	if run == nil {
		run = execRunner("")
	}

	type fact struct {
		on   bool
		key  keys.Key
		live func() (string, error)
	}
	facts := []fact{
		{c.Debug, keys.CargoDebug, func() (string, error) { return contextVar(env, "DEBUG") }},
		{c.Features, keys.CargoFeatures, func() (string, error) { return featureList(env), nil }},
		{c.OptLevel, keys.CargoOptLevel, func() (string, error) { return contextVar(env, "OPT_LEVEL") }},
		{c.TargetTriple, keys.CargoTargetTriple, func() (string, error) { return contextVar(env, "TARGET") }},
	}
	for _, f := range facts {
		if !f.on {
			continue
		}
		if err := emit.Resolve(env, pol, f.key, false, f.live, sink); err != nil {
			return err
		}
	}

	if c.Dependencies {
		// An empty dependency list is omitted rather than emitted blank.
		if _, ok := env.Lookup(keys.CargoDependencies.Name()); ok || pol.Idempotent {
			if err := emit.Resolve(env, pol, keys.CargoDependencies, false, func() (string, error) {
				return "", nil
			}, sink); err != nil {
				return err
			}
		} else {
			list, err := c.dependencyList(run)
			if err != nil {
				return err
			}
			if list != "" {
				sink.Insert(keys.CargoDependencies, list)
			}
		}
	}
	return nil
}

// ApplyDefaults implements emit.Provider.
func (c *Cargo) ApplyDefaults(cfg emit.DefaultConfig, env hostenv.Env, sink *emit.Sink) error {
	if cfg.FailOnError {
		return cfg.Err
	}
	for _, k := range c.enabledKeys() {
		emit.AddDefault(env, k, sink)
	}
	return nil
}
