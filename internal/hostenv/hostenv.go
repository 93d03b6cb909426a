// Package hostenv provides an immutable snapshot of the process environment.
//
// Providers never read the live process environment directly; they are
// handed an Env captured once at the start of a run. Tests construct fake
// snapshots instead of mutating global state.
package hostenv

import (
	"os"
	"sort"
	"strings"
)

// Env is a point-in-time copy of environment variables. It is treated as
// read-only for the duration of a run; With returns derived copies rather
// than mutating in place.
type Env map[string]string

// Snapshot captures the current process environment.
func Snapshot() Env {
	environ := os.Environ()
	env := make(Env, len(environ))
	for _, entry := range environ {
		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		env[entry[:eq]] = entry[eq+1:]
	}
	return env
}

// Fake builds a snapshot from the given variables. Intended for tests.
func Fake(vars map[string]string) Env {
	env := make(Env, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	return env
}

// Lookup reports the value of key and whether it is set. An empty value is
// still "set", matching os.LookupEnv semantics.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Get returns the value of key, or the empty string when unset.
func (e Env) Get(key string) string { return e[key] }

// With returns a copy of the snapshot with key set to value. The receiver
// is left untouched.
func (e Env) With(key, value string) Env {
	derived := make(Env, len(e)+1)
	for k, v := range e {
		derived[k] = v
	}
	derived[key] = value
	return derived
}

// KeysWithPrefix returns the names of all variables starting with prefix,
// sorted lexically so callers get deterministic iteration order.
func (e Env) KeysWithPrefix(prefix string) []string {
	var matched []string
	for k := range e {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	sort.Strings(matched)
	return matched
}
