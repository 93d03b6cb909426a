package emit

import (
	"sort"

	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// Sink is the single mutable aggregate of one generation run. Providers and
// the default policy write into it; the emitter serializes it exactly once.
// Nothing in a Sink survives past the run.
type Sink struct {
	entries        map[keys.Key]string
	custom         map[string]string
	rebuildTrigger []string
	warnings       []string
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{
		entries: make(map[keys.Key]string),
		custom:  make(map[string]string),
	}
}

// Insert records value for key, unconditionally overwriting any previous
// value. Emission order is the key registry's declaration order, not
// insertion order.
func (s *Sink) Insert(key keys.Key, value string) {
	s.entries[key] = value
}

// InsertCustom records a caller-named entry. Custom entries are emitted
// after the fixed registry, sorted by name.
func (s *Sink) InsertCustom(name, value string) {
	s.custom[name] = value
}

// AddWarning appends a diagnostic describing degraded or defaulted output.
func (s *Sink) AddWarning(text string) {
	s.warnings = append(s.warnings, text)
}

// AddRebuildTrigger appends a filesystem path whose modification should
// invalidate the cached build. Insertion order is preserved; duplicates are
// harmless.
func (s *Sink) AddRebuildTrigger(path string) {
	s.rebuildTrigger = append(s.rebuildTrigger, path)
}

// Value returns the recorded value for key and whether one exists.
func (s *Sink) Value(key keys.Key) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// CustomValue returns the recorded value for a custom entry name.
func (s *Sink) CustomValue(name string) (string, bool) {
	v, ok := s.custom[name]
	return v, ok
}

// Len reports the number of fixed entries recorded so far.
func (s *Sink) Len() int { return len(s.entries) }

// Warnings returns the collected diagnostics in insertion order.
func (s *Sink) Warnings() []string { return s.warnings }

// RebuildTriggers returns the collected paths in insertion order.
func (s *Sink) RebuildTriggers() []string { return s.rebuildTrigger }

// ClearRebuildTriggers drops all collected trigger paths. Used when a run
// is pinned to deterministic output and must not depend on repository
// state.
func (s *Sink) ClearRebuildTriggers() {
	s.rebuildTrigger = nil
}

// CountIdempotent reports how many fixed entries hold the idempotent
// sentinel. Mainly useful in tests.
func (s *Sink) CountIdempotent() int {
	n := 0
	for _, v := range s.entries {
		if v == IdempotentDefault {
			n++
		}
	}
	return n
}

// sortedKeys returns the populated registry keys in declaration order.
func (s *Sink) sortedKeys() []keys.Key {
	ks := make([]keys.Key, 0, len(s.entries))
	for k := range s.entries {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

// sortedCustomNames returns the populated custom entry names in lexical
// order.
func (s *Sink) sortedCustomNames() []string {
	ns := make([]string, 0, len(s.custom))
	for n := range s.custom {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}
