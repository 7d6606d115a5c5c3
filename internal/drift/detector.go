// Package drift compares encoded configurations key by key.
package drift

import (
	"sort"
	"time"

	"ovconfig/internal/baseline"
	"ovconfig/internal/store"
)

// DriftType represents the type of configuration change.
type DriftType string

const (
	DriftAdded   DriftType = "added"   // Key in current but not baseline
	DriftRemoved DriftType = "removed" // Key in baseline but not current
	DriftChanged DriftType = "changed" // Key in both with different values
)

// KeyDrift represents a single key's drift.
type KeyDrift struct {
	Section       string    `json:"section"`
	Key           string    `json:"key"`
	Type          DriftType `json:"type"`
	BaselineValue string    `json:"baselineValue,omitempty"`
	CurrentValue  string    `json:"currentValue,omitempty"`
}

// Path returns the change location as "SECTION.key"
func (d KeyDrift) Path() string {
	return d.Section + "." + d.Key
}

// DriftReport contains the full drift analysis.
type DriftReport struct {
	HasDrift     bool       `json:"hasDrift"`
	BaselineName string     `json:"baselineName"`
	BaselineHash string     `json:"baselineHash"`
	CurrentHash  string     `json:"currentHash"`
	BaselineTime time.Time  `json:"baselineTime"`
	Changes      []KeyDrift `json:"changes"`
}

// Detect compares current values against a baseline and returns drift report.
func Detect(b baseline.Baseline, current store.RawMap, currentHash string) DriftReport {
	report := DriftReport{
		BaselineName: b.Name,
		BaselineHash: b.ConfigHash,
		CurrentHash:  currentHash,
		BaselineTime: b.Timestamp,
		Changes:      []KeyDrift{},
	}

	// Quick check: if hashes match, no drift
	if b.ConfigHash == currentHash {
		return report
	}

	report.Changes = Compare(b.Values, current)
	report.HasDrift = len(report.Changes) > 0
	return report
}

// Compare lists every key whose literal differs between before and after,
// ordered by section then key.
func Compare(before, after store.RawMap) []KeyDrift {
	changes := []KeyDrift{}
	for _, name := range unionKeys(before, after) {
		b, a := before[name], after[name]
		for _, key := range unionKeys(b, a) {
			oldVal, inBefore := b[key]
			newVal, inAfter := a[key]

			switch {
			case inBefore && !inAfter:
				changes = append(changes, KeyDrift{Section: name, Key: key, Type: DriftRemoved, BaselineValue: oldVal})
			case !inBefore && inAfter:
				changes = append(changes, KeyDrift{Section: name, Key: key, Type: DriftAdded, CurrentValue: newVal})
			case oldVal != newVal:
				changes = append(changes, KeyDrift{
					Section:       name,
					Key:           key,
					Type:          DriftChanged,
					BaselineValue: oldVal,
					CurrentValue:  newVal,
				})
			}
		}
	}
	return changes
}

// unionKeys returns the sorted keys present in either map
func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []map[string]V{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
