package baseline

import (
	"time"

	"ovconfig/internal/store"
)

// Baseline is a known-good configuration saved for drift comparison.
type Baseline struct {
	Name       string       `json:"name"`       // Baseline identifier
	Schema     string       `json:"schema"`     // Schema name
	ConfigPath string       `json:"configPath"` // File the values were read from
	ConfigHash string       `json:"configHash"` // Configuration version (blake3:hex)
	Values     store.RawMap `json:"values"`     // Encoded section values
	Timestamp  time.Time    `json:"timestamp"`  // When baseline was created
}

// BaselineSummary is a lightweight view for listing baselines.
type BaselineSummary struct {
	Name       string    `json:"name"`
	ConfigPath string    `json:"configPath"`
	ConfigHash string    `json:"configHash"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary returns the listing view of b
func (b Baseline) Summary() BaselineSummary {
	return BaselineSummary{
		Name:       b.Name,
		ConfigPath: b.ConfigPath,
		ConfigHash: b.ConfigHash,
		Timestamp:  b.Timestamp,
	}
}
