package config

import (
	"time"

	"ovconfig/internal/baseline"
	"ovconfig/internal/drift"
)

// Diff lists the fields whose literal encoding differs from a to b
func Diff(a, b *Configuration) ([]drift.KeyDrift, error) {
	before, err := a.Encode()
	if err != nil {
		return nil, err
	}
	after, err := b.Encode()
	if err != nil {
		return nil, err
	}
	return drift.Compare(before, after), nil
}

// Baseline snapshots the configuration under name for later drift checks
func (c *Configuration) Baseline(name string) (baseline.Baseline, error) {
	a, err := c.Artifact()
	if err != nil {
		return baseline.Baseline{}, err
	}
	return baseline.Baseline{
		Name:       name,
		Schema:     a.Schema,
		ConfigPath: c.path,
		ConfigHash: a.ConfigVersion,
		Values:     a.Values,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// DriftFrom compares the configuration against a saved baseline
func (c *Configuration) DriftFrom(b baseline.Baseline) (drift.DriftReport, error) {
	a, err := c.Artifact()
	if err != nil {
		return drift.DriftReport{}, err
	}
	return drift.Detect(b, a.Values, a.ConfigVersion), nil
}
