// Package artifact renders an encoded configuration as a versioned,
// content-addressed artifact.
package artifact

import (
	"encoding/hex"
	"encoding/json"

	"ovconfig/internal/store"

	"github.com/zeebo/blake3"
)

// VersionPrefix tags the hash algorithm in a configuration version
const VersionPrefix = "blake3:"

// ConfigArtifact is the immutable, encoded form of a configuration
type ConfigArtifact struct {
	Schema        string       `json:"schema,omitempty"`
	ConfigVersion string       `json:"configVersion"` // blake3:hex
	Values        store.RawMap `json:"values"`
}

// GenerateArtifact creates an artifact from encoded section values
func GenerateArtifact(schemaName string, values store.RawMap) ConfigArtifact {
	if values == nil {
		values = store.RawMap{}
	}
	return ConfigArtifact{
		Schema:        schemaName,
		ConfigVersion: ComputeConfigVersion(values),
		Values:        values,
	}
}

// ComputeConfigVersion hashes the canonical form of values with BLAKE3.
// Returns the hash prefixed with "blake3:".
func ComputeConfigVersion(values store.RawMap) string {
	hash := blake3.Sum256(canonicalValuesJSON(values))
	return VersionPrefix + hex.EncodeToString(hash[:])
}

// ToCanonicalJSON serializes the artifact with sorted keys and no whitespace
func (a ConfigArtifact) ToCanonicalJSON() []byte {
	result := []byte(`{"configVersion":`)
	result = appendString(result, a.ConfigVersion)
	if a.Schema != "" {
		result = append(result, `,"schema":`...)
		result = appendString(result, a.Schema)
	}
	result = append(result, `,"values":`...)
	result = append(result, canonicalValuesJSON(a.Values)...)
	result = append(result, '}')
	return result
}

// ToJSON serializes the artifact to pretty-printed JSON for human readability.
func (a ConfigArtifact) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// canonicalValuesJSON produces {"section":{"key":"literal",...},...} with
// sections and keys sorted.
func canonicalValuesJSON(values store.RawMap) []byte {
	result := []byte("{")
	for i, name := range values.SectionNames() {
		if i > 0 {
			result = append(result, ',')
		}
		result = appendString(result, name)
		result = append(result, ":{"...)
		sec := values[name]
		for j, key := range sec.Keys() {
			if j > 0 {
				result = append(result, ',')
			}
			result = appendString(result, key)
			result = append(result, ':')
			result = appendString(result, sec[key])
		}
		result = append(result, '}')
	}
	return append(result, '}')
}

func appendString(dst []byte, s string) []byte {
	b, _ := json.Marshal(s)
	return append(dst, b...)
}
