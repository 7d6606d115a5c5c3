// Package store reads and writes the raw section map of a configuration file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ovconfig/internal/cfgerr"
)

// DefaultSection holds keys that appear before any section header
const DefaultSection = "DEFAULT"

// RawSection maps key names to raw text values
type RawSection map[string]string

// RawMap maps section names to their raw key/value pairs
type RawMap map[string]RawSection

// Format loads and writes a RawMap in one on-disk syntax
type Format interface {
	Name() string
	Load(path string) (RawMap, error)
	Write(path string, m RawMap) error
}

var (
	INI  Format = iniFormat{}
	TOML Format = structured{name: "toml", unmarshal: unmarshalTOML, marshal: marshalTOML, int64Only: true}
	YAML Format = structured{name: "yaml", unmarshal: unmarshalYAML, marshal: marshalYAML}
)

// ForPath picks a format from the file extension, INI when unknown
func ForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML
	case ".yaml", ".yml":
		return YAML
	default:
		return INI
	}
}

// ByName returns the format called name ("ini", "toml" or "yaml")
func ByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "ini":
		return INI, nil
	case "toml":
		return TOML, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return nil, fmt.Errorf("unknown format '%s' (valid: ini, toml, yaml)", name)
	}
}

// Clone returns a deep copy of m
func (m RawMap) Clone() RawMap {
	out := make(RawMap, len(m))
	for name, sec := range m {
		c := make(RawSection, len(sec))
		for k, v := range sec {
			c[k] = v
		}
		out[name] = c
	}
	return out
}

// SectionNames returns the section names in sorted order
func (m RawMap) SectionNames() []string {
	return sortedKeys(m)
}

// Keys returns the key names in sorted order
func (s RawSection) Keys() []string {
	return sortedKeys(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &cfgerr.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &cfgerr.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
