package config

import (
	"ovconfig/internal/schema"
	"ovconfig/internal/store"
)

// UnknownKey is a key, or a whole section when Key is empty, that a backing
// file holds but the schema does not declare. Loading ignores them.
type UnknownKey struct {
	Section string
	Key     string
}

func (u UnknownKey) String() string {
	if u.Key == "" {
		return "[" + u.Section + "]"
	}
	return "[" + u.Section + "]::" + u.Key
}

// UnknownKeys lists the undeclared sections and keys of raw, sorted
func UnknownKeys(s *schema.Schema, raw store.RawMap) []UnknownKey {
	var out []UnknownKey
	for _, name := range raw.SectionNames() {
		desc, ok := s.Section(name)
		if !ok {
			out = append(out, UnknownKey{Section: name})
			continue
		}
		for _, key := range raw[name].Keys() {
			if desc.Index(key) < 0 {
				out = append(out, UnknownKey{Section: name, Key: key})
			}
		}
	}
	return out
}
