package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ovconfig/internal/cfgerr"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// structured handles formats with native typed values. Native values become
// literal text on load and literal text becomes native values on write.
// Top-level scalars belong to DefaultSection; a key set to null is absent.
type structured struct {
	name      string
	unmarshal func([]byte) (map[string]any, error)
	marshal   func(map[string]any) ([]byte, error)
	// int64Only formats cannot hold integers above math.MaxInt64
	int64Only bool
}

// ErrTableInDefault is returned when a DEFAULT key holds a map. It would be
// written as a table and read back as a section.
var ErrTableInDefault = errors.New("map values cannot be written outside a section")

// ErrShadowsSection is returned when a DEFAULT key has the name of a section
var ErrShadowsSection = errors.New("key has the name of a section")

// ErrIntRange is returned for an integer the format cannot represent
var ErrIntRange = errors.New("integer out of range for this format")

func (s structured) Name() string { return s.name }

func (s structured) Load(path string) (RawMap, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := s.unmarshal(data)
	if err != nil {
		return nil, &cfgerr.SyntaxError{Path: path, Err: err}
	}

	m := make(RawMap)
	for name, v := range doc {
		table, ok := v.(map[string]any)
		if !ok {
			if v == nil {
				continue
			}
			text, err := toLiteral(v)
			if err != nil {
				return nil, &cfgerr.SyntaxError{Path: path, Err: fmt.Errorf("%s: %w", name, err)}
			}
			if m[DefaultSection] == nil {
				m[DefaultSection] = make(RawSection)
			}
			m[DefaultSection][name] = text
			continue
		}

		raw := make(RawSection, len(table))
		for key, val := range table {
			if val == nil {
				continue
			}
			text, err := toLiteral(val)
			if err != nil {
				return nil, &cfgerr.SyntaxError{Path: path, Err: fmt.Errorf("%s.%s: %w", name, key, err)}
			}
			raw[key] = text
		}
		if existing, ok := m[name]; ok {
			for k, v := range raw {
				existing[k] = v
			}
			continue
		}
		m[name] = raw
	}
	return m, nil
}

func (s structured) Write(path string, m RawMap) error {
	doc := make(map[string]any, len(m))
	for _, name := range m.SectionNames() {
		raw := m[name]
		table := make(map[string]any, len(raw))
		for _, key := range raw.Keys() {
			v := fromLiteral(raw[key])
			if err := s.check(m, name, key, v); err != nil {
				return err
			}
			table[key] = v
		}
		if name == DefaultSection {
			for k, v := range table {
				doc[k] = v
			}
			continue
		}
		doc[name] = table
	}

	data, err := s.marshal(doc)
	if err != nil {
		return &cfgerr.EncodeError{Section: s.name, Err: err}
	}
	return writeFile(path, data)
}

// check rejects values that would not load back as written
func (s structured) check(m RawMap, name, key string, v any) error {
	if name == DefaultSection {
		if _, ok := v.(map[string]any); ok {
			return &cfgerr.EncodeError{Section: name, Key: key, Err: ErrTableInDefault}
		}
		if _, ok := m[key]; ok && key != DefaultSection {
			return &cfgerr.EncodeError{Section: name, Key: key, Err: ErrShadowsSection}
		}
	}
	if s.int64Only && hasUint(v) {
		return &cfgerr.EncodeError{Section: name, Key: key, Err: fmt.Errorf("%w: %s", ErrIntRange, s.name)}
	}
	return nil
}

// hasUint reports whether v holds an integer above math.MaxInt64
func hasUint(v any) bool {
	switch x := v.(type) {
	case uint64:
		return true
	case []any:
		for _, e := range x {
			if hasUint(e) {
				return true
			}
		}
	case map[string]any:
		for _, e := range x {
			if hasUint(e) {
				return true
			}
		}
	}
	return false
}

// toLiteral renders a native value as the literal text the codec reads
func toLiteral(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(v)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// normalize turns YAML's map[any]any into map[string]any so it encodes
func normalize(v any) any {
	switch x := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

// fromLiteral decodes literal text into a native value. Integers stay
// integers. Text that is not a literal is written as a plain string.
func fromLiteral(text string) any {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return text
	}
	return native(v)
}

func native(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(x.String(), 10, 64); err == nil {
			return u
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i := range x {
			x[i] = native(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = native(x[k])
		}
		return x
	}
	return v
}

func unmarshalTOML(data []byte) (map[string]any, error) {
	doc := make(map[string]any)
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func marshalTOML(doc map[string]any) ([]byte, error) {
	return toml.Marshal(doc)
}

func unmarshalYAML(data []byte) (map[string]any, error) {
	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func marshalYAML(doc map[string]any) ([]byte, error) {
	return yaml.Marshal(doc)
}
