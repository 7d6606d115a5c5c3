// Package section holds the runtime value of one configuration section:
// one typed value per field of its schema descriptor.
package section

import (
	"errors"
	"fmt"
	"reflect"

	"ovconfig/internal/cfgerr"
	"ovconfig/internal/schema"
)

// ErrUnknownField is returned when a key is not declared in the section schema
var ErrUnknownField = errors.New("unknown field")

// Section is one section's field values, in schema declaration order.
// Values are only ever built by Default or Load; afterwards they change only
// through explicit assignment.
type Section struct {
	schema *schema.Section
	values []any
}

// Default builds a section with every field at its schema default
func Default(s *schema.Section) *Section {
	values := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		values[i] = f.Default()
	}
	return &Section{schema: s, values: values}
}

// Load builds a section from raw text values. Absent keys take their
// default; present keys are decoded and the first failure aborts the load.
func Load(s *schema.Section, raw map[string]string) (*Section, error) {
	values := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		text, ok := raw[f.Name()]
		if !ok {
			values[i] = f.Default()
			continue
		}
		v, err := f.Decode(text)
		if err != nil {
			return nil, &cfgerr.CoercionError{Section: s.Name, Key: f.Name(), Raw: text, Err: err}
		}
		values[i] = v
	}
	return &Section{schema: s, values: values}, nil
}

// Verify applies every field predicate in declaration order and reports the
// first rejected value.
func (s *Section) Verify() error {
	for i, f := range s.schema.Fields {
		if err := s.check(i, f); err != nil {
			return err
		}
	}
	return nil
}

// VerifyField applies the named field's predicate
func (s *Section) VerifyField(key string) error {
	i, err := s.index(key)
	if err != nil {
		return err
	}
	return s.check(i, s.schema.Fields[i])
}

func (s *Section) check(i int, f schema.Field) error {
	rej := f.Check(s.values[i])
	if rej == nil {
		return nil
	}
	return &cfgerr.ValidationError{
		Section: s.schema.Name,
		Key:     f.Name(),
		Value:   f.Display(s.values[i]),
		Reason:  rej.Reason,
		Suggest: rej.Suggest,
	}
}

// Encode renders every field as a literal, strings included
func (s *Section) Encode() (map[string]string, error) {
	out := make(map[string]string, len(s.values))
	for i, f := range s.schema.Fields {
		text, err := f.Encode(s.values[i])
		if err != nil {
			return nil, &cfgerr.EncodeError{Section: s.schema.Name, Key: f.Name(), Err: err}
		}
		out[f.Name()] = text
	}
	return out, nil
}

// Name returns the section name
func (s *Section) Name() string { return s.schema.Name }

// Schema returns the section descriptor
func (s *Section) Schema() *schema.Section { return s.schema }

// Value returns the named field's current value
func (s *Section) Value(key string) (any, bool) {
	i := s.schema.Index(key)
	if i < 0 {
		return nil, false
	}
	return s.values[i], true
}

// Assign replaces the named field's value. v must have the field's Go type.
func (s *Section) Assign(key string, v any) error {
	i, err := s.index(key)
	if err != nil {
		return err
	}
	f := s.schema.Fields[i]
	if !f.Accepts(v) {
		return fmt.Errorf("[%s]::%s: cannot assign %T to %s field", s.schema.Name, key, v, f.Type())
	}
	s.values[i] = v
	return nil
}

// Text returns the named field's literal encoding
func (s *Section) Text(key string) (string, error) {
	i, err := s.index(key)
	if err != nil {
		return "", err
	}
	f := s.schema.Fields[i]
	text, err := f.Encode(s.values[i])
	if err != nil {
		return "", &cfgerr.EncodeError{Section: s.schema.Name, Key: key, Err: err}
	}
	return text, nil
}

// SetText decodes raw with the same rules as Load and assigns the result
func (s *Section) SetText(key, raw string) error {
	i, err := s.index(key)
	if err != nil {
		return err
	}
	v, err := s.schema.Fields[i].Decode(raw)
	if err != nil {
		return &cfgerr.CoercionError{Section: s.schema.Name, Key: key, Raw: raw, Err: err}
	}
	s.values[i] = v
	return nil
}

// Display renders the named field's value for messages
func (s *Section) Display(key string) string {
	i := s.schema.Index(key)
	if i < 0 {
		return ""
	}
	return s.schema.Fields[i].Display(s.values[i])
}

// Equal reports whether both sections share a descriptor and hold the same
// values. Values are compared on their literal encoding, so a nil list equals
// an empty one.
func (s *Section) Equal(o *Section) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.schema != o.schema {
		return false
	}
	for i, f := range s.schema.Fields {
		a, errA := f.Encode(s.values[i])
		b, errB := f.Encode(o.values[i])
		if errA != nil || errB != nil {
			if !reflect.DeepEqual(s.values[i], o.values[i]) {
				return false
			}
			continue
		}
		if a != b {
			return false
		}
	}
	return true
}

// Clone returns a copy of s. Slice and map values are copied one level
// deep, so editing them in place does not touch s.
func (s *Section) Clone() *Section {
	values := make([]any, len(s.values))
	for i, f := range s.schema.Fields {
		values[i] = f.Copy(s.values[i])
	}
	return &Section{schema: s.schema, values: values}
}

func (s *Section) index(key string) (int, error) {
	i := s.schema.Index(key)
	if i < 0 {
		return -1, fmt.Errorf("[%s]::%s: %w", s.schema.Name, key, ErrUnknownField)
	}
	return i, nil
}

// Get returns the value of field f. It panics if the section has no field
// named f.Name() of type T.
func Get[T any](s *Section, f *schema.FieldOf[T]) T {
	v, ok := s.Value(f.Name())
	if !ok {
		panic(fmt.Sprintf("section %s: no field %s", s.Name(), f.Name()))
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("section %s: field %s holds %T", s.Name(), f.Name(), v))
	}
	return t
}

// Set assigns the value of field f. It panics under the same conditions as Get.
func Set[T any](s *Section, f *schema.FieldOf[T], v T) {
	if err := s.Assign(f.Name(), v); err != nil {
		panic("section " + err.Error())
	}
}
