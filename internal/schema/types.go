package schema

import (
	"fmt"
	"reflect"
	"regexp"

	"ovconfig/internal/codec"
	"ovconfig/internal/contract"
)

// Type represents the declared type of a field
type Type string

const (
	TypeString     Type = "string"
	TypeEnum       Type = "enum"
	TypeInt        Type = "int"
	TypeFloat      Type = "float"
	TypeBool       Type = "bool"
	TypeStringList Type = "[]string"
	TypeIntList    Type = "[]int"
	TypeFloatList  Type = "[]float"
	TypeBoolList   Type = "[]bool"
	TypeStringMap  Type = "map[string]string"
	TypeStruct     Type = "struct" // Any other literal-decodable Go type
)

// Rejection explains why a field value failed its predicate
type Rejection struct {
	Reason  string
	Suggest []string
}

// Field is the type-erased view of a field descriptor.
// Values passed in and out are of the field's Go type.
type Field interface {
	Name() string
	Type() Type
	// Default returns a fresh copy of the schema default.
	Default() any
	// Decode coerces a raw text value into the field's type.
	Decode(raw string) (any, error)
	// Encode renders v as a literal for writing.
	Encode(v any) (string, error)
	// Display renders v for messages.
	Display(v any) string
	// Accepts reports whether v has the field's Go type.
	Accepts(v any) bool
	// Copy returns v with its slice or map storage copied.
	Copy(v any) any
	// Check applies the predicate; nil means the value is valid.
	Check(v any) *Rejection
}

// FieldOf is a field descriptor for values of type T.
// It doubles as the typed accessor key for section values.
type FieldOf[T any] struct {
	name string
	typ  Type
	def  func() T
	pred Predicate[T]
}

// New creates a field descriptor. def is called for every default value, so
// it should return a fresh value for reference types. pred may be nil, in
// which case every value is accepted.
//
// The default is not checked against the predicate: a default that fails it
// makes Default configurations invalid, which is the caller's responsibility.
func New[T any](name string, def func() T, pred Predicate[T]) *FieldOf[T] {
	if pred == nil {
		pred = Any[T]()
	}
	return &FieldOf[T]{name: name, typ: typeOf[T](), def: def, pred: pred}
}

// String declares a string field
func String(name, def string, check func(string) bool) *FieldOf[string] {
	return New(name, constant(def), predicateOf(check))
}

// Enum declares a string field restricted to values
func Enum(name, def string, values ...string) *FieldOf[string] {
	f := New(name, constant(def), OneOf(values...))
	f.typ = TypeEnum
	return f
}

// Int declares an integer field
func Int(name string, def int, check func(int) bool) *FieldOf[int] {
	return New(name, constant(def), predicateOf(check))
}

// Float declares a floating point field
func Float(name string, def float64, check func(float64) bool) *FieldOf[float64] {
	return New(name, constant(def), predicateOf(check))
}

// Bool declares a boolean field
func Bool(name string, def bool, check func(bool) bool) *FieldOf[bool] {
	return New(name, constant(def), predicateOf(check))
}

// Strings declares a string list field
func Strings(name string, def []string, check func([]string) bool) *FieldOf[[]string] {
	return New(name, constant(def), predicateOf(check))
}

// Ints declares an integer list field
func Ints(name string, def []int, check func([]int) bool) *FieldOf[[]int] {
	return New(name, constant(def), predicateOf(check))
}

// Floats declares a floating point list field
func Floats(name string, def []float64, check func([]float64) bool) *FieldOf[[]float64] {
	return New(name, constant(def), predicateOf(check))
}

// Bools declares a boolean list field
func Bools(name string, def []bool, check func([]bool) bool) *FieldOf[[]bool] {
	return New(name, constant(def), predicateOf(check))
}

// StringMap declares a string-to-string map field
func StringMap(name string, def map[string]string, check func(map[string]string) bool) *FieldOf[map[string]string] {
	return New(name, constant(def), predicateOf(check))
}

func (f *FieldOf[T]) Name() string { return f.name }

func (f *FieldOf[T]) Type() Type { return f.typ }

// Predicate returns the field's validation predicate
func (f *FieldOf[T]) Predicate() Predicate[T] { return f.pred }

func (f *FieldOf[T]) Default() any { return f.def() }

// DefaultValue is the typed form of Default
func (f *FieldOf[T]) DefaultValue() T { return f.def() }

func (f *FieldOf[T]) Decode(raw string) (any, error) {
	return codec.Decode[T](raw)
}

func (f *FieldOf[T]) Encode(v any) (string, error) {
	t, ok := v.(T)
	if !ok {
		return "", f.typeError(v)
	}
	return codec.Encode(t)
}

func (f *FieldOf[T]) Display(v any) string {
	t, ok := v.(T)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return codec.Display(t)
}

func (f *FieldOf[T]) Accepts(v any) bool {
	_, ok := v.(T)
	return ok
}

func (f *FieldOf[T]) Copy(v any) any {
	t, ok := v.(T)
	if !ok {
		return v
	}
	return clone(t)
}

func (f *FieldOf[T]) Check(v any) *Rejection {
	t, ok := v.(T)
	if !ok {
		return &Rejection{Reason: f.typeError(v).Error()}
	}
	if f.pred.Validate(t) {
		return nil
	}
	rej := &Rejection{}
	if ex, ok := f.pred.(Explainer[T]); ok {
		rej.Reason, rej.Suggest = ex.Explain(t)
	}
	return rej
}

func (f *FieldOf[T]) typeError(v any) error {
	var zero T
	return fmt.Errorf("field %s holds %T, want %T", f.name, v, zero)
}

// typeOf derives the type tag for T
func typeOf[T any]() Type {
	var zero T
	switch any(zero).(type) {
	case string:
		return TypeString
	case int:
		return TypeInt
	case float64:
		return TypeFloat
	case bool:
		return TypeBool
	case []string:
		return TypeStringList
	case []int:
		return TypeIntList
	case []float64:
		return TypeFloatList
	case []bool:
		return TypeBoolList
	case map[string]string:
		return TypeStringMap
	}
	if codec.IsString[T]() {
		return TypeString
	}
	return TypeStruct
}

// constant returns a default thunk that hands out copies of v
func constant[T any](v T) func() T {
	return func() T { return clone(v) }
}

// clone copies slices and maps one level deep so defaults are never aliased
func clone[T any](v T) T {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(c, rv)
		return c.Interface().(T)
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), iter.Value())
		}
		return c.Interface().(T)
	}
	return v
}

// Section describes one named group of fields, in declaration order
type Section struct {
	Name   string
	Fields []Field
}

// NewSection creates a section descriptor
func NewSection(name string, fields ...Field) *Section {
	return &Section{Name: name, Fields: fields}
}

// Index returns the position of the named field, or -1
func (s *Section) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

// Field returns the named field descriptor
func (s *Section) Field(name string) (Field, bool) {
	i := s.Index(name)
	if i < 0 {
		return nil, false
	}
	return s.Fields[i], true
}

// Schema represents the full configuration schema: sections in declaration order
type Schema struct {
	Name      string
	Sections  []*Section
	Contracts []contract.Contract
}

// nameRegex validates section and field names: alphanumeric, hyphens, underscores
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// NewSchema validates and assembles a schema.
// Section names and field names within a section must be unique identifiers.
func NewSchema(name string, sections ...*Section) (*Schema, error) {
	seenSections := make(map[string]bool)
	for i, sec := range sections {
		if sec == nil {
			return nil, fmt.Errorf("section at index %d is nil", i)
		}
		if !nameRegex.MatchString(sec.Name) {
			return nil, fmt.Errorf("section name '%s' contains invalid characters", sec.Name)
		}
		if seenSections[sec.Name] {
			return nil, fmt.Errorf("duplicate section name: '%s'", sec.Name)
		}
		seenSections[sec.Name] = true

		seenFields := make(map[string]bool)
		for j, f := range sec.Fields {
			if f == nil {
				return nil, fmt.Errorf("section '%s': field at index %d is nil", sec.Name, j)
			}
			if !nameRegex.MatchString(f.Name()) {
				return nil, fmt.Errorf("section '%s': field name '%s' contains invalid characters", sec.Name, f.Name())
			}
			if seenFields[f.Name()] {
				return nil, fmt.Errorf("section '%s': duplicate field name: '%s'", sec.Name, f.Name())
			}
			seenFields[f.Name()] = true
		}
	}
	return &Schema{Name: name, Sections: sections}, nil
}

// MustSchema is like NewSchema but panics on error.
// It is intended for package-level schema variables.
func MustSchema(name string, sections ...*Section) *Schema {
	s, err := NewSchema(name, sections...)
	if err != nil {
		panic("schema: " + err.Error())
	}
	return s
}

// Contract returns the named contract
func (s *Schema) Contract(name string) (contract.Contract, bool) {
	for _, c := range s.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return contract.Contract{}, false
}

// Section returns the named section descriptor
func (s *Schema) Section(name string) (*Section, bool) {
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return nil, false
}
