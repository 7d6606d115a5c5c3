package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"ovconfig/internal/contract"
	"ovconfig/internal/rule"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the schema file looked up by LoadSchema
const DefaultFileName = "ovconfig.yaml"

// schemaFile represents the YAML file structure
type schemaFile struct {
	Name      string          `yaml:"name"`
	Sections  []sectionEntry  `yaml:"sections"`
	Contracts []contractEntry `yaml:"contracts,omitempty"`
}

// sectionEntry represents a single section in YAML
type sectionEntry struct {
	Name   string       `yaml:"name"`
	Fields []fieldEntry `yaml:"fields"`
}

// fieldEntry represents a single field in YAML
type fieldEntry struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
	Rule    string    `yaml:"rule,omitempty"`
	Values  []string  `yaml:"values,omitempty"`
}

// contractEntry maps "section.key" paths to allowed values or denied patterns
type contractEntry struct {
	Name  string              `yaml:"name"`
	Allow map[string][]string `yaml:"allow,omitempty"`
	Deny  map[string][]string `yaml:"deny,omitempty"`
}

// ParseSchema parses YAML content into a Schema
func ParseSchema(content []byte) (*Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(content, &sf); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if len(sf.Sections) == 0 {
		return nil, fmt.Errorf("schema defines no sections")
	}

	sections := make([]*Section, 0, len(sf.Sections))
	for i, se := range sf.Sections {
		if se.Name == "" {
			return nil, fmt.Errorf("section at index %d: missing required field 'name'", i)
		}

		sec := &Section{Name: se.Name}
		for j, fe := range se.Fields {
			if fe.Name == "" {
				return nil, fmt.Errorf("section '%s': field at index %d: missing required field 'name'", se.Name, j)
			}
			f, err := buildField(fe)
			if err != nil {
				return nil, fmt.Errorf("section '%s': %w", se.Name, err)
			}
			sec.Fields = append(sec.Fields, f)
		}
		sections = append(sections, sec)
	}

	s, err := NewSchema(sf.Name, sections...)
	if err != nil {
		return nil, err
	}
	if s.Contracts, err = buildContracts(s, sf.Contracts); err != nil {
		return nil, err
	}
	return s, nil
}

// buildContracts checks that every contract is named once and only
// mentions declared fields
func buildContracts(s *Schema, entries []contractEntry) ([]contract.Contract, error) {
	seen := make(map[string]bool)
	contracts := make([]contract.Contract, 0, len(entries))
	for i, ce := range entries {
		if ce.Name == "" {
			return nil, fmt.Errorf("contract at index %d: missing required field 'name'", i)
		}
		if seen[ce.Name] {
			return nil, fmt.Errorf("duplicate contract name: '%s'", ce.Name)
		}
		seen[ce.Name] = true

		c := contract.Contract{Name: ce.Name, Allow: toRules(ce.Allow), Deny: toRules(ce.Deny)}
		for _, key := range c.Keys() {
			if !s.hasPath(key) {
				return nil, fmt.Errorf("contract '%s': unknown field '%s'", ce.Name, key)
			}
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func toRules(m map[string][]string) map[string]contract.Rule {
	if len(m) == 0 {
		return nil
	}
	rules := make(map[string]contract.Rule, len(m))
	for k, values := range m {
		rules[k] = contract.Rule{Values: values}
	}
	return rules
}

// hasPath reports whether "section.key" names a declared field
func (s *Schema) hasPath(path string) bool {
	name, key, ok := strings.Cut(path, ".")
	if !ok {
		return false
	}
	sec, ok := s.Section(name)
	return ok && sec.Index(key) >= 0
}

// buildField turns a YAML field entry into a typed descriptor
func buildField(e fieldEntry) (Field, error) {
	switch Type(e.Type) {
	case TypeString:
		return buildTyped[string](e)
	case TypeEnum:
		return buildEnum(e)
	case TypeInt:
		return buildTyped[int](e)
	case TypeFloat:
		return buildTyped[float64](e)
	case TypeBool:
		return buildTyped[bool](e)
	case TypeStringList:
		return buildTyped[[]string](e)
	case TypeIntList:
		return buildTyped[[]int](e)
	case TypeFloatList:
		return buildTyped[[]float64](e)
	case TypeBoolList:
		return buildTyped[[]bool](e)
	case TypeStringMap:
		return buildTyped[map[string]string](e)
	case "":
		return nil, fmt.Errorf("field '%s': missing required field 'type'", e.Name)
	default:
		return nil, fmt.Errorf("unknown type '%s' for field '%s'", e.Type, e.Name)
	}
}

func buildTyped[T any](e fieldEntry) (*FieldOf[T], error) {
	def, err := decodeDefault[T](e)
	if err != nil {
		return nil, err
	}
	var pred Predicate[T]
	if e.Rule != "" {
		r, err := rule.Parse(e.Rule)
		if err != nil {
			return nil, fmt.Errorf("field '%s': invalid rule syntax: %w", e.Name, err)
		}
		pred = FromRule[T](r)
	}
	return New(e.Name, constant(def), pred), nil
}

func buildEnum(e fieldEntry) (*FieldOf[string], error) {
	// Validate enum has values
	if len(e.Values) == 0 {
		return nil, fmt.Errorf("enum type requires 'values' for field '%s'", e.Name)
	}

	def := e.Values[0]
	if e.Default.Kind != 0 {
		if err := e.Default.Decode(&def); err != nil {
			return nil, fmt.Errorf("field '%s': invalid default: %w", e.Name, err)
		}
	}

	preds := []Predicate[string]{OneOf(e.Values...)}
	if e.Rule != "" {
		r, err := rule.Parse(e.Rule)
		if err != nil {
			return nil, fmt.Errorf("field '%s': invalid rule syntax: %w", e.Name, err)
		}
		preds = append(preds, FromRule[string](r))
	}

	f := New(e.Name, constant(def), All(preds...))
	f.typ = TypeEnum
	return f, nil
}

// decodeDefault decodes the YAML default, using the zero value when absent.
// Absent list and map defaults are empty rather than nil.
func decodeDefault[T any](e fieldEntry) (T, error) {
	var def T
	if e.Default.Kind != 0 {
		if err := e.Default.Decode(&def); err != nil {
			return def, fmt.Errorf("field '%s': invalid default: %w", e.Name, err)
		}
	}

	rv := reflect.ValueOf(&def).Elem()
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
		}
	case reflect.Map:
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
	}
	return def, nil
}

// LoadSchema reads and parses ovconfig.yaml from the given directory
func LoadSchema(dir string) (*Schema, error) {
	path := filepath.Join(dir, DefaultFileName)
	return LoadSchemaFromPath(path)
}

// LoadSchemaFromPath reads and parses a schema from the given file path
func LoadSchemaFromPath(path string) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	return ParseSchema(content)
}
