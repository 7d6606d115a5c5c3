package schema

import (
	"reflect"
	"strings"
	"testing"
)

type level string

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  Type
	}{
		{"string", String("a", "", nil), TypeString},
		{"enum", Enum("a", "x", "x", "y"), TypeEnum},
		{"int", Int("a", 0, nil), TypeInt},
		{"float", Float("a", 0, nil), TypeFloat},
		{"bool", Bool("a", false, nil), TypeBool},
		{"string list", Strings("a", nil, nil), TypeStringList},
		{"int list", Ints("a", nil, nil), TypeIntList},
		{"float list", Floats("a", nil, nil), TypeFloatList},
		{"bool list", Bools("a", nil, nil), TypeBoolList},
		{"string map", StringMap("a", nil, nil), TypeStringMap},
		{"named string", New("a", func() level { return "info" }, nil), TypeString},
		{"struct", New("a", func() struct{ X int } { return struct{ X int }{} }, nil), TypeStruct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Type(); got != tt.want {
				t.Errorf("Type() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFieldOf_DefaultNotAliased(t *testing.T) {
	f := Ints("v", []int{1, 2, 3}, nil)
	first := f.DefaultValue()
	first[0] = 99

	if got := f.DefaultValue(); got[0] != 1 {
		t.Errorf("default mutated through a previous copy: %v", got)
	}

	m := StringMap("m", map[string]string{"k": "v"}, nil)
	mv := m.DefaultValue()
	mv["k"] = "changed"
	if got := m.DefaultValue()["k"]; got != "v" {
		t.Errorf("map default mutated through a previous copy: %q", got)
	}
}

func TestFieldOf_Check(t *testing.T) {
	f := Int("n", 15, func(n int) bool { return n < 20 })

	if rej := f.Check(15); rej != nil {
		t.Errorf("Check(15) = %+v, want nil", rej)
	}
	rej := f.Check(128)
	if rej == nil {
		t.Fatal("Check(128) = nil, want rejection")
	}
	if rej.Reason != "" || rej.Suggest != nil {
		t.Errorf("plain predicate should not explain, got %+v", rej)
	}

	rej = f.Check("15")
	if rej == nil || !strings.Contains(rej.Reason, "want int") {
		t.Errorf("Check(string) = %+v, want type mismatch", rej)
	}
}

func TestEnum_Suggests(t *testing.T) {
	f := Enum("mode", "test", "test", "live")
	rej := f.Check("prod")
	if rej == nil {
		t.Fatal("expected rejection")
	}
	if !reflect.DeepEqual(rej.Suggest, []string{"test", "live"}) {
		t.Errorf("Suggest = %v", rej.Suggest)
	}
}

func TestFieldOf_Codec(t *testing.T) {
	f := Strings("v", nil, nil)

	raw, err := f.Encode([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if raw != `["a","b"]` {
		t.Errorf("Encode() = %s", raw)
	}

	v, err := f.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(v, []string{"a", "b"}) {
		t.Errorf("Decode() = %#v", v)
	}

	if _, err := f.Encode(3); err == nil {
		t.Error("Encode(int) on a string list field should fail")
	}
	if !f.Accepts([]string{}) || f.Accepts([]int{}) {
		t.Error("Accepts() does not match the field type")
	}
}

func TestNewSchema_Errors(t *testing.T) {
	tests := []struct {
		name     string
		sections []*Section
		wantErr  string
	}{
		{"nil section", []*Section{nil}, "is nil"},
		{"bad section name", []*Section{NewSection("1abc")}, "invalid characters"},
		{"duplicate section", []*Section{NewSection("A"), NewSection("A")}, "duplicate section name"},
		{"nil field", []*Section{NewSection("A", nil)}, "field at index 0 is nil"},
		{"bad field name", []*Section{NewSection("A", Int("a.b", 0, nil))}, "invalid characters"},
		{"duplicate field", []*Section{NewSection("A", Int("a", 0, nil), Bool("a", false, nil))}, "duplicate field name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema("test", tt.sections...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMustSchema_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustSchema did not panic on duplicate sections")
		}
	}()
	MustSchema("test", NewSection("A"), NewSection("A"))
}

func TestSchema_Lookup(t *testing.T) {
	a := Int("a", 1, nil)
	s := MustSchema("test", NewSection("S1", String("x", "", nil), a))

	sec, ok := s.Section("S1")
	if !ok {
		t.Fatal("S1 not found")
	}
	if sec.Index("a") != 1 {
		t.Errorf("Index(a) = %d, want 1", sec.Index("a"))
	}
	if f, ok := sec.Field("a"); !ok || f != Field(a) {
		t.Error("Field(a) did not return the declared descriptor")
	}
	if _, ok := s.Section("S2"); ok {
		t.Error("unexpected section S2")
	}
	if sec.Index("missing") != -1 {
		t.Error("Index(missing) should be -1")
	}
}
