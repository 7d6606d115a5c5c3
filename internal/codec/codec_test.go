package codec

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for every value, decoding its encoding yields the value back.
func TestCodec_RoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("int round-trips", prop.ForAll(
		func(v int) bool {
			return roundTrips(v)
		},
		gen.Int(),
	))

	properties.Property("float round-trips", prop.ForAll(
		func(v float64) bool {
			return roundTrips(v)
		},
		gen.Float64().SuchThat(func(f float64) bool {
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		}),
	))

	properties.Property("bool round-trips", prop.ForAll(
		func(v bool) bool {
			return roundTrips(v)
		},
		gen.Bool(),
	))

	properties.Property("string round-trips", prop.ForAll(
		func(v string) bool {
			return roundTrips(v)
		},
		gen.OneGenOf(
			gen.AlphaString(),
			gen.OneConstOf("", " padded ", `he said "hi"`, "tab\there", "back`tick",
				"#;=:", "line\nbreak", `trailing\`, `"quoted"`, "[1, 2, 3]", "null", "ünïcødé"),
		),
	))

	properties.Property("int slice round-trips", prop.ForAll(
		func(v []int) bool {
			return roundTrips(v)
		},
		gen.SliceOf(gen.Int()),
	))

	properties.Property("string slice round-trips", prop.ForAll(
		func(v []string) bool {
			return roundTrips(v)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("string map round-trips", prop.ForAll(
		func(v map[string]string) bool {
			return roundTrips(v)
		},
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func roundTrips[T any](v T) bool {
	text, err := Encode(v)
	if err != nil {
		return false
	}
	got, err := Decode[T](text)
	if err != nil {
		return false
	}
	want := v
	// nil collections encode as empty ones
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.Len() == 0 {
		return reflect.ValueOf(got).Len() == 0
	}
	return reflect.DeepEqual(got, want)
}

func TestDecode(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		got, err := Decode[int]("12")
		if err != nil || got != 12 {
			t.Errorf("Decode[int](12) = %d, %v", got, err)
		}
	})

	t.Run("bool", func(t *testing.T) {
		got, err := Decode[bool](" true ")
		if err != nil || !got {
			t.Errorf("Decode[bool](true) = %v, %v", got, err)
		}
	})

	t.Run("int list", func(t *testing.T) {
		got, err := Decode[[]int]("[1, 2, 3]")
		if err != nil || !reflect.DeepEqual(got, []int{1, 2, 3}) {
			t.Errorf("Decode[[]int] = %v, %v", got, err)
		}
	})

	t.Run("trailing comma and comment", func(t *testing.T) {
		got, err := Decode[[]int]("[1, 2, 3, /* four */]")
		if err != nil || !reflect.DeepEqual(got, []int{1, 2, 3}) {
			t.Errorf("Decode[[]int] = %v, %v", got, err)
		}
	})

	t.Run("plain string", func(t *testing.T) {
		got, err := Decode[string]("i_am_a_string")
		if err != nil || got != "i_am_a_string" {
			t.Errorf("Decode[string] = %q, %v", got, err)
		}
	})

	t.Run("quoted string", func(t *testing.T) {
		got, err := Decode[string](`"a \"b\""`)
		if err != nil || got != `a "b"` {
			t.Errorf("Decode[string] = %q, %v", got, err)
		}
	})

	t.Run("string with unbalanced quote stays literal", func(t *testing.T) {
		got, err := Decode[string](`"abc`)
		if err != nil || got != `"abc` {
			t.Errorf("Decode[string] = %q, %v", got, err)
		}
	})

	t.Run("named string type", func(t *testing.T) {
		type mode string
		got, err := Decode[mode]("live")
		if err != nil || got != mode("live") {
			t.Errorf("Decode[mode] = %q, %v", got, err)
		}
	})

	t.Run("struct", func(t *testing.T) {
		type point struct {
			X int `json:"x"`
			Y int `json:"y"`
		}
		got, err := Decode[point](`{"x": 1, "y": 2}`)
		if err != nil || got != (point{X: 1, Y: 2}) {
			t.Errorf("Decode[point] = %v, %v", got, err)
		}
		if _, err := Decode[point](`{"x": 1, "z": 2}`); err == nil {
			t.Error("expected error for unknown field")
		}
	})
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		decode  func() error
		wantErr error
	}{
		{"malformed", func() error { _, err := Decode[int]("[1,"); return err }, nil},
		{"sequence for scalar", func() error { _, err := Decode[int]("[1, 2]"); return err }, nil},
		{"scalar for sequence", func() error { _, err := Decode[[]int]("1"); return err }, nil},
		{"float for int", func() error { _, err := Decode[int]("12.5"); return err }, nil},
		{"quoted number", func() error { _, err := Decode[int](`"12"`); return err }, nil},
		{"bare word for bool", func() error { _, err := Decode[bool]("yes"); return err }, nil},
		{"empty", func() error { _, err := Decode[int]("  "); return err }, ErrEmpty},
		{"null", func() error { _, err := Decode[[]int]("null"); return err }, ErrNull},
		{"trailing data", func() error { _, err := Decode[int]("12 13"); return err }, ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 15, "15"},
		{"bool", true, "true"},
		{"string", "key1", `"key1"`},
		{"html characters kept", "<a&b>", `"<a&b>"`},
		{"backquote escaped", "a`b", "\"a\\u0060b\""},
		{"int slice", []int{1, 2, 3}, "[1,2,3]"},
		{"nil slice", []string(nil), "[]"},
		{"nil map", map[string]string(nil), "{}"},
		{"map sorted", map[string]string{"b": "2", "a": "1"}, `{"a":"1","b":"2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.value)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncode_NaN(t *testing.T) {
	if _, err := Encode(math.NaN()); err == nil {
		t.Error("expected error encoding NaN")
	}
}

func TestEncode_InvalidUTF8(t *testing.T) {
	type pair struct {
		Name string
		tag  string
	}
	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"string", "\xff", false},
		{"truncated rune", "ok\xe2\x82", false},
		{"slice element", []string{"a", "\xff"}, false},
		{"map key", map[string]string{"\xfe": "v"}, false},
		{"map value", map[string]string{"k": "\xfe"}, false},
		{"struct field", pair{Name: "\xff"}, false},
		{"unexported field ignored", pair{Name: "x", tag: "\xff"}, true},
		{"byte slice", []byte{0xff}, true},
		{"unicode", "ünïcødé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.value)
			if tt.valid && err != nil {
				t.Errorf("Encode() error = %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidUTF8) {
				t.Errorf("Encode() error = %v, want ErrInvalidUTF8", err)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	if got := Display(""); got != "" {
		t.Errorf("Display(\"\") = %q, want empty", got)
	}
	if got := Display(128); got != "128" {
		t.Errorf("Display(128) = %q", got)
	}
	if got := Display([]int{1}); got != "[1]" {
		t.Errorf("Display([1]) = %q", got)
	}
	if got := Display(math.Inf(1)); got != "UNKNOWN" {
		t.Errorf("Display(+Inf) = %q", got)
	}
}
