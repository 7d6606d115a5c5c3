package rule

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name   string
		source string
		value  any
		want   bool
	}{
		{"int below bound", "value < 20", 15, true},
		{"int above bound", "value < 20", 128, false},
		{"float bound", "value <= 0.5", 0.5, true},
		{"non-empty string", "len(value) > 0", "key1", true},
		{"empty string", "len(value) > 0", "", false},
		{"unicode length counts runes", "len(value) == 2", "éé", true},
		{"short list", "len(value) < 4", []int{1, 2, 3}, true},
		{"long list", "len(value) < 4", []int{1, 2, 3, 4}, false},
		{"bool in list", "value in [true, false]", true, true},
		{"enum member", `value in ["test", "live"]`, "live", true},
		{"enum non-member", `value in ["test", "live"]`, "prod", false},
		{"list contains", "3 in value", []int{1, 2, 3}, true},
		{"map key", `"host" in value`, map[string]string{"host": "x"}, true},
		{"substring", `"://" in value`, "http://x", true},
		{"list equality", "value == [1, 2]", []int{1, 2}, true},
		{"string ordering", `value < "m"`, "apple", true},
		{"conjunction", "value > 0 && value < 10", 5, true},
		{"disjunction", "value < 0 || value > 10", 5, false},
		{"negation", "!(value == 0)", 1, true},
		{"implication vacuous", `value != "" => len(value) > 3`, "", true},
		{"implication holds", `value != "" => len(value) > 3`, "abcd", true},
		{"implication fails", `value != "" => len(value) > 3`, "ab", false},
		{"named int type", "value == 7", int32(7), true},
		{"bare true", "true", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := MustParse(tt.source)
			got, msg := r.Eval(tt.value)
			if got != tt.want {
				t.Errorf("Eval(%q, %v) = %v (%s), want %v", tt.source, tt.value, got, msg, tt.want)
			}
			if got && msg != "" {
				t.Errorf("passing rule returned message %q", msg)
			}
			if !got && msg == "" {
				t.Error("failing rule returned no message")
			}
		})
	}
}

func TestEval_Messages(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		value   any
		wantMsg string
	}{
		{"comparison", "value < 20", 128, "128 < 20 does not hold"},
		{"membership", `value in ["a", "b"]`, "c", `"c" is not in ["a", "b"]`},
		{"implication", `value != "" => len(value) > 3`, "ab", "condition 'value != \"\"' is true but 'len(value) > 3' is false"},
		{"type mismatch", "value < 20", "abc", "cannot compare"},
		{"non-boolean rule", "len(value)", "abc", "not a boolean"},
		{"len of number", "len(value) > 1", 5, "len() of 5 is undefined"},
		{"non-boolean operand", "value && true", 1, "not a boolean"},
		{"unsupported type", "value == 1", make(chan int), "unsupported value type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := Eval(MustParse(tt.source).Expr, tt.value)
			if ok {
				t.Fatalf("Eval(%q) passed, want failure", tt.source)
			}
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}

// Property: numeric comparison rules agree with Go's operators.
func TestEval_NumericComparison_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("value < bound agrees with <", prop.ForAll(
		func(v, bound int) bool {
			got, _ := Eval(Comparison{Left: ValueRef{}, Right: NumberLiteral{Value: float64(bound)}, Operator: OpLess}, v)
			return got == (v < bound)
		},
		gen.IntRange(-1<<20, 1<<20),
		gen.IntRange(-1<<20, 1<<20),
	))

	properties.Property("implication equals !a || b", prop.ForAll(
		func(v int) bool {
			r := MustParse("value > 0 => value > 10")
			got, _ := r.Eval(v)
			return got == (!(v > 0) || v > 10)
		},
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
