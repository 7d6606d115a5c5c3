package rule

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Eval evaluates the rule against v.
// It returns whether the rule holds and, if it does not, a human-readable reason.
func (r Rule) Eval(v any) (passed bool, message string) {
	return Eval(r.Expr, v)
}

// Eval evaluates expr with `value` bound to v.
// Type errors make the rule fail; the message then describes the error.
func Eval(expr Expr, v any) (passed bool, message string) {
	value, err := normalize(reflect.ValueOf(v))
	if err != nil {
		return false, err.Error()
	}

	res, err := eval(expr, value)
	if err != nil {
		return false, err.Error()
	}

	b, ok := res.(bool)
	if !ok {
		return false, fmt.Sprintf("rule evaluates to %s, not a boolean", display(res))
	}
	if !b {
		return false, explain(expr, value)
	}
	return true, ""
}

// eval evaluates an expression to one of: nil, bool, float64, string, []any, map[string]any
func eval(expr Expr, value any) (any, error) {
	switch e := expr.(type) {
	case ValueRef:
		return value, nil
	case StringLiteral:
		return e.Value, nil
	case NumberLiteral:
		return e.Value, nil
	case BoolLiteral:
		return e.Value, nil
	case ListLiteral:
		items := make([]any, len(e.Items))
		for i, item := range e.Items {
			v, err := eval(item, value)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case Len:
		return evalLen(e, value)
	case Not:
		b, err := evalBool(e.Operand, value)
		if err != nil {
			return nil, err
		}
		return !b, nil
	case Logical:
		return evalLogical(e, value)
	case Implication:
		// Implication truth table: A => B is true if A is false OR B is true
		ant, err := evalBool(e.Antecedent, value)
		if err != nil {
			return nil, err
		}
		if !ant {
			return true, nil
		}
		return evalBool(e.Consequent, value)
	case Comparison:
		return evalComparison(e, value)
	case Membership:
		return evalMembership(e, value)
	default:
		return nil, fmt.Errorf("unknown expression type %T", expr)
	}
}

func evalBool(expr Expr, value any) (bool, error) {
	res, err := eval(expr, value)
	if err != nil {
		return false, err
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("'%s' is %s, not a boolean", Format(expr), display(res))
	}
	return b, nil
}

func evalLen(e Len, value any) (any, error) {
	res, err := eval(e.Operand, value)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case string:
		return float64(utf8.RuneCountInString(v)), nil
	case []any:
		return float64(len(v)), nil
	case map[string]any:
		return float64(len(v)), nil
	default:
		return nil, fmt.Errorf("len() of %s is undefined", display(res))
	}
}

func evalLogical(e Logical, value any) (any, error) {
	left, err := evalBool(e.Left, value)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case OpAnd:
		if !left {
			return false, nil
		}
	case OpOr:
		if left {
			return true, nil
		}
	default:
		return nil, fmt.Errorf("unknown operator: %s", e.Operator)
	}
	return evalBool(e.Right, value)
}

func evalComparison(e Comparison, value any) (any, error) {
	left, err := eval(e.Left, value)
	if err != nil {
		return nil, err
	}
	right, err := eval(e.Right, value)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case OpEqual:
		return reflect.DeepEqual(left, right), nil
	case OpNotEqual:
		return !reflect.DeepEqual(left, right), nil
	}

	cmp, err := order(left, right)
	if err != nil {
		return nil, fmt.Errorf("cannot compare %s %s %s: %v", display(left), e.Operator, display(right), err)
	}
	switch e.Operator {
	case OpLess:
		return cmp < 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	case OpGreater:
		return cmp > 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	default:
		return nil, fmt.Errorf("unknown operator: %s", e.Operator)
	}
}

// order compares two numbers or two strings
func order(left, right any) (int, error) {
	switch l := left.(type) {
	case float64:
		r, ok := right.(float64)
		if !ok {
			return 0, fmt.Errorf("operands have different types")
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case string:
		r, ok := right.(string)
		if !ok {
			return 0, fmt.Errorf("operands have different types")
		}
		return strings.Compare(l, r), nil
	default:
		return 0, fmt.Errorf("operands are not ordered")
	}
}

func evalMembership(e Membership, value any) (any, error) {
	elem, err := eval(e.Element, value)
	if err != nil {
		return nil, err
	}
	container, err := eval(e.List, value)
	if err != nil {
		return nil, err
	}

	switch c := container.(type) {
	case []any:
		for _, item := range c {
			if reflect.DeepEqual(item, elem) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		key, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("map keys are strings, got %s", display(elem))
		}
		_, found := c[key]
		return found, nil
	case string:
		sub, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("cannot search %s in a string", display(elem))
		}
		return strings.Contains(c, sub), nil
	default:
		return nil, fmt.Errorf("'in' needs a list, map or string, got %s", display(container))
	}
}

// normalize maps Go values onto the rule value model
func normalize(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			item, err := normalize(rv.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := normalize(iter.Value())
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = item
		}
		return m, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem())
	default:
		return nil, fmt.Errorf("unsupported value type %s", rv.Type())
	}
}

// explain describes why a well-typed rule evaluated to false
func explain(expr Expr, value any) string {
	switch e := expr.(type) {
	case Comparison:
		left, _ := eval(e.Left, value)
		right, _ := eval(e.Right, value)
		return fmt.Sprintf("%s %s %s does not hold", display(left), e.Operator, display(right))
	case Implication:
		return fmt.Sprintf("condition '%s' is true but '%s' is false",
			Format(e.Antecedent), Format(e.Consequent))
	case Membership:
		elem, _ := eval(e.Element, value)
		list, _ := eval(e.List, value)
		return fmt.Sprintf("%s is not in %s", display(elem), display(list))
	default:
		return fmt.Sprintf("'%s' is false", Format(expr))
	}
}

// display renders an evaluated value for messages
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = display(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + display(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}
