// Package rule implements the predicate language used by schema files.
//
// A rule is a boolean expression over the field's current value, e.g.
// `value < 20`, `len(value) > 0`, `value in ["test", "live"]` or
// `len(value) > 0 => value != "none"`.
package rule

// Expr represents a node of a parsed rule
type Expr interface {
	isExpr()
}

// CompOp represents a comparison operator
type CompOp string

const (
	OpEqual        CompOp = "=="
	OpNotEqual     CompOp = "!="
	OpLess         CompOp = "<"
	OpLessEqual    CompOp = "<="
	OpGreater      CompOp = ">"
	OpGreaterEqual CompOp = ">="
)

// LogicOp represents a binary boolean operator
type LogicOp string

const (
	OpAnd LogicOp = "&&"
	OpOr  LogicOp = "||"
)

// Implication represents A => B (if A then B).
// It holds when the antecedent is false or the consequent is true.
type Implication struct {
	Antecedent Expr
	Consequent Expr
}

func (Implication) isExpr() {}

// Logical represents A && B or A || B
type Logical struct {
	Left     Expr
	Right    Expr
	Operator LogicOp
}

func (Logical) isExpr() {}

// Not represents !A
type Not struct {
	Operand Expr
}

func (Not) isExpr() {}

// Comparison represents A op B
type Comparison struct {
	Left     Expr
	Right    Expr
	Operator CompOp
}

func (Comparison) isExpr() {}

// Membership represents A in B, where B evaluates to a list
type Membership struct {
	Element Expr
	List    Expr
}

func (Membership) isExpr() {}

// ValueRef refers to the value being validated
type ValueRef struct{}

func (ValueRef) isExpr() {}

// Len represents len(A) for strings, lists and maps
type Len struct {
	Operand Expr
}

func (Len) isExpr() {}

// StringLiteral represents a quoted string (e.g., "prod")
type StringLiteral struct {
	Value string
}

func (StringLiteral) isExpr() {}

// NumberLiteral represents a numeric constant
type NumberLiteral struct {
	Value float64
	Text  string // Source spelling, kept for formatting
}

func (NumberLiteral) isExpr() {}

// BoolLiteral represents true or false
type BoolLiteral struct {
	Value bool
}

func (BoolLiteral) isExpr() {}

// ListLiteral represents [a, b, c]
type ListLiteral struct {
	Items []Expr
}

func (ListLiteral) isExpr() {}

// Rule is a parsed rule together with its source text
type Rule struct {
	Source string
	Expr   Expr
}
