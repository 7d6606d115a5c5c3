package rule

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tokenType represents the type of a lexical token
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenImply        // => or ⇒
	tokenEqual        // ==
	tokenNotEqual     // !=
	tokenLess         // <
	tokenLessEqual    // <=
	tokenGreater      // >
	tokenGreaterEqual // >=
	tokenAnd          // &&
	tokenOr           // ||
	tokenNot          // !
)

// token represents a lexical token
type token struct {
	typ   tokenType
	value string
}

// lexer tokenizes a rule expression string
type lexer struct {
	input string
	pos   int
}

// newLexer creates a new lexer for the given input
func newLexer(input string) *lexer {
	return &lexer{input: input, pos: 0}
}

// skipWhitespace advances past any whitespace characters
func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// peek returns the current character without advancing
func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// peekAt returns the character n positions ahead without advancing
func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// peekN returns the next n characters without advancing
func (l *lexer) peekN(n int) string {
	end := l.pos + n
	if end > len(l.input) {
		end = len(l.input)
	}
	return l.input[l.pos:end]
}

// advance moves the position forward by n characters
func (l *lexer) advance(n int) {
	l.pos += n
}

var twoCharOps = map[string]tokenType{
	"=>": tokenImply,
	"==": tokenEqual,
	"!=": tokenNotEqual,
	"<=": tokenLessEqual,
	">=": tokenGreaterEqual,
	"&&": tokenAnd,
	"||": tokenOr,
}

var oneCharOps = map[byte]tokenType{
	'<': tokenLess,
	'>': tokenGreater,
	'!': tokenNot,
	'(': tokenLParen,
	')': tokenRParen,
	'[': tokenLBracket,
	']': tokenRBracket,
	',': tokenComma,
}

// nextToken returns the next token from the input
func (l *lexer) nextToken() (token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return token{typ: tokenEOF}, nil
	}

	// Multi-character operators first
	if typ, ok := twoCharOps[l.peekN(2)]; ok {
		value := l.peekN(2)
		l.advance(2)
		return token{typ: typ, value: value}, nil
	}

	// Unicode implication arrow ⇒ (3 bytes in UTF-8)
	if strings.HasPrefix(l.input[l.pos:], "⇒") {
		l.advance(len("⇒"))
		return token{typ: tokenImply, value: "⇒"}, nil
	}

	ch := l.peek()

	if typ, ok := oneCharOps[ch]; ok {
		l.advance(1)
		return token{typ: typ, value: string(ch)}, nil
	}

	if ch == '"' {
		return l.readString()
	}

	if isDigit(ch) || (ch == '-' || ch == '.') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '.') {
		return l.readNumber()
	}

	if isIdentStart(ch) {
		return l.readIdent(), nil
	}

	return token{}, fmt.Errorf("unexpected character '%c' at position %d", ch, l.pos)
}

// readString reads a quoted string literal with Go escape sequences
func (l *lexer) readString() (token, error) {
	start := l.pos
	l.advance(1) // opening quote

	for l.pos < len(l.input) && l.peek() != '"' {
		if l.peek() == '\\' {
			l.advance(1)
		}
		l.advance(1)
	}

	if l.pos >= len(l.input) {
		return token{}, fmt.Errorf("unterminated string literal")
	}
	l.advance(1) // closing quote

	value, err := strconv.Unquote(l.input[start:l.pos])
	if err != nil {
		return token{}, fmt.Errorf("invalid string literal %s", l.input[start:l.pos])
	}
	return token{typ: tokenString, value: value}, nil
}

// readNumber reads an integer or decimal literal, with optional sign and exponent
func (l *lexer) readNumber() (token, error) {
	start := l.pos
	if l.peek() == '-' {
		l.advance(1)
	}
	for l.pos < len(l.input) {
		ch := l.peek()
		if isDigit(ch) || ch == '.' || ch == 'e' || ch == 'E' ||
			((ch == '+' || ch == '-') && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E')) {
			l.advance(1)
			continue
		}
		break
	}
	text := l.input[start:l.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return token{}, fmt.Errorf("invalid number '%s'", text)
	}
	return token{typ: tokenNumber, value: text}, nil
}

// readIdent reads an identifier
func (l *lexer) readIdent() token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance(1)
	}
	return token{typ: tokenIdent, value: l.input[start:l.pos]}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIdentStart returns true if ch can start an identifier
func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

// isIdentChar returns true if ch can be part of an identifier
func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// parser parses rule expressions into an AST
type parser struct {
	lexer   *lexer
	current token
}

// newParser creates a new parser for the given input
func newParser(input string) (*parser, error) {
	p := &parser{lexer: newLexer(input)}
	// Prime the parser with the first token
	tok, err := p.lexer.nextToken()
	if err != nil {
		return nil, err
	}
	p.current = tok
	return p, nil
}

// advance moves to the next token
func (p *parser) advance() error {
	tok, err := p.lexer.nextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// expect consumes a token of the given type or fails
func (p *parser) expect(typ tokenType, what string) error {
	if p.current.typ != typ {
		return fmt.Errorf("expected '%s', got '%s'", what, p.current.value)
	}
	return p.advance()
}

// Parse parses a rule expression string
func Parse(source string) (Rule, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Rule{}, fmt.Errorf("empty rule expression")
	}

	p, err := newParser(source)
	if err != nil {
		return Rule{}, err
	}

	expr, err := p.parseRule()
	if err != nil {
		return Rule{}, err
	}

	// Ensure we consumed all input
	if p.current.typ != tokenEOF {
		return Rule{}, fmt.Errorf("unexpected token '%s' after expression", p.current.value)
	}

	return Rule{Source: source, Expr: expr}, nil
}

// MustParse is like Parse but panics on error
func MustParse(source string) Rule {
	r, err := Parse(source)
	if err != nil {
		panic(fmt.Sprintf("rule: %q: %v", source, err))
	}
	return r
}

// parseRule parses an implication or a disjunction
func (p *parser) parseRule() (Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.current.typ == tokenImply {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return Implication{Antecedent: left, Consequent: right}, nil
	}

	return left, nil
}

// parseOr parses A || B || ...
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current.typ == tokenOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Logical{Left: left, Right: right, Operator: OpOr}
	}
	return left, nil
}

// parseAnd parses A && B && ...
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current.typ == tokenAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = Logical{Left: left, Right: right, Operator: OpAnd}
	}
	return left, nil
}

// parseNot parses !A
func (p *parser) parseNot() (Expr, error) {
	if p.current.typ == tokenNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	}
	return p.parseComparison()
}

var compOps = map[tokenType]CompOp{
	tokenEqual:        OpEqual,
	tokenNotEqual:     OpNotEqual,
	tokenLess:         OpLess,
	tokenLessEqual:    OpLessEqual,
	tokenGreater:      OpGreater,
	tokenGreaterEqual: OpGreaterEqual,
}

// parseComparison parses a comparison or membership expression
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if op, ok := compOps[p.current.typ]; ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Comparison{Left: left, Right: right, Operator: op}, nil
	}

	if p.current.typ == tokenIdent && p.current.value == "in" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		list, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Membership{Element: left, List: list}, nil
	}

	return left, nil
}

// parseOperand parses a literal, value, len(...) or a parenthesised rule
func (p *parser) parseOperand() (Expr, error) {
	switch p.current.typ {
	case tokenString:
		value := p.current.value
		if err := p.advance(); err != nil {
			return nil, err
		}
		return StringLiteral{Value: value}, nil

	case tokenNumber:
		text := p.current.value
		value, _ := strconv.ParseFloat(text, 64)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NumberLiteral{Value: value, Text: text}, nil

	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen, ")"); err != nil {
			return nil, err
		}
		return expr, nil

	case tokenLBracket:
		return p.parseList()

	case tokenIdent:
		return p.parseIdent()

	default:
		return nil, fmt.Errorf("expected operand, got '%s'", p.current.value)
	}
}

// parseList parses [a, b, ...]
func (p *parser) parseList() (Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	list := ListLiteral{}
	for p.current.typ != tokenRBracket {
		item, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		if p.current.typ != tokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(tokenRBracket, "]"); err != nil {
		return nil, err
	}
	return list, nil
}

// parseIdent parses keywords: value, len, true, false
func (p *parser) parseIdent() (Expr, error) {
	name := p.current.value
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch name {
	case "value":
		return ValueRef{}, nil
	case "true":
		return BoolLiteral{Value: true}, nil
	case "false":
		return BoolLiteral{Value: false}, nil
	case "len":
		if err := p.expect(tokenLParen, "("); err != nil {
			return nil, err
		}
		operand, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokenRParen, ")"); err != nil {
			return nil, err
		}
		return Len{Operand: operand}, nil
	default:
		return nil, fmt.Errorf("unknown identifier '%s'", name)
	}
}

// Format formats an Expr back to a string representation
func Format(expr Expr) string {
	switch e := expr.(type) {
	case Implication:
		return fmt.Sprintf("%s => %s", Format(e.Antecedent), Format(e.Consequent))
	case Logical:
		return fmt.Sprintf("%s %s %s", formatOperand(e.Left), e.Operator, formatOperand(e.Right))
	case Not:
		return "!" + formatOperand(e.Operand)
	case Comparison:
		return fmt.Sprintf("%s %s %s", formatOperand(e.Left), e.Operator, formatOperand(e.Right))
	case Membership:
		return fmt.Sprintf("%s in %s", formatOperand(e.Element), formatOperand(e.List))
	case ValueRef:
		return "value"
	case Len:
		return fmt.Sprintf("len(%s)", Format(e.Operand))
	case StringLiteral:
		return strconv.Quote(e.Value)
	case NumberLiteral:
		if e.Text != "" {
			return e.Text
		}
		return strconv.FormatFloat(e.Value, 'g', -1, 64)
	case BoolLiteral:
		return strconv.FormatBool(e.Value)
	case ListLiteral:
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			items[i] = Format(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return "<unknown>"
	}
}

// formatOperand parenthesises compound sub-expressions
func formatOperand(expr Expr) string {
	switch expr.(type) {
	case Implication, Logical, Comparison, Membership:
		return "(" + Format(expr) + ")"
	}
	return Format(expr)
}
