package schema

import (
	"fmt"

	"ovconfig/internal/rule"
)

// Predicate decides whether a field value is valid
type Predicate[T any] interface {
	Validate(v T) bool
}

// Explainer is implemented by predicates that can describe a rejected value
type Explainer[T any] interface {
	Explain(v T) (reason string, suggest []string)
}

// PredicateFunc adapts a plain function to Predicate
type PredicateFunc[T any] func(v T) bool

func (f PredicateFunc[T]) Validate(v T) bool { return f(v) }

type anyPredicate[T any] struct{}

func (anyPredicate[T]) Validate(T) bool { return true }

// Any accepts every value
func Any[T any]() Predicate[T] { return anyPredicate[T]{} }

func predicateOf[T any](check func(T) bool) Predicate[T] {
	if check == nil {
		return Any[T]()
	}
	return PredicateFunc[T](check)
}

type oneOf[T comparable] struct {
	allowed []T
}

// OneOf accepts only the listed values and suggests them on rejection
func OneOf[T comparable](allowed ...T) Predicate[T] {
	return oneOf[T]{allowed: allowed}
}

func (p oneOf[T]) Validate(v T) bool {
	for _, a := range p.allowed {
		if a == v {
			return true
		}
	}
	return false
}

func (p oneOf[T]) Explain(T) (string, []string) {
	suggest := make([]string, len(p.allowed))
	for i, a := range p.allowed {
		suggest[i] = fmt.Sprintf("%v", a)
	}
	return "", suggest
}

type allOf[T any] struct {
	preds []Predicate[T]
}

// All accepts a value only if every predicate does.
// The first failing predicate explains the rejection.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return allOf[T]{preds: preds}
}

func (p allOf[T]) Validate(v T) bool {
	for _, pred := range p.preds {
		if !pred.Validate(v) {
			return false
		}
	}
	return true
}

func (p allOf[T]) Explain(v T) (string, []string) {
	for _, pred := range p.preds {
		if pred.Validate(v) {
			continue
		}
		if ex, ok := pred.(Explainer[T]); ok {
			return ex.Explain(v)
		}
		return "", nil
	}
	return "", nil
}

type rulePredicate[T any] struct {
	rule rule.Rule
}

// FromRule turns a parsed rule into a predicate; the rule's failure message
// becomes the rejection reason.
func FromRule[T any](r rule.Rule) Predicate[T] {
	return rulePredicate[T]{rule: r}
}

func (p rulePredicate[T]) Validate(v T) bool {
	ok, _ := p.rule.Eval(v)
	return ok
}

func (p rulePredicate[T]) Explain(v T) (string, []string) {
	_, msg := p.rule.Eval(v)
	return msg, nil
}
