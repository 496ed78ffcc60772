package filter

import "strings"

// Evaluator tests filters against an entry's attribute map.
type Evaluator struct{}

// NewEvaluator creates a new filter evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate reports whether attrs satisfies filter. A nil filter matches
// nothing.
func (e *Evaluator) Evaluate(filter *Filter, attrs map[string][]string) bool {
	if filter == nil {
		return false
	}

	switch filter.Type {
	case FilterAnd:
		for _, child := range filter.Children {
			if !e.Evaluate(child, attrs) {
				return false
			}
		}
		// An empty AND is true.
		return true
	case FilterOr:
		for _, child := range filter.Children {
			if e.Evaluate(child, attrs) {
				return true
			}
		}
		return false
	case FilterNot:
		if filter.Child == nil {
			return false
		}
		return !e.Evaluate(filter.Child, attrs)
	case FilterPresent:
		return len(lookup(attrs, filter.Attribute)) > 0
	case FilterEquality:
		return anyValue(attrs, filter.Attribute, func(v string) bool {
			return strings.EqualFold(v, filter.Value)
		})
	case FilterSubstring:
		if filter.Substring == nil {
			return false
		}
		return anyValue(attrs, filter.Attribute, func(v string) bool {
			return matchSubstring(v, filter.Substring)
		})
	case FilterGreaterOrEqual:
		return anyValue(attrs, filter.Attribute, func(v string) bool {
			return compareFold(v, filter.Value) >= 0
		})
	case FilterLessOrEqual:
		return anyValue(attrs, filter.Attribute, func(v string) bool {
			return compareFold(v, filter.Value) <= 0
		})
	case FilterApproxMatch:
		return anyValue(attrs, filter.Attribute, func(v string) bool {
			return matchApprox(v, filter.Value)
		})
	default:
		// Extensible match rules are not supported.
		return false
	}
}

// Matcher returns filter bound to this evaluator as a predicate.
func (e *Evaluator) Matcher(filter *Filter) func(attrs map[string][]string) bool {
	return func(attrs map[string][]string) bool {
		return e.Evaluate(filter, attrs)
	}
}

func anyValue(attrs map[string][]string, attr string, fn func(string) bool) bool {
	for _, v := range lookup(attrs, attr) {
		if fn(v) {
			return true
		}
	}
	return false
}

// lookup returns the values of attr, matching the name case-insensitively.
func lookup(attrs map[string][]string, attr string) []string {
	if values, ok := attrs[attr]; ok {
		return values
	}
	for name, values := range attrs {
		if strings.EqualFold(name, attr) {
			return values
		}
	}
	return nil
}
