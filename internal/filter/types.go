// Package filter evaluates LDAP search filters against directory entry
// attributes.
package filter

// FilterType represents the type of LDAP filter operation.
type FilterType int

const (
	// FilterAnd represents an AND filter (&).
	FilterAnd FilterType = iota
	// FilterOr represents an OR filter (|).
	FilterOr
	// FilterNot represents a NOT filter (!).
	FilterNot
	// FilterEquality represents an equality filter (attr=value).
	FilterEquality
	// FilterSubstring represents a substring filter (attr=*value*).
	FilterSubstring
	// FilterGreaterOrEqual represents a greater-or-equal filter (attr>=value).
	FilterGreaterOrEqual
	// FilterLessOrEqual represents a less-or-equal filter (attr<=value).
	FilterLessOrEqual
	// FilterPresent represents a presence filter (attr=*).
	FilterPresent
	// FilterApproxMatch represents an approximate match filter (attr~=value).
	FilterApproxMatch
	// FilterExtensibleMatch represents an extensible match filter.
	FilterExtensibleMatch
)

var filterTypeNames = map[FilterType]string{
	FilterAnd:             "and",
	FilterOr:              "or",
	FilterNot:             "not",
	FilterEquality:        "equality",
	FilterSubstring:       "substring",
	FilterGreaterOrEqual:  "greaterOrEqual",
	FilterLessOrEqual:     "lessOrEqual",
	FilterPresent:         "present",
	FilterApproxMatch:     "approxMatch",
	FilterExtensibleMatch: "extensibleMatch",
}

func (ft FilterType) String() string {
	if name, ok := filterTypeNames[ft]; ok {
		return name
	}
	return "unknown"
}

// Filter is a decoded search filter tree.
type Filter struct {
	Type      FilterType
	Attribute string
	Value     string
	Children  []*Filter        // and, or
	Child     *Filter          // not
	Substring *SubstringFilter // substring
}

// SubstringFilter holds the parts of a substring assertion.
type SubstringFilter struct {
	Initial string
	Any     []string
	Final   string
}

// NewAndFilter creates a new AND filter with the given children.
func NewAndFilter(children ...*Filter) *Filter {
	return &Filter{Type: FilterAnd, Children: children}
}

// NewOrFilter creates a new OR filter with the given children.
func NewOrFilter(children ...*Filter) *Filter {
	return &Filter{Type: FilterOr, Children: children}
}

// NewNotFilter creates a new NOT filter with the given child.
func NewNotFilter(child *Filter) *Filter {
	return &Filter{Type: FilterNot, Child: child}
}

// NewEqualityFilter creates a new equality filter.
func NewEqualityFilter(attribute, value string) *Filter {
	return &Filter{Type: FilterEquality, Attribute: attribute, Value: value}
}

// NewSubstringFilter creates a new substring filter.
func NewSubstringFilter(attribute string, sf *SubstringFilter) *Filter {
	return &Filter{Type: FilterSubstring, Attribute: attribute, Substring: sf}
}

// NewPresentFilter creates a new presence filter.
func NewPresentFilter(attribute string) *Filter {
	return &Filter{Type: FilterPresent, Attribute: attribute}
}

// NewGreaterOrEqualFilter creates a new greater-or-equal filter.
func NewGreaterOrEqualFilter(attribute, value string) *Filter {
	return &Filter{Type: FilterGreaterOrEqual, Attribute: attribute, Value: value}
}

// NewLessOrEqualFilter creates a new less-or-equal filter.
func NewLessOrEqualFilter(attribute, value string) *Filter {
	return &Filter{Type: FilterLessOrEqual, Attribute: attribute, Value: value}
}

// NewApproxMatchFilter creates a new approximate match filter.
func NewApproxMatchFilter(attribute, value string) *Filter {
	return &Filter{Type: FilterApproxMatch, Attribute: attribute, Value: value}
}
