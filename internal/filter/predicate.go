// Package filter builds storage-agnostic predicates from resource query options.
//
// A Predicate is an immutable tree of conditions. Repositories translate it into
// their own query language (bson for MongoDB, in-process evaluation for memory).
package filter

import (
	"fmt"
	"strings"
)

// Kind identifies the predicate node type
type Kind int

const (
	KindEquals Kind = iota
	KindNotEquals
	KindRegexContains
	KindArrayContainsAny
	KindArrayContainsAll
	KindTextSearch
	KindAnd
	KindOr
)

func (k Kind) String() string {
	switch k {
	case KindEquals:
		return "eq"
	case KindNotEquals:
		return "ne"
	case KindRegexContains:
		return "regex"
	case KindArrayContainsAny:
		return "any"
	case KindArrayContainsAll:
		return "all"
	case KindTextSearch:
		return "text"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	default:
		return "unknown"
	}
}

// Predicate is a node of a filter tree
type Predicate interface {
	Kind() Kind
	String() string
}

// Condition compares a single field against a value
type Condition struct {
	kind  Kind
	Field string
	Value any
}

func (c Condition) Kind() Kind { return c.kind }

func (c Condition) String() string {
	return fmt.Sprintf("%s(%s, %v)", c.kind, c.Field, c.Value)
}

// Regex matches a field containing Pattern
type Regex struct {
	Field           string
	Pattern         string
	CaseInsensitive bool
}

func (Regex) Kind() Kind { return KindRegexContains }

func (r Regex) String() string {
	return fmt.Sprintf("regex(%s, %q, i=%t)", r.Field, r.Pattern, r.CaseInsensitive)
}

// ArrayMatch matches an array field against a set of values
type ArrayMatch struct {
	kind   Kind
	Field  string
	Values []string
}

func (a ArrayMatch) Kind() Kind { return a.kind }

func (a ArrayMatch) String() string {
	return fmt.Sprintf("%s(%s, [%s])", a.kind, a.Field, strings.Join(a.Values, ","))
}

// Text is a free-text search whose semantics are left to the repository
type Text struct {
	Query string
}

func (Text) Kind() Kind { return KindTextSearch }

func (t Text) String() string { return fmt.Sprintf("text(%q)", t.Query) }

// Group joins child predicates with And or Or
type Group struct {
	kind     Kind
	Children []Predicate
}

func (g Group) Kind() Kind { return g.kind }

func (g Group) String() string {
	parts := make([]string, len(g.Children))
	for i, c := range g.Children {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s(%s)", g.kind, strings.Join(parts, ", "))
}

func Equals(field string, value any) Predicate {
	return Condition{kind: KindEquals, Field: field, Value: value}
}

func NotEquals(field string, value any) Predicate {
	return Condition{kind: KindNotEquals, Field: field, Value: value}
}

func RegexContains(field, pattern string, caseInsensitive bool) Predicate {
	return Regex{Field: field, Pattern: pattern, CaseInsensitive: caseInsensitive}
}

// ArrayContainsAny matches when the field shares at least one value
func ArrayContainsAny(field string, values []string) Predicate {
	return ArrayMatch{kind: KindArrayContainsAny, Field: field, Values: append([]string(nil), values...)}
}

// ArrayContainsAll matches when every value is present on the field
func ArrayContainsAll(field string, values []string) Predicate {
	return ArrayMatch{kind: KindArrayContainsAll, Field: field, Values: append([]string(nil), values...)}
}

func TextSearch(query string) Predicate {
	return Text{Query: query}
}

func And(preds ...Predicate) Predicate {
	return Group{kind: KindAnd, Children: append([]Predicate(nil), preds...)}
}

func Or(preds ...Predicate) Predicate {
	return Group{kind: KindOr, Children: append([]Predicate(nil), preds...)}
}

// MatchAll returns the empty conjunction, which matches every record
func MatchAll() Predicate {
	return Group{kind: KindAnd}
}

// IsMatchAll reports whether p places no restriction
func IsMatchAll(p Predicate) bool {
	if p == nil {
		return true
	}
	g, ok := p.(Group)
	return ok && g.kind == KindAnd && len(g.Children) == 0
}
