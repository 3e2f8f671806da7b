package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"vet1stop-platform/models"
)

// ErrInvalidFilter is matched by every InvalidFilterError
var ErrInvalidFilter = errors.New("invalid filter")

// InvalidFilterError reports bad caller input. It is never retried.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// Options are the recognized query options. Nil pointers mean "not supplied".
type Options struct {
	Category         *string
	Subcategory      *string
	Source           *string
	Featured         *bool
	IsPremiumContent *bool
	Tags             []string
	Query            string
	Limit            *int
}

// Query is a built predicate plus the result cap applied by the caller
type Query struct {
	Predicate Predicate
	Limit     int // 0 means no cap
}

// Build converts options into a predicate. All set conditions are joined with And.
func Build(opts Options) (Query, error) {
	var conds []Predicate

	if opts.Category != nil {
		conds = append(conds, Equals(models.FieldCategory, *opts.Category))
	}
	if opts.Subcategory != nil {
		conds = append(conds, Equals(models.FieldSubcategory, *opts.Subcategory))
	}
	if opts.Source != nil {
		conds = append(conds, Equals(models.FieldSource, *opts.Source))
	}
	if opts.Featured != nil {
		conds = append(conds, Equals(models.FieldFeatured, *opts.Featured))
	}
	if opts.IsPremiumContent != nil {
		conds = append(conds, Equals(models.FieldIsPremiumContent, *opts.IsPremiumContent))
	}

	if len(opts.Tags) > 0 {
		for i, tag := range opts.Tags {
			if tag == "" {
				return Query{}, &InvalidFilterError{Field: "tags", Reason: fmt.Sprintf("element %d is empty", i)}
			}
		}
		conds = append(conds, ArrayContainsAll(models.FieldTags, opts.Tags))
	}

	if q := strings.TrimSpace(opts.Query); q != "" {
		conds = append(conds, TextSearch(q))
	}

	limit := 0
	if opts.Limit != nil {
		if *opts.Limit < 1 {
			return Query{}, &InvalidFilterError{Field: "limit", Reason: "must be a positive integer"}
		}
		limit = *opts.Limit
	}

	if len(conds) == 0 {
		return Query{Predicate: MatchAll(), Limit: limit}, nil
	}
	return Query{Predicate: And(conds...), Limit: limit}, nil
}

// ParseValues reads options from URL query parameters.
// tags may be comma separated, repeated, or both; q is the free-text query.
func ParseValues(values url.Values) (Options, error) {
	var opts Options

	if v, ok := lookup(values, "category"); ok {
		opts.Category = &v
	}
	if v, ok := lookup(values, "subcategory"); ok {
		opts.Subcategory = &v
	}
	if v, ok := lookup(values, "source"); ok {
		opts.Source = &v
	}

	for _, name := range []string{"featured", "isPremiumContent"} {
		v, ok := lookup(values, name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Options{}, &InvalidFilterError{Field: name, Reason: fmt.Sprintf("%q is not a boolean", v)}
		}
		if name == "featured" {
			opts.Featured = &b
		} else {
			opts.IsPremiumContent = &b
		}
	}

	for _, raw := range values["tags"] {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		for _, tag := range strings.Split(raw, ",") {
			opts.Tags = append(opts.Tags, strings.TrimSpace(tag))
		}
	}

	opts.Query = values.Get("q")

	if v, ok := lookup(values, "limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Options{}, &InvalidFilterError{Field: "limit", Reason: fmt.Sprintf("%q is not an integer", v)}
		}
		opts.Limit = &n
	}

	return opts, nil
}

// lookup treats empty parameters as absent
func lookup(values url.Values, key string) (string, bool) {
	v := strings.TrimSpace(values.Get(key))
	return v, v != ""
}
