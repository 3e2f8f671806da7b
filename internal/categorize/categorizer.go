// Package categorize assigns resources to a category using ordered keyword rules.
// The first rule with a matching keyword wins; later rules are never consulted.
package categorize

import (
	"sort"
	"strings"

	"vet1stop-platform/models"
)

// Rule maps a keyword set to a category
type Rule struct {
	Category models.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// Match describes the outcome of a categorization
type Match struct {
	Category  models.Category
	Keyword   string
	RuleIndex int // -1 when no rule matched
}

// Matched reports whether a rule fired
func (m Match) Matched() bool {
	return m.RuleIndex >= 0
}

// DefaultRules returns the canonical rule order. Order is load-bearing.
func DefaultRules() []Rule {
	return []Rule{
		{Category: models.CategoryHealth, Keywords: []string{"health", "medical"}},
		{Category: models.CategoryEducation, Keywords: []string{"education", "school", "training"}},
		{Category: models.CategoryLifeLeisure, Keywords: []string{"life", "leisure", "housing"}},
		{Category: models.CategoryJobs, Keywords: []string{"job", "career", "employment"}},
		{Category: models.CategoryShop, Keywords: []string{"shop", "business", "store", "discount"}},
		{Category: models.CategoryLocal, Keywords: []string{"local", "community", "service", "location"}},
		{Category: models.CategorySocial, Keywords: []string{"social", "event", "group", "news", "article"}},
	}
}

// Categorizer is safe for concurrent use; it holds no mutable state
type Categorizer struct {
	rules []Rule
}

// New builds a categorizer over rules. Keywords are lower-cased once here.
func New(rules []Rule) *Categorizer {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized = append(normalized, Rule{Category: r.Category, Keywords: kws})
	}
	return &Categorizer{rules: normalized}
}

// Default returns a categorizer over DefaultRules
func Default() *Categorizer {
	return New(DefaultRules())
}

// Rules returns a copy of the rule list
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Categorize returns the category of the first rule whose keyword appears in text
func (c *Categorizer) Categorize(text string) models.Category {
	return c.Explain(text).Category
}

// Explain is Categorize plus the keyword and rule that fired
func (c *Categorizer) Explain(text string) Match {
	folded := strings.ToLower(text)
	for i, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(folded, kw) {
				return Match{Category: r.Category, Keyword: kw, RuleIndex: i}
			}
		}
	}
	return Match{Category: models.CategoryUndefined, RuleIndex: -1}
}

// CategorizeResource categorizes the serialized text of r
func (c *Categorizer) CategorizeResource(r *models.Resource) Match {
	return c.Explain(ResourceText(r))
}

// ResourceText concatenates every string-valued field of r.
// Extra keys are visited in sorted order so the output is stable.
func ResourceText(r *models.Resource) string {
	if r == nil {
		return ""
	}
	parts := []string{
		r.Title,
		r.Description,
		string(r.Category),
		r.Subcategory,
		r.Source,
		r.SourceName,
	}
	parts = append(parts, r.Tags...)

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = appendStrings(parts, r.Extra[k])
	}

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

func appendStrings(dst []string, v any) []string {
	switch val := v.(type) {
	case string:
		return append(dst, val)
	case []string:
		return append(dst, val...)
	case []any:
		for _, item := range val {
			dst = appendStrings(dst, item)
		}
	}
	return dst
}
