package repository

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/models"
)

// FieldValue returns the value of a named field, falling back to Extra
func FieldValue(r *models.Resource, field string) (any, bool) {
	switch field {
	case models.FieldID:
		return r.ID, true
	case models.FieldTitle:
		return r.Title, true
	case models.FieldDescription:
		return r.Description, true
	case models.FieldCategory:
		return string(r.Category), true
	case models.FieldSubcategory:
		return r.Subcategory, true
	case models.FieldTags:
		return r.Tags, true
	case models.FieldSource:
		return r.Source, true
	case models.FieldSourceName:
		return r.SourceName, true
	case models.FieldFeatured:
		return r.Featured, true
	case models.FieldIsPremiumContent:
		return r.IsPremiumContent, true
	case models.FieldDateAdded:
		return r.DateAdded, true
	case models.FieldCreatedAt:
		return r.CreatedAt, true
	case models.FieldUpdatedAt:
		return r.UpdatedAt, true
	case models.FieldNote:
		return r.Note, true
	}
	v, ok := r.Extra[field]
	return v, ok
}

// Match evaluates pred against r in process.
// Text search is a case-insensitive substring match over title, description and tags.
func Match(pred filter.Predicate, r *models.Resource) bool {
	if pred == nil {
		return true
	}
	switch p := pred.(type) {
	case filter.Group:
		if p.Kind() == filter.KindOr {
			for _, c := range p.Children {
				if Match(c, r) {
					return true
				}
			}
			return false
		}
		for _, c := range p.Children {
			if !Match(c, r) {
				return false
			}
		}
		return true

	case filter.Condition:
		v, ok := FieldValue(r, p.Field)
		eq := ok && valuesEqual(v, p.Value)
		if p.Kind() == filter.KindNotEquals {
			return !eq
		}
		return eq

	case filter.Regex:
		v, ok := FieldValue(r, p.Field)
		if !ok {
			return false
		}
		expr := p.Pattern
		if p.CaseInsensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return false
		}
		for _, s := range stringsOf(v) {
			if re.MatchString(s) {
				return true
			}
		}
		return false

	case filter.ArrayMatch:
		v, _ := FieldValue(r, p.Field)
		have := stringsOf(v)
		if p.Kind() == filter.KindArrayContainsAll {
			for _, want := range p.Values {
				if !containsString(have, want) {
					return false
				}
			}
			return true
		}
		for _, want := range p.Values {
			if containsString(have, want) {
				return true
			}
		}
		return false

	case filter.Text:
		q := strings.ToLower(p.Query)
		fields := append([]string{r.Title, r.Description}, r.Tags...)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}
	return false
}

func valuesEqual(have, want any) bool {
	switch w := want.(type) {
	case models.Category:
		want = string(w)
	case primitive.ObjectID:
		h, ok := have.(primitive.ObjectID)
		return ok && h == w
	}
	if hs, ok := have.([]string); ok {
		ws, ok := want.(string)
		return ok && containsString(hs, ws)
	}
	return fmt.Sprint(have) == fmt.Sprint(want)
}

func stringsOf(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// SortResources orders rs in place. Ties keep their input order.
func SortResources(rs []models.Resource, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(rs, func(i, j int) bool {
		for _, f := range fields {
			a, _ := FieldValue(&rs[i], f.Field)
			b, _ := FieldValue(&rs[j], f.Field)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case bool:
		bv, _ := b.(bool)
		switch {
		case av == bv:
			return 0
		case av:
			return 1
		default:
			return -1
		}
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case primitive.ObjectID:
		bv, _ := b.(primitive.ObjectID)
		return strings.Compare(av.Hex(), bv.Hex())
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
