package filter

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet1stop-platform/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func TestBuild_NoOptionsMatchesAll(t *testing.T) {
	q, err := Build(Options{})
	require.NoError(t, err)
	assert.True(t, IsMatchAll(q.Predicate))
	assert.Equal(t, 0, q.Limit)
}

func TestBuild_AllOptions(t *testing.T) {
	q, err := Build(Options{
		Category:         strPtr("health"),
		Subcategory:      strPtr("mental"),
		Source:           strPtr("government"),
		Featured:         boolPtr(true),
		IsPremiumContent: boolPtr(false),
		Tags:             []string{"ptsd", "ngo"},
		Query:            "  crisis line ",
		Limit:            intPtr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, q.Limit)

	g, ok := q.Predicate.(Group)
	require.True(t, ok)
	assert.Equal(t, KindAnd, g.Kind())
	require.Len(t, g.Children, 7)

	assert.Equal(t, Equals(models.FieldCategory, "health"), g.Children[0])
	assert.Equal(t, Equals(models.FieldSubcategory, "mental"), g.Children[1])
	assert.Equal(t, Equals(models.FieldSource, "government"), g.Children[2])
	assert.Equal(t, Equals(models.FieldFeatured, true), g.Children[3])
	assert.Equal(t, Equals(models.FieldIsPremiumContent, false), g.Children[4])
	assert.Equal(t, ArrayContainsAll(models.FieldTags, []string{"ptsd", "ngo"}), g.Children[5])
	assert.Equal(t, TextSearch("crisis line"), g.Children[6])
}

func TestBuild_FalseIsDistinctFromUnset(t *testing.T) {
	unset, err := Build(Options{})
	require.NoError(t, err)
	explicit, err := Build(Options{Featured: boolPtr(false)})
	require.NoError(t, err)

	assert.True(t, IsMatchAll(unset.Predicate))
	assert.False(t, IsMatchAll(explicit.Predicate))
	assert.Contains(t, explicit.Predicate.String(), "eq(featured, false)")
}

func TestBuild_BlankQueryIgnored(t *testing.T) {
	q, err := Build(Options{Query: "   "})
	require.NoError(t, err)
	assert.True(t, IsMatchAll(q.Predicate))
}

func TestBuild_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"empty tag", Options{Tags: []string{"ptsd", ""}}, "tags"},
		{"zero limit", Options{Limit: intPtr(0)}, "limit"},
		{"negative limit", Options{Limit: intPtr(-4)}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilter))

			var ife *InvalidFilterError
			require.ErrorAs(t, err, &ife)
			assert.Equal(t, tt.field, ife.Field)
		})
	}
}

func TestBuild_TagsAreCopied(t *testing.T) {
	tags := []string{"a", "b"}
	q, err := Build(Options{Tags: tags})
	require.NoError(t, err)
	tags[0] = "mutated"

	g := q.Predicate.(Group)
	am := g.Children[0].(ArrayMatch)
	assert.Equal(t, []string{"a", "b"}, am.Values)
}

func TestParseValues(t *testing.T) {
	values := url.Values{
		"category":         {"education"},
		"featured":         {"false"},
		"isPremiumContent": {"true"},
		"tags":             {"gi bill, scholarship", "ngo"},
		"q":                {"college"},
		"limit":            {"5"},
	}

	opts, err := ParseValues(values)
	require.NoError(t, err)
	require.NotNil(t, opts.Category)
	assert.Equal(t, "education", *opts.Category)
	assert.Nil(t, opts.Subcategory)
	assert.Nil(t, opts.Source)
	require.NotNil(t, opts.Featured)
	assert.False(t, *opts.Featured)
	require.NotNil(t, opts.IsPremiumContent)
	assert.True(t, *opts.IsPremiumContent)
	assert.Equal(t, []string{"gi bill", "scholarship", "ngo"}, opts.Tags)
	assert.Equal(t, "college", opts.Query)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, 5, *opts.Limit)
}

func TestParseValues_EmptyParamsAreAbsent(t *testing.T) {
	opts, err := ParseValues(url.Values{"category": {""}, "tags": {""}, "limit": {""}})
	require.NoError(t, err)
	assert.Nil(t, opts.Category)
	assert.Empty(t, opts.Tags)
	assert.Nil(t, opts.Limit)
}

func TestParseValues_Malformed(t *testing.T) {
	_, err := ParseValues(url.Values{"featured": {"maybe"}})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = ParseValues(url.Values{"limit": {"ten"}})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	opts, err := ParseValues(url.Values{"tags": {"ptsd,,ngo"}})
	require.NoError(t, err)
	_, err = Build(opts)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}
