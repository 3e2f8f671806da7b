package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the closed taxonomy a resource belongs to
type Category string

const (
	CategoryHealth      Category = "health"
	CategoryEducation   Category = "education"
	CategoryLifeLeisure Category = "life_leisure"
	CategoryJobs        Category = "jobs"
	CategoryShop        Category = "shop"
	CategoryLocal       Category = "local"
	CategorySocial      Category = "social"
	CategoryUndefined   Category = "undefined"
)

// PlaceholderNote marks records moved by the reclassification run
const PlaceholderNote = "Placeholder content - to be revamped or improved in future updates."

// Resource field names as stored in MongoDB
const (
	FieldID               = "_id"
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldCategory         = "category"
	FieldSubcategory      = "subcategory"
	FieldTags             = "tags"
	FieldSource           = "source"
	FieldSourceName       = "sourceName"
	FieldFeatured         = "featured"
	FieldIsPremiumContent = "isPremiumContent"
	FieldDateAdded        = "dateAdded"
	FieldCreatedAt        = "createdAt"
	FieldUpdatedAt        = "updatedAt"
	FieldNote             = "note"
)

var partitions = map[Category]string{
	CategoryHealth:      "healthResources",
	CategoryEducation:   "educationResources",
	CategoryLifeLeisure: "lifeLeisureResources",
	CategoryJobs:        "jobResources",
	CategoryShop:        "shopResources",
	CategoryLocal:       "localResources",
	CategorySocial:      "socialResources",
	CategoryUndefined:   "undefinedResources",
}

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	return []Category{
		CategoryHealth,
		CategoryEducation,
		CategoryLifeLeisure,
		CategoryJobs,
		CategoryShop,
		CategoryLocal,
		CategorySocial,
		CategoryUndefined,
	}
}

// ParseCategory resolves a category label case-insensitively
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := partitions[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether c is part of the taxonomy
func (c Category) Valid() bool {
	_, ok := partitions[c]
	return ok
}

// Partition returns the collection holding resources of this category
func (c Category) Partition() string {
	if name, ok := partitions[c]; ok {
		return name
	}
	return partitions[CategoryUndefined]
}

func (c Category) String() string {
	return string(c)
}

// Resource represents one veteran-facing resource.
// Unknown document fields are kept in Extra and never drive engine logic.
type Resource struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	Category         Category           `bson:"category" json:"category"`
	Subcategory      string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Tags             []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Source           string             `bson:"source,omitempty" json:"source,omitempty"`
	SourceName       string             `bson:"sourceName,omitempty" json:"sourceName,omitempty"`
	Featured         bool               `bson:"featured" json:"featured"`
	IsPremiumContent bool               `bson:"isPremiumContent" json:"isPremiumContent"`
	DateAdded        time.Time          `bson:"dateAdded,omitempty" json:"dateAdded,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt        time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	Note             string             `bson:"note,omitempty" json:"note,omitempty"`
	Extra            map[string]any     `bson:",inline" json:"extra,omitempty"`
}

// Clone returns a deep copy of tags and extra fields
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	c := *r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.Extra != nil {
		c.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// HasTag reports whether the resource carries tag (exact match)
func (r *Resource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
