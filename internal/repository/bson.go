package repository

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/models"
)

// textFields are searched with regexes when no text index is available
var textFields = []string{models.FieldTitle, models.FieldDescription, models.FieldTags}

// ToBSON translates a predicate into a MongoDB filter document.
// With textIndex false, TextSearch becomes a case-insensitive $or over title, description and tags.
func ToBSON(pred filter.Predicate, textIndex bool) (bson.M, error) {
	if filter.IsMatchAll(pred) {
		return bson.M{}, nil
	}

	switch p := pred.(type) {
	case filter.Group:
		children := make(bson.A, 0, len(p.Children))
		for _, c := range p.Children {
			doc, err := ToBSON(c, textIndex)
			if err != nil {
				return nil, err
			}
			children = append(children, doc)
		}
		if p.Kind() == filter.KindOr {
			if len(children) == 0 {
				// empty disjunction matches nothing
				return bson.M{models.FieldID: bson.M{"$exists": false}}, nil
			}
			return bson.M{"$or": children}, nil
		}
		if len(children) == 1 {
			return children[0].(bson.M), nil
		}
		return bson.M{"$and": children}, nil

	case filter.Condition:
		value := p.Value
		if c, ok := value.(models.Category); ok {
			value = string(c)
		}
		if p.Kind() == filter.KindNotEquals {
			return bson.M{p.Field: bson.M{"$ne": value}}, nil
		}
		return bson.M{p.Field: value}, nil

	case filter.Regex:
		doc := bson.M{"$regex": p.Pattern}
		if p.CaseInsensitive {
			doc["$options"] = "i"
		}
		return bson.M{p.Field: doc}, nil

	case filter.ArrayMatch:
		op := "$in"
		if p.Kind() == filter.KindArrayContainsAll {
			op = "$all"
		}
		return bson.M{p.Field: bson.M{op: p.Values}}, nil

	case filter.Text:
		if textIndex {
			return bson.M{"$text": bson.M{"$search": p.Query}}, nil
		}
		pattern := regexp.QuoteMeta(p.Query)
		or := make(bson.A, 0, len(textFields))
		for _, f := range textFields {
			or = append(or, bson.M{f: bson.M{"$regex": pattern, "$options": "i"}})
		}
		return bson.M{"$or": or}, nil
	}

	return nil, fmt.Errorf("unsupported predicate %T", pred)
}

// ToSort translates sort fields into a bson.D sort document
func ToSort(fields []SortField) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: f.Field, Value: dir})
	}
	return d
}
