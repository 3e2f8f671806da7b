package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vet1stop-platform/models"
)

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads an ordered rule list from a YAML file:
//
//	rules:
//	  - category: health
//	    keywords: [health, medical]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates YAML rule data
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file defines no rules")
	}
	for i, r := range f.Rules {
		if !r.Category.Valid() || r.Category == models.CategoryUndefined {
			return nil, fmt.Errorf("rule %d: unsupported category %q", i, r.Category)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Category)
		}
	}
	return f.Rules, nil
}

// FromFile returns a categorizer over the rules in path, or the default rules when path is empty
func FromFile(path string) (*Categorizer, error) {
	if path == "" {
		return Default(), nil
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return New(rules), nil
}
