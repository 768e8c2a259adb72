// Package categorize suggests categories for imported transactions from
// keywords in their descriptions.
package categorize

import (
	"strings"

	"github.com/budgetbook/budgetbook/internal/model"
)

// Rule names a category and the description keywords that select it.
// The category name itself always counts as a keyword.
type Rule struct {
	Name     string   `yaml:"name" mapstructure:"name" json:"name"`
	Keywords []string `yaml:"keywords,omitempty" mapstructure:"keywords" json:"keywords,omitempty"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "Food", Keywords: []string{"restaurant", "grocery"}},
		{Name: "Gas", Keywords: []string{"gas"}},
		{Name: "Shopping", Keywords: []string{"amazon", "target"}},
	}
}

// Categorizer suggests a category for a description, or "" for none.
type Categorizer interface {
	Categorize(description string) string
}

// Keywords matches rules in order; the first match wins.
type Keywords struct {
	rules []Rule
}

// New builds a Keywords categorizer. Rules with an empty name are ignored.
func New(rules []Rule) *Keywords {
	k := &Keywords{}
	for _, r := range rules {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		words := []string{strings.ToLower(name)}
		for _, w := range r.Keywords {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				words = append(words, w)
			}
		}
		k.rules = append(k.rules, Rule{Name: name, Keywords: words})
	}
	return k
}

// Categorize returns the first rule whose name or keyword appears in description.
func (k *Keywords) Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, r := range k.rules {
		for _, w := range r.Keywords {
			if strings.Contains(desc, w) {
				return r.Name
			}
		}
	}
	return ""
}

// Apply fills Category on candidates the statement left uncategorized and
// returns how many it filled.
func Apply(c Categorizer, txns []model.Candidate) int {
	n := 0
	for i := range txns {
		if txns[i].Category != "" {
			continue
		}
		if cat := c.Categorize(txns[i].Description); cat != "" {
			txns[i].Category = cat
			n++
		}
	}
	return n
}
