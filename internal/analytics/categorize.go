package analytics

import (
	"fmt"
	"io"
	"strings"

	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Categorization confidences
const (
	KeywordConfidence       = 0.85
	LargeAmountConfidence   = 0.6
	SmallAmountConfidence   = 0.5
	UncategorizedConfidence = 0.3
)

// Fallback categories used when no keyword matches
const (
	CategoryBills = "Bills & Utilities"
	CategoryFood  = "Food & Dining"
	CategoryOther = "Other"
)

var (
	largeAmountThreshold = decimal.NewFromInt(1000)
	smallAmountThreshold = decimal.NewFromInt(10)
)

// CategoryRule maps a category to the description keywords that select it
type CategoryRule struct {
	Category string   `yaml:"category" json:"category"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

type rulesFile struct {
	Rules []CategoryRule `yaml:"rules"`
}

// DefaultCategoryRules returns the built-in keyword table in match order
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: CategoryFood,
			Keywords: []string{"restaurant", "food", "cafe", "pizza", "burger", "starbucks", "mcdonald", "subway"},
			Tags:     []string{"meal", "dining", "takeout"},
		},
		{
			Category: "Transportation",
			Keywords: []string{"gas", "fuel", "uber", "lyft", "taxi", "parking", "metro", "bus"},
			Tags:     []string{"commute", "travel", "vehicle"},
		},
		{
			Category: "Shopping",
			Keywords: []string{"amazon", "walmart", "target", "mall", "store", "shop"},
			Tags:     []string{"retail", "purchase", "goods"},
		},
		{
			Category: "Entertainment",
			Keywords: []string{"netflix", "spotify", "movie", "theater", "game", "concert"},
			Tags:     []string{"leisure", "fun", "subscription"},
		},
		{
			Category: CategoryBills,
			Keywords: []string{"electric", "water", "internet", "phone", "rent", "mortgage"},
			Tags:     []string{"monthly", "recurring", "essential"},
		},
		{
			Category: "Healthcare",
			Keywords: []string{"pharmacy", "doctor", "hospital", "medical", "health"},
			Tags:     []string{"medical", "wellness", "insurance"},
		},
		{
			Category: "Travel",
			Keywords: []string{"hotel", "flight", "airbnb", "booking", "expedia"},
			Tags:     []string{"vacation", "trip", "accommodation"},
		},
		{
			Category: "Education",
			Keywords: []string{"school", "university", "course", "book", "tuition"},
			Tags:     []string{"learning", "development", "academic"},
		},
	}
}

// LoadCategoryRules reads a YAML rules document of the form
//
//	rules:
//	  - category: Groceries
//	    keywords: [grocer, market]
//	    tags: [food]
//
// Rules keep their document order, which is also the match order.
func LoadCategoryRules(r io.Reader) ([]CategoryRule, error) {
	var doc rulesFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfiguration, errors.CodeInvalidConfig, "failed to decode category rules").
			WithSuggestion("the rules file must be YAML with a top-level 'rules' list")
	}
	return doc.Rules, nil
}

// Categorization is the classifier result
type Categorization struct {
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	Tags           []string `json:"tags"`
	MatchedKeyword string   `json:"matchedKeyword,omitempty"`
}

// Categorizer classifies descriptions by case-insensitive keyword substring
// match, in rule order. It is immutable after construction.
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer validates and copies the rules. Keywords are lower-cased.
func NewCategorizer(rules []CategoryRule) (*Categorizer, error) {
	if len(rules) == 0 {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "category rules", nil, nil)
	}

	collector := errors.NewCollector(0)
	normalized := make([]CategoryRule, 0, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.Category) == "" {
			collector.Add(errors.ConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("rules[%d].category", i), rule.Category, nil))
			continue
		}

		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			collector.Add(errors.ConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("rules[%d].keywords", i), rule.Keywords, nil))
			continue
		}

		normalized = append(normalized, CategoryRule{
			Category: rule.Category,
			Keywords: keywords,
			Tags:     append([]string(nil), rule.Tags...),
		})
	}

	if err := collector.Err(); err != nil {
		return nil, err
	}
	return &Categorizer{rules: normalized}, nil
}

// Rules returns a copy of the categorizer's rules
func (c *Categorizer) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = CategoryRule{
			Category: r.Category,
			Keywords: append([]string(nil), r.Keywords...),
			Tags:     append([]string(nil), r.Tags...),
		}
	}
	return out
}

// Categorize returns the first rule whose keyword occurs in the description,
// falling back to an amount heuristic when none does.
func (c *Categorizer) Categorize(description string, amount decimal.Decimal) Categorization {
	desc := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return Categorization{
					Category:       rule.Category,
					Confidence:     KeywordConfidence,
					Tags:           append([]string{}, rule.Tags...),
					MatchedKeyword: kw,
				}
			}
		}
	}

	switch {
	case amount.GreaterThan(largeAmountThreshold):
		return Categorization{Category: CategoryBills, Confidence: LargeAmountConfidence, Tags: []string{}}
	case amount.LessThan(smallAmountThreshold):
		return Categorization{Category: CategoryFood, Confidence: SmallAmountConfidence, Tags: []string{}}
	default:
		return Categorization{Category: CategoryOther, Confidence: UncategorizedConfidence, Tags: []string{}}
	}
}

// CategorizeTransaction classifies a description with the engine's
// categorizer. The amount must be non-negative.
func (e *Engine) CategorizeTransaction(description string, amount decimal.Decimal) (*Categorization, error) {
	if err := validateNonNegative("amount", amount); err != nil {
		return nil, err
	}

	result, err := guard("categorize", func() (Categorization, error) {
		return e.categorizer.Categorize(description, amount), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
