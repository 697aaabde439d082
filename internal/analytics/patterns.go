package analytics

import (
	"fmt"
	"math"
	"sort"

	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

const (
	topCategoryCount     = 3
	concentrationPercent = 40.0
	patternConfidence    = 0.85
)

// CategoryShare is one category's portion of total expense
type CategoryShare struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  float64         `json:"percent"`
}

// SpendingPatterns summarises where the money goes
type SpendingPatterns struct {
	TopCategories   []CategoryShare `json:"topCategories"`
	Patterns        []string        `json:"patterns"`
	Recommendations []string        `json:"recommendations"`
	RiskScore       int             `json:"riskScore"`
	Confidence      float64         `json:"confidence"`
	TotalSpending   decimal.Decimal `json:"totalSpending"`
}

// AnalyzeSpendingPatterns ranks expense categories by amount and flags
// categories taking more than 40% of total spending. Ties are broken by
// category name.
func (e *Engine) AnalyzeSpendingPatterns(txs []models.Transaction) (*SpendingPatterns, error) {
	if err := validateInputs(txs, nil, nil); err != nil {
		return nil, err
	}

	byCategory := AggregateByCategory(txs)
	total := byCategory.Total()

	result := &SpendingPatterns{
		TopCategories:   []CategoryShare{},
		Patterns:        []string{},
		Recommendations: []string{},
		Confidence:      patternConfidence,
		TotalSpending:   total,
	}
	if !total.IsPositive() {
		return result, nil
	}

	shares := make([]CategoryShare, 0, len(byCategory))
	for _, category := range byCategory.Categories() {
		amount := byCategory[category]
		shares = append(shares, CategoryShare{
			Category: category,
			Amount:   amount,
			Percent:  amount.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64(),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})

	result.RiskScore = riskScore(shares[0].Percent)

	if len(shares) > topCategoryCount {
		shares = shares[:topCategoryCount]
	}
	for _, s := range shares {
		result.TopCategories = append(result.TopCategories, s)
		result.Patterns = append(result.Patterns, fmt.Sprintf("%s accounts for %.1f%% of your spending", s.Category, s.Percent))
		if s.Percent > concentrationPercent {
			result.Recommendations = append(result.Recommendations,
				fmt.Sprintf("Consider setting a stricter budget for %s as it's your largest expense", s.Category))
		}
	}

	e.logger.WithField("categories", len(byCategory)).WithField("risk_score", result.RiskScore).Debug("Analyzed spending patterns")
	return result, nil
}

// riskScore rates concentration of spending in the largest category
func riskScore(maxPercent float64) int {
	score := 0
	if maxPercent > 50 {
		score += 30
	}
	if maxPercent > 70 {
		score += 20
	}
	return int(math.Min(100, float64(score)))
}
