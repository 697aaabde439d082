package analytics

import (
	"fmt"

	"finance-insights/internal/format"
	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// RecommendationAction is the kind of budget change recommended
type RecommendationAction string

const (
	ActionCreate   RecommendationAction = "create"
	ActionIncrease RecommendationAction = "increase"
)

// RecommendationConfidence is attached to every budget recommendation report
const RecommendationConfidence = 0.78

var (
	budgetBuffer        = decimal.RequireFromString("1.1")
	adequateBudgetRatio = decimal.RequireFromString("0.8")
	highPriorityAverage = decimal.NewFromInt(500)
	midPriorityAverage  = decimal.NewFromInt(200)
)

// BudgetRecommendation proposes a new budget or a larger limit for a category.
// CurrentAmount is set for increase recommendations only.
type BudgetRecommendation struct {
	Action              RecommendationAction `json:"action"`
	Category            string               `json:"category"`
	CurrentAmount       *decimal.Decimal     `json:"currentAmount,omitempty"`
	RecommendedAmount   decimal.Decimal      `json:"recommendedAmount"`
	AverageMonthlySpend decimal.Decimal      `json:"averageMonthlySpend"`
	Reason              string               `json:"reason"`
	Priority            Severity             `json:"priority"`
}

// BudgetReport is the result of RecommendBudgets
type BudgetReport struct {
	Recommendations        []BudgetRecommendation `json:"recommendations"`
	TotalRecommendedBudget decimal.Decimal        `json:"totalRecommendedBudget"`
	Confidence             float64                `json:"confidence"`
}

// RecommendBudgets derives budget recommendations from per-month category
// averages. TotalRecommendedBudget covers every spending category, including
// those with an adequate budget.
func (e *Engine) RecommendBudgets(txs []models.Transaction, budgets []models.Budget) (*BudgetReport, error) {
	if err := validateInputs(txs, budgets, nil); err != nil {
		return nil, err
	}

	existing := make(map[string]models.Budget, len(budgets))
	for _, b := range budgets {
		if _, ok := existing[b.Category]; !ok {
			existing[b.Category] = b
		}
	}

	report := &BudgetReport{
		Recommendations:        []BudgetRecommendation{},
		TotalRecommendedBudget: decimal.Zero,
		Confidence:             RecommendationConfidence,
	}

	averages := MonthlyCategoryAverage(txs)
	for _, category := range sortedKeys(averages) {
		avg := averages[category]
		if avg.IsZero() {
			continue
		}

		buffered := avg.Mul(budgetBuffer)
		recommended := buffered.Ceil()
		report.TotalRecommendedBudget = report.TotalRecommendedBudget.Add(buffered)

		budget, ok := existing[category]
		switch {
		case !ok:
			report.Recommendations = append(report.Recommendations, BudgetRecommendation{
				Action:              ActionCreate,
				Category:            category,
				RecommendedAmount:   recommended,
				AverageMonthlySpend: avg.Round(2),
				Reason:              fmt.Sprintf("Based on your average monthly spending of %s", format.Currency(avg)),
				Priority:            createPriority(avg),
			})
		case budget.Limit.LessThan(recommended.Mul(adequateBudgetRatio)):
			current := budget.Limit
			report.Recommendations = append(report.Recommendations, BudgetRecommendation{
				Action:              ActionIncrease,
				Category:            category,
				CurrentAmount:       &current,
				RecommendedAmount:   recommended,
				AverageMonthlySpend: avg.Round(2),
				Reason:              "Your current budget may be too restrictive based on spending patterns",
				Priority:            SeverityMedium,
			})
		}
	}

	report.TotalRecommendedBudget = report.TotalRecommendedBudget.Round(2)

	e.logger.WithField("recommendations", len(report.Recommendations)).Debug("Recommended budgets")
	return report, nil
}

func createPriority(avg decimal.Decimal) Severity {
	switch {
	case avg.GreaterThan(highPriorityAverage):
		return SeverityHigh
	case avg.GreaterThan(midPriorityAverage):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
