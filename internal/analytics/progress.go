package analytics

import (
	"math"
	"time"

	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the traffic-light state of a budget
type BudgetStatus string

const (
	BudgetGood     BudgetStatus = "good"
	BudgetWarning  BudgetStatus = "warning"
	BudgetExceeded BudgetStatus = "exceeded"
)

// BudgetProgress is the spend-versus-limit view of one budget. Remaining is
// limit − spent and goes negative on overspend.
type BudgetProgress struct {
	Budget      models.Budget   `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed float64         `json:"percentUsed"`
	Status      BudgetStatus    `json:"status"`
}

// GoalProgress is the funding view of one goal. Percent is capped at 100,
// RawPercent is not.
type GoalProgress struct {
	Goal       models.Goal     `json:"goal"`
	Percent    float64         `json:"percent"`
	RawPercent float64         `json:"rawPercent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Completed  bool            `json:"completed"`
	DaysLeft   int             `json:"daysLeft"`
	Overdue    bool            `json:"overdue"`
}

// BudgetProgress computes spend against each budget from the supplied
// transactions. Windowing by period is the caller's concern.
func (e *Engine) BudgetProgress(txs []models.Transaction, budgets []models.Budget) ([]BudgetProgress, error) {
	if err := validateInputs(txs, budgets, nil); err != nil {
		return nil, err
	}

	spent := AggregateByCategory(txs)
	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		s := spent[b.Category]
		pct := s.Div(b.Limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
		out = append(out, BudgetProgress{
			Budget:      b,
			Spent:       s,
			Remaining:   b.Limit.Sub(s),
			PercentUsed: pct,
			Status:      budgetStatus(pct),
		})
	}
	return out, nil
}

func budgetStatus(pct float64) BudgetStatus {
	switch {
	case pct >= 100:
		return BudgetExceeded
	case pct >= 80:
		return BudgetWarning
	default:
		return BudgetGood
	}
}

// GoalProgress computes funding progress and time to deadline for each goal
func (e *Engine) GoalProgress(goals []models.Goal) ([]GoalProgress, error) {
	if err := validateInputs(nil, nil, goals); err != nil {
		return nil, err
	}

	today := e.today()
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		raw := goalPercentage(g)
		days := daysBetween(today, g.Deadline)
		out = append(out, GoalProgress{
			Goal:       g,
			Percent:    math.Min(100, raw),
			RawPercent: raw,
			Remaining:  decimal.Max(decimal.Zero, g.TargetAmount.Sub(g.CurrentAmount)),
			Completed:  g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount),
			DaysLeft:   days,
			Overdue:    days < 0,
		})
	}
	return out, nil
}

// daysBetween returns the whole calendar days from a to b, rounding partial
// days up.
func daysBetween(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}
