package analytics

import (
	"fmt"
	"time"

	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// InsightType identifies the generator of an insight
type InsightType string

const (
	InsightSpendingPattern      InsightType = "spending_pattern"
	InsightBudgetRecommendation InsightType = "budget_recommendation"
	InsightGoalAlert            InsightType = "goal_alert"
)

const (
	goalAlertProgress = 50.0
	goalAlertDays     = 90
)

// InsightAction is the actionable change attached to a budget insight
type InsightAction struct {
	Type     RecommendationAction `json:"type"`
	Category string               `json:"category"`
	Amount   decimal.Decimal      `json:"amount"`
}

// Insight is one user-facing advisory record
type Insight struct {
	Type       InsightType    `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Priority   Severity       `json:"priority"`
	Actionable bool           `json:"actionable"`
	Action     *InsightAction `json:"action,omitempty"`
}

// InsightReport combines the insight list with the full results it was
// derived from. A section that failed to compute is nil and its name is
// listed in Unavailable.
type InsightReport struct {
	Insights      []Insight         `json:"insights"`
	TotalInsights int               `json:"totalInsights"`
	GeneratedAt   time.Time         `json:"generatedAt"`
	HealthScore   *HealthScore      `json:"healthScore,omitempty"`
	Anomalies     *AnomalyReport    `json:"anomalies,omitempty"`
	Forecast      *Forecast         `json:"forecast,omitempty"`
	Patterns      *SpendingPatterns `json:"patterns,omitempty"`
	Budgets       *BudgetReport     `json:"budgets,omitempty"`
	Unavailable   []string          `json:"unavailable,omitempty"`
}

// GenerateInsights runs every analysis over the snapshot and assembles the
// insight list: spending pattern insights, then up to BudgetInsightLimit
// budget recommendations, then goal alerts, capped at MaxInsights.
// TotalInsights counts the list before the cap.
func (e *Engine) GenerateInsights(txs []models.Transaction, budgets []models.Budget, goals []models.Goal, declaredIncome decimal.Decimal) (*InsightReport, error) {
	if err := validateInputs(txs, budgets, goals); err != nil {
		return nil, err
	}
	if err := validateNonNegative("declaredIncome", declaredIncome); err != nil {
		return nil, err
	}

	report := &InsightReport{
		Insights:    []Insight{},
		GeneratedAt: e.clock.Now().UTC(),
	}

	report.Patterns = section(e, report, "spending_patterns", func() (*SpendingPatterns, error) {
		return e.AnalyzeSpendingPatterns(txs)
	})
	report.Budgets = section(e, report, "budget_recommendations", func() (*BudgetReport, error) {
		return e.RecommendBudgets(txs, budgets)
	})
	goalAlerts := section(e, report, "goal_alerts", func() ([]Insight, error) {
		return e.goalAlerts(goals)
	})
	report.HealthScore = section(e, report, "health_score", func() (*HealthScore, error) {
		return e.ComputeHealthScore(txs, budgets, goals, declaredIncome)
	})
	report.Anomalies = section(e, report, "anomalies", func() (*AnomalyReport, error) {
		return e.DetectAnomalies(txs)
	})
	report.Forecast = section(e, report, "forecast", func() (*Forecast, error) {
		return e.PredictExpenses(txs, 0)
	})

	var all []Insight
	if report.Patterns != nil {
		for _, rec := range report.Patterns.Recommendations {
			all = append(all, Insight{
				Type:       InsightSpendingPattern,
				Title:      "Spending Pattern Alert",
				Message:    rec,
				Priority:   SeverityMedium,
				Actionable: true,
			})
		}
	}
	if report.Budgets != nil {
		recs := report.Budgets.Recommendations
		if len(recs) > e.config.BudgetInsightLimit {
			recs = recs[:e.config.BudgetInsightLimit]
		}
		for _, rec := range recs {
			all = append(all, Insight{
				Type:       InsightBudgetRecommendation,
				Title:      fmt.Sprintf("Budget Suggestion: %s", rec.Category),
				Message:    rec.Reason,
				Priority:   rec.Priority,
				Actionable: true,
				Action: &InsightAction{
					Type:     rec.Action,
					Category: rec.Category,
					Amount:   rec.RecommendedAmount,
				},
			})
		}
	}
	all = append(all, goalAlerts...)

	report.TotalInsights = len(all)
	if len(all) > e.config.MaxInsights {
		all = all[:e.config.MaxInsights]
	}
	report.Insights = append(report.Insights, all...)

	e.logger.WithField("insights", report.TotalInsights).WithField("unavailable", len(report.Unavailable)).Debug("Generated insights")
	return report, nil
}

// goalAlerts flags goals under half funded with fewer than 90 days left,
// overdue goals included.
func (e *Engine) goalAlerts(goals []models.Goal) ([]Insight, error) {
	progress, err := e.GoalProgress(goals)
	if err != nil {
		return nil, err
	}

	var out []Insight
	for _, p := range progress {
		if p.RawPercent >= goalAlertProgress || p.DaysLeft >= goalAlertDays {
			continue
		}
		out = append(out, Insight{
			Type:       InsightGoalAlert,
			Title:      fmt.Sprintf("Goal Behind Schedule: %s", p.Goal.Title),
			Message:    fmt.Sprintf("You're %.1f%% away from your goal with %d days left", 100-p.RawPercent, p.DaysLeft),
			Priority:   SeverityHigh,
			Actionable: true,
		})
	}
	return out, nil
}

// section runs one part of the insight report under guard, recording it as
// unavailable on failure.
func section[T any](e *Engine, report *InsightReport, name string, fn func() (T, error)) T {
	v, err := guard(name, fn)
	if err != nil {
		e.logger.WithError(err).WithField("section", name).Warn("Insight section unavailable")
		report.Unavailable = append(report.Unavailable, name)
		var zero T
		return zero
	}
	return v
}
