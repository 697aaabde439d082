package analytics

import (
	"testing"

	"finance-insights/internal/generator"
	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightFixture() ([]models.Transaction, []models.Budget, []models.Goal) {
	txs := []models.Transaction{
		income("4000", "2024-05-01"),
		expense("Food", "600", "2024-05-02"),
		expense("Rent", "250", "2024-05-03"),
		expense("Fun", "100", "2024-05-04"),
		expense("Books", "50", "2024-05-05"),
	}
	goals := []models.Goal{
		goal("Vacation", "1000", "250", "2024-07-15"),
		goal("Emergency Fund", "5000", "1000", "2025-06-01"),
		goal("Laptop", "1000", "900", "2024-07-01"),
	}
	return txs, nil, goals
}

func TestGenerateInsights_Order(t *testing.T) {
	e := newTestEngine(t, nil)
	txs, budgets, goals := insightFixture()

	report, err := e.GenerateInsights(txs, budgets, goals, decimal.Zero)
	require.NoError(t, err)

	var types []InsightType
	for _, in := range report.Insights {
		types = append(types, in.Type)
	}
	assert.Equal(t, []InsightType{
		InsightSpendingPattern,
		InsightBudgetRecommendation,
		InsightBudgetRecommendation,
		InsightBudgetRecommendation,
		InsightGoalAlert,
	}, types)
	assert.Equal(t, 5, report.TotalInsights)

	pattern := report.Insights[0]
	assert.Equal(t, "Spending Pattern Alert", pattern.Title)
	assert.Equal(t, "Consider setting a stricter budget for Food as it's your largest expense", pattern.Message)
	assert.Equal(t, SeverityMedium, pattern.Priority)
	assert.True(t, pattern.Actionable)

	// Budget recommendations are taken in category order
	first := report.Insights[1]
	assert.Equal(t, "Budget Suggestion: Books", first.Title)
	require.NotNil(t, first.Action)
	assert.Equal(t, ActionCreate, first.Action.Type)
	assert.True(t, first.Action.Amount.Equal(dec("55")))

	alert := report.Insights[4]
	assert.Equal(t, "Goal Behind Schedule: Vacation", alert.Title)
	assert.Equal(t, "You're 75.0% away from your goal with 30 days left", alert.Message)
	assert.Equal(t, SeverityHigh, alert.Priority)

	assert.NotNil(t, report.HealthScore)
	assert.NotNil(t, report.Anomalies)
	assert.NotNil(t, report.Forecast)
	assert.NotNil(t, report.Patterns)
	assert.NotNil(t, report.Budgets)
	assert.Empty(t, report.Unavailable)
	assert.Equal(t, testNow, report.GeneratedAt)
}

func TestGenerateInsights_Cap(t *testing.T) {
	config := DefaultConfig()
	config.MaxInsights = 2
	e := newTestEngine(t, config)
	txs, budgets, goals := insightFixture()

	report, err := e.GenerateInsights(txs, budgets, goals, decimal.Zero)
	require.NoError(t, err)
	assert.Len(t, report.Insights, 2)
	assert.Equal(t, 5, report.TotalInsights)
}

func TestGenerateInsights_Empty(t *testing.T) {
	e := newTestEngine(t, nil)

	report, err := e.GenerateInsights(nil, nil, nil, decimal.Zero)
	require.NoError(t, err)
	assert.NotNil(t, report.Insights)
	assert.Empty(t, report.Insights)
	assert.Zero(t, report.TotalInsights)
}

func TestGenerateInsights_OverdueGoalAlerts(t *testing.T) {
	e := newTestEngine(t, nil)

	report, err := e.GenerateInsights(nil, nil, []models.Goal{goal("Late", "500", "100", "2024-06-01")}, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, report.Insights, 1)
	assert.Equal(t, "You're 80.0% away from your goal with -14 days left", report.Insights[0].Message)
}

func TestGenerateInsights_DegradedHealthStillReports(t *testing.T) {
	e := newTestEngine(t, nil)
	e.metrics[MetricSavingsRate] = func(healthInput) float64 { panic("bad input") }
	txs, budgets, goals := insightFixture()

	report, err := e.GenerateInsights(txs, budgets, goals, decimal.Zero)
	require.NoError(t, err)
	require.NotNil(t, report.HealthScore)

	savings, _ := report.HealthScore.Metric(MetricSavingsRate)
	assert.False(t, savings.Available)
	assert.Len(t, report.Insights, 5)
}

func TestGenerateInsights_DeterministicAndPure(t *testing.T) {
	e := newTestEngine(t, nil)

	gen, err := generator.New(generator.DefaultConfig(e.today()))
	require.NoError(t, err)
	ds := gen.Dataset()
	snapshot := ds.Clone()

	first, err := e.GenerateInsights(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
	require.NoError(t, err)
	second, err := e.GenerateInsights(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, ds)
	assert.LessOrEqual(t, len(first.Insights), DefaultConfig().MaxInsights)

	var alerts []string
	for _, in := range first.Insights {
		if in.Type == InsightGoalAlert {
			alerts = append(alerts, in.Title)
		}
	}
	assert.Contains(t, alerts, "Goal Behind Schedule: Vacation")
}

func TestGenerateInsights_BudgetSuggestionsInCategoryOrder(t *testing.T) {
	e := newTestEngine(t, nil)

	// first seen: Zoo, Rent, Food, Books, Apps
	txs := []models.Transaction{
		income("4000", "2024-05-01"),
		expense("Zoo", "100", "2024-05-02"),
		expense("Rent", "100", "2024-05-03"),
		expense("Food", "100", "2024-05-04"),
		expense("Books", "100", "2024-05-05"),
		expense("Apps", "100", "2024-05-06"),
	}

	report, err := e.GenerateInsights(txs, nil, nil, decimal.Zero)
	require.NoError(t, err)

	var titles []string
	for _, in := range report.Insights {
		if in.Type == InsightBudgetRecommendation {
			titles = append(titles, in.Title)
		}
	}
	assert.Equal(t, []string{
		"Budget Suggestion: Apps",
		"Budget Suggestion: Books",
		"Budget Suggestion: Food",
	}, titles)
}
