package analytics

import (
	"testing"

	"finance-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetProgress(t *testing.T) {
	e := newTestEngine(t, nil)

	txs := []models.Transaction{
		expense("Food", "400", "2024-06-01"),
		expense("Rent", "1200", "2024-06-01"),
		expense("Fun", "10", "2024-06-02"),
		income("3000", "2024-06-01"),
	}
	budgets := []models.Budget{
		budget("Food", "500"),
		budget("Rent", "1000"),
		budget("Fun", "100"),
		budget("Travel", "300"),
	}

	progress, err := e.BudgetProgress(txs, budgets)
	require.NoError(t, err)
	require.Len(t, progress, 4)

	tests := []struct {
		category  string
		spent     string
		remaining string
		percent   float64
		status    BudgetStatus
	}{
		{"Food", "400", "100", 80, BudgetWarning},
		{"Rent", "1200", "-200", 120, BudgetExceeded},
		{"Fun", "10", "90", 10, BudgetGood},
		{"Travel", "0", "300", 0, BudgetGood},
	}
	for i, tt := range tests {
		p := progress[i]
		assert.Equal(t, tt.category, p.Budget.Category)
		assert.True(t, p.Spent.Equal(dec(tt.spent)), "%s spent %s", tt.category, p.Spent)
		assert.True(t, p.Remaining.Equal(dec(tt.remaining)), "%s remaining %s", tt.category, p.Remaining)
		assert.InDelta(t, tt.percent, p.PercentUsed, 1e-9)
		assert.Equal(t, tt.status, p.Status)
	}
}

func TestBudgetStatus(t *testing.T) {
	assert.Equal(t, BudgetGood, budgetStatus(79.9))
	assert.Equal(t, BudgetWarning, budgetStatus(80))
	assert.Equal(t, BudgetWarning, budgetStatus(99.9))
	assert.Equal(t, BudgetExceeded, budgetStatus(100))
}

func TestGoalProgress(t *testing.T) {
	e := newTestEngine(t, nil)

	goals := []models.Goal{
		goal("Vacation", "1000", "250", "2024-07-15"),
		goal("Laptop", "1000", "1200", "2024-12-01"),
		goal("Late", "500", "100", "2024-06-01"),
	}

	progress, err := e.GoalProgress(goals)
	require.NoError(t, err)
	require.Len(t, progress, 3)

	vacation := progress[0]
	assert.InDelta(t, 25, vacation.Percent, 1e-9)
	assert.True(t, vacation.Remaining.Equal(dec("750")))
	assert.Equal(t, 30, vacation.DaysLeft)
	assert.False(t, vacation.Completed)
	assert.False(t, vacation.Overdue)

	laptop := progress[1]
	assert.InDelta(t, 100, laptop.Percent, 1e-9)
	assert.InDelta(t, 120, laptop.RawPercent, 1e-9)
	assert.True(t, laptop.Remaining.IsZero())
	assert.True(t, laptop.Completed)

	late := progress[2]
	assert.Equal(t, -14, late.DaysLeft)
	assert.True(t, late.Overdue)
}
