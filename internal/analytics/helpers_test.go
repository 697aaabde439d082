package analytics

import (
	"testing"
	"time"

	"finance-insights/internal/models"
	"finance-insights/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, config *Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(FixedClock(testNow)), WithLogger(logger.Nop())}, opts...)
	e, err := NewEngine(config, opts...)
	require.NoError(t, err)
	return e
}

func expense(category, amount, date string) models.Transaction {
	return models.Transaction{
		Type:     models.TransactionTypeExpense,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     models.MustDate(date),
	}
}

func income(amount, date string) models.Transaction {
	return models.Transaction{
		Type:     models.TransactionTypeIncome,
		Amount:   decimal.RequireFromString(amount),
		Category: "Salary",
		Date:     models.MustDate(date),
	}
}

func transfer(amount, date string) models.Transaction {
	return models.Transaction{
		Type:     models.TransactionTypeTransfer,
		Amount:   decimal.RequireFromString(amount),
		Category: "Savings",
		Date:     models.MustDate(date),
	}
}

func budget(category, limit string) models.Budget {
	return models.Budget{Category: category, Limit: decimal.RequireFromString(limit), Period: models.PeriodMonthly}
}

func goal(title, target, current, deadline string) models.Goal {
	return models.Goal{
		Title:         title,
		TargetAmount:  decimal.RequireFromString(target),
		CurrentAmount: decimal.RequireFromString(current),
		Deadline:      models.MustDate(deadline),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
