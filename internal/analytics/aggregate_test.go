package analytics

import (
	"testing"

	"finance-insights/internal/generator"
	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateByCategory(t *testing.T) {
	txs := []models.Transaction{
		expense("Food", "10.50", "2024-05-01"),
		expense("Food", "4.50", "2024-05-02"),
		expense("Rent", "1200", "2024-05-01"),
		income("3000", "2024-05-01"),
		transfer("500", "2024-05-03"),
	}

	agg := AggregateByCategory(txs)

	assert.Equal(t, []string{"Food", "Rent"}, agg.Categories())
	assert.True(t, agg["Food"].Equal(dec("15")))
	assert.True(t, agg.Total().Equal(dec("1215")))
}

func TestAggregateByMonth_ExcludesTransfers(t *testing.T) {
	txs := []models.Transaction{
		expense("Food", "100", "2024-04-30"),
		income("2000", "2024-05-01"),
		expense("Food", "50", "2024-05-20"),
		transfer("900", "2024-06-01"),
	}

	agg := AggregateByMonth(txs)

	require.Equal(t, []string{"2024-04", "2024-05"}, agg.Months())
	assert.True(t, agg["2024-04"].Expense.Equal(dec("100")))
	assert.True(t, agg["2024-04"].Income.IsZero())
	assert.True(t, agg["2024-05"].Income.Equal(dec("2000")))
	assert.True(t, agg["2024-05"].Expense.Equal(dec("50")))
}

func TestAggregation_TotalsAgree(t *testing.T) {
	for _, pattern := range generator.Patterns {
		t.Run(string(pattern), func(t *testing.T) {
			config := generator.DefaultConfig(testNow)
			config.Pattern = pattern
			gen, err := generator.New(config)
			require.NoError(t, err)
			txs := gen.Transactions()

			expenses := decimal.Zero
			incomes := decimal.Zero
			for _, tx := range txs {
				switch tx.Type {
				case models.TransactionTypeExpense:
					expenses = expenses.Add(tx.Amount)
				case models.TransactionTypeIncome:
					incomes = incomes.Add(tx.Amount)
				}
			}

			assert.True(t, AggregateByCategory(txs).Total().Equal(expenses))

			monthlyExpense, monthlyIncome := decimal.Zero, decimal.Zero
			for _, totals := range AggregateByMonth(txs) {
				monthlyExpense = monthlyExpense.Add(totals.Expense)
				monthlyIncome = monthlyIncome.Add(totals.Income)
			}
			assert.True(t, monthlyExpense.Equal(expenses))
			assert.True(t, monthlyIncome.Equal(incomes))
		})
	}
}

func TestAverages(t *testing.T) {
	txs := []models.Transaction{
		expense("Food", "30", "2024-03-01"),
		expense("Food", "10", "2024-03-02"),
		expense("Food", "20", "2024-04-01"),
		income("1000", "2024-05-01"),
	}

	perTx := CategoryAverage(txs)
	assert.True(t, perTx["Food"].Equal(dec("20")))

	// Three distinct months (the income month counts) share the Food total
	perMonth := MonthlyCategoryAverage(txs)
	assert.True(t, perMonth["Food"].Equal(dec("20")))

	assert.Empty(t, CategoryAverage(nil))
	assert.Empty(t, MonthlyCategoryAverage(nil))
}
