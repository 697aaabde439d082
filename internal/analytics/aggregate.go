package analytics

import (
	"sort"

	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// CategoryAggregate maps a category to its summed expense amount. Keys are
// the transaction category strings exactly as supplied.
type CategoryAggregate map[string]decimal.Decimal

// Categories returns the categories in lexical order
func (c CategoryAggregate) Categories() []string {
	return sortedKeys(c)
}

// Total returns the sum over all categories
func (c CategoryAggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range c {
		total = total.Add(v)
	}
	return total
}

// MonthTotals holds income and expense sums for one month
type MonthTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MonthlyAggregate maps a YYYY-MM key to the month's totals
type MonthlyAggregate map[string]MonthTotals

// Months returns the month keys in chronological order
func (m MonthlyAggregate) Months() []string {
	return sortedKeys(m)
}

// AggregateByCategory sums expense amounts per category. Income and
// transfers are excluded.
func AggregateByCategory(txs []models.Transaction) CategoryAggregate {
	out := make(CategoryAggregate)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out
}

// AggregateByMonth sums income and expense separately per calendar month.
// Transfers do not create a month entry.
func AggregateByMonth(txs []models.Transaction) MonthlyAggregate {
	out := make(MonthlyAggregate)
	for _, tx := range txs {
		if !tx.IsExpense() && !tx.IsIncome() {
			continue
		}
		key := tx.MonthKey()
		totals := out[key]
		if tx.IsIncome() {
			totals.Income = totals.Income.Add(tx.Amount)
		} else {
			totals.Expense = totals.Expense.Add(tx.Amount)
		}
		out[key] = totals
	}
	return out
}

// CategoryAverage returns the average amount per expense transaction for
// each category. Categories without expense transactions are omitted.
func CategoryAverage(txs []models.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int64)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
		counts[tx.Category]++
	}

	out := make(map[string]decimal.Decimal, len(totals))
	for category, total := range totals {
		out[category] = total.Div(decimal.NewFromInt(counts[category]))
	}
	return out
}

// MonthlyCategoryAverage returns, per category, the category's expense
// total divided by the number of distinct months in the whole set.
//
// This is a per-month basis and differs from CategoryAverage, which is per
// transaction.
func MonthlyCategoryAverage(txs []models.Transaction) map[string]decimal.Decimal {
	months := int64(len(AggregateByMonth(txs)))
	if months < 1 {
		months = 1
	}
	divisor := decimal.NewFromInt(months)

	out := make(map[string]decimal.Decimal)
	for category, total := range AggregateByCategory(txs) {
		out[category] = total.Div(divisor)
	}
	return out
}

func sumByType(txs []models.Transaction, t models.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
