package generator

import (
	"fmt"
	"time"

	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// Scenario is a named, hand-shaped dataset with a known expected outcome
type Scenario struct {
	Name        string
	Description string
	Dataset     *models.Dataset
}

// Scenarios returns every built-in scenario relative to end
func Scenarios(end time.Time) []Scenario {
	return []Scenario{
		{
			Name:        "single-spike",
			Description: "8 months of $40 dining with one $2,000 dinner in the last week",
			Dataset:     &models.Dataset{Transactions: SpikeScenario(end), DeclaredIncome: decimal.NewFromInt(4000)},
		},
		{
			Name:        "empty",
			Description: "no records at all",
			Dataset:     &models.Dataset{Transactions: []models.Transaction{}, Budgets: []models.Budget{}, Goals: []models.Goal{}},
		},
		{
			Name:        "income-only",
			Description: "salary without any spending",
			Dataset:     &models.Dataset{Transactions: incomeOnly(end)},
		},
	}
}

// FindScenario looks a scenario up by name
func FindScenario(end time.Time, name string) (Scenario, bool) {
	for _, s := range Scenarios(end) {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// SpikeScenario builds eight months of history in which every dining
// expense is $40 except a single $2,000 one five days before end. Rent and
// salary are added each month.
func SpikeScenario(end time.Time) []models.Transaction {
	var txs []models.Transaction
	seq := 0
	add := func(t models.TransactionType, category, desc string, amount int64, date time.Time) {
		seq++
		txs = append(txs, models.Transaction{
			ID:          fmt.Sprintf("SPK%04d", seq),
			Type:        t,
			Amount:      decimal.NewFromInt(amount),
			Category:    category,
			Description: desc,
			Date:        date,
		})
	}

	for m := 7; m >= 0; m-- {
		base := end.AddDate(0, 0, -30*m)
		add(models.TransactionTypeIncome, "Salary", "Monthly salary", 4000, base.AddDate(0, 0, -27))
		add(models.TransactionTypeExpense, "Bills & Utilities", "Rent", 1200, base.AddDate(0, 0, -26))
		for _, offset := range []int{24, 17, 10, 3} {
			add(models.TransactionTypeExpense, "Food & Dining", "Cafe", 40, base.AddDate(0, 0, -offset))
		}
	}
	add(models.TransactionTypeExpense, "Food & Dining", "Anniversary dinner", 2000, end.AddDate(0, 0, -5))

	return txs
}

func incomeOnly(end time.Time) []models.Transaction {
	var txs []models.Transaction
	for m := 0; m < 3; m++ {
		txs = append(txs, models.Transaction{
			ID:       fmt.Sprintf("INC%03d", m+1),
			Type:     models.TransactionTypeIncome,
			Amount:   decimal.NewFromInt(3000),
			Category: "Salary",
			Date:     end.AddDate(0, -m, 0),
		})
	}
	return txs
}
