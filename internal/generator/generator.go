// Package generator produces deterministic synthetic financial datasets for
// demos, the generate command and property tests.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// Pattern shapes the generated spending
type Pattern string

const (
	// PatternSteady spends a similar amount every month
	PatternSteady Pattern = "steady"
	// PatternVolatile varies monthly spending widely
	PatternVolatile Pattern = "volatile"
	// PatternOverspend spends more than the income
	PatternOverspend Pattern = "overspend"
	// PatternDebt adds loan and credit card payments
	PatternDebt Pattern = "debt"
)

// Patterns lists the supported patterns
var Patterns = []Pattern{PatternSteady, PatternVolatile, PatternOverspend, PatternDebt}

// IsValid checks if the pattern is supported
func (p Pattern) IsValid() bool {
	for _, known := range Patterns {
		if p == known {
			return true
		}
	}
	return false
}

// Config controls dataset generation
type Config struct {
	Seed          int64
	Months        int
	End           time.Time
	MonthlyIncome decimal.Decimal
	Pattern       Pattern
	WithBudgets   bool
	WithGoals     bool
}

// DefaultConfig returns a twelve-month steady dataset ending at end
func DefaultConfig(end time.Time) Config {
	return Config{
		Seed:          1,
		Months:        12,
		End:           end,
		MonthlyIncome: decimal.NewFromInt(5000),
		Pattern:       PatternSteady,
		WithBudgets:   true,
		WithGoals:     true,
	}
}

// Validate validates the generator configuration
func (c Config) Validate() error {
	if c.Months < 1 || c.Months > 120 {
		return fmt.Errorf("months must be between 1 and 120, got %d", c.Months)
	}
	if c.End.IsZero() {
		return fmt.Errorf("end date is required")
	}
	if c.MonthlyIncome.IsNegative() {
		return fmt.Errorf("monthly income cannot be negative")
	}
	if !c.Pattern.IsValid() {
		return fmt.Errorf("unknown pattern: %s", c.Pattern)
	}
	return nil
}

type expenseTemplate struct {
	category     string
	descriptions []string
	min, max     float64
	perMonth     int
}

var expenseTemplates = []expenseTemplate{
	{"Food & Dining", []string{"Starbucks coffee", "Pizza night", "Local restaurant", "Burger lunch"}, 8, 65, 8},
	{"Transportation", []string{"Uber ride", "Gas station", "Metro card", "Parking garage"}, 5, 60, 4},
	{"Shopping", []string{"Amazon order", "Walmart", "Target run", "Mall"}, 15, 180, 3},
	{"Entertainment", []string{"Netflix", "Spotify", "Movie tickets", "Concert"}, 10, 90, 2},
	{"Bills & Utilities", []string{"Electric bill", "Internet", "Phone bill", "Water bill"}, 40, 160, 3},
	{"Healthcare", []string{"Pharmacy", "Doctor visit"}, 15, 200, 1},
}

var debtTemplates = []expenseTemplate{
	{"Student Loan", []string{"Student loan payment"}, 250, 350, 1},
	{"Credit Card", []string{"Credit card payment"}, 150, 600, 1},
}

// Generator builds datasets from a seeded source. A Generator is not safe
// for concurrent use.
type Generator struct {
	config Config
	rng    *rand.Rand
	seq    int
}

// New creates a generator
func New(config Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Dataset generates transactions and, when configured, budgets and goals.
// The same configuration always yields the same dataset.
func (g *Generator) Dataset() *models.Dataset {
	ds := &models.Dataset{
		Transactions:   g.Transactions(),
		Budgets:        []models.Budget{},
		Goals:          []models.Goal{},
		DeclaredIncome: g.config.MonthlyIncome,
	}
	if g.config.WithBudgets {
		ds.Budgets = g.Budgets()
	}
	if g.config.WithGoals {
		ds.Goals = g.Goals()
	}
	return ds
}

// Transactions generates the configured number of months of income and
// expenses, oldest first.
func (g *Generator) Transactions() []models.Transaction {
	var txs []models.Transaction

	end := g.config.End
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(g.config.Months - 1), 0)

	for m := 0; m < g.config.Months; m++ {
		monthStart := first.AddDate(0, m, 0)
		days := monthStart.AddDate(0, 1, -1).Day()
		scale := g.monthScale()

		if g.config.MonthlyIncome.IsPositive() {
			txs = append(txs, g.transaction(models.TransactionTypeIncome, "Salary", "Monthly salary",
				g.config.MonthlyIncome, monthStart))
		}

		templates := expenseTemplates
		if g.config.Pattern == PatternDebt {
			templates = append(append([]expenseTemplate{}, expenseTemplates...), debtTemplates...)
		}

		for _, tpl := range templates {
			for i := 0; i < tpl.perMonth; i++ {
				amount := tpl.min + g.rng.Float64()*(tpl.max-tpl.min)
				date := monthStart.AddDate(0, 0, g.rng.Intn(days))
				if date.After(end) {
					continue
				}
				desc := tpl.descriptions[g.rng.Intn(len(tpl.descriptions))]
				txs = append(txs, g.transaction(models.TransactionTypeExpense, tpl.category, desc,
					decimal.NewFromFloat(amount*scale).Round(2), date))
			}
		}

		if g.rng.Float64() < 0.25 {
			txs = append(txs, g.transaction(models.TransactionTypeTransfer, "Savings", "Transfer to savings",
				decimal.NewFromInt(200), monthStart.AddDate(0, 0, days-1)))
		}
	}

	return txs
}

func (g *Generator) monthScale() float64 {
	switch g.config.Pattern {
	case PatternVolatile:
		return 0.3 + g.rng.Float64()*2.4
	case PatternOverspend:
		return 4.0 + g.rng.Float64()
	default:
		return 0.9 + g.rng.Float64()*0.2
	}
}

func (g *Generator) transaction(t models.TransactionType, category, description string, amount decimal.Decimal, date time.Time) models.Transaction {
	g.seq++
	return models.Transaction{
		ID:          fmt.Sprintf("GEN%06d", g.seq),
		Type:        t,
		Amount:      amount,
		Category:    category,
		Description: description,
		Date:        date,
	}
}

// Budgets generates one monthly budget per expense category, some of them
// deliberately tight.
func (g *Generator) Budgets() []models.Budget {
	var out []models.Budget
	for i, tpl := range expenseTemplates {
		if i%3 == 2 {
			continue
		}
		typical := (tpl.min + tpl.max) / 2 * float64(tpl.perMonth)
		factor := 0.6 + g.rng.Float64()*0.8
		out = append(out, models.Budget{
			ID:       fmt.Sprintf("BUD%03d", i+1),
			Category: tpl.category,
			Limit:    decimal.NewFromFloat(typical * factor).Ceil(),
			Period:   models.PeriodMonthly,
		})
	}
	return out
}

// Goals generates a completed, an on-track and a late goal
func (g *Generator) Goals() []models.Goal {
	end := g.config.End
	return []models.Goal{
		{
			ID:            "GOAL001",
			Title:         "Emergency Fund",
			Category:      "Savings",
			TargetAmount:  decimal.NewFromInt(10000),
			CurrentAmount: decimal.NewFromInt(int64(4000 + g.rng.Intn(7000))),
			Deadline:      end.AddDate(1, 0, 0),
		},
		{
			ID:            "GOAL002",
			Title:         "Vacation",
			Category:      "Travel",
			TargetAmount:  decimal.NewFromInt(3000),
			CurrentAmount: decimal.NewFromInt(int64(200 + g.rng.Intn(1000))),
			Deadline:      end.AddDate(0, 0, 45),
		},
		{
			ID:            "GOAL003",
			Title:         "New Laptop",
			Category:      "Shopping",
			TargetAmount:  decimal.NewFromInt(1500),
			CurrentAmount: decimal.NewFromInt(1500),
			Deadline:      end.AddDate(0, 3, 0),
		},
	}
}
