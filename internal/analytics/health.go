package analytics

import (
	"math"
	"strings"

	"finance-insights/internal/models"
	"finance-insights/pkg/logger"

	"github.com/shopspring/decimal"
)

// Metric names a health sub-metric
type Metric string

const (
	MetricSavingsRate       Metric = "savingsRate"
	MetricBudgetAdherence   Metric = "budgetAdherence"
	MetricGoalProgress      Metric = "goalProgress"
	MetricSpendingStability Metric = "spendingStability"
	MetricDebtRatio         Metric = "debtRatio"
)

// Metrics lists the sub-metrics in declaration order
var Metrics = []Metric{
	MetricSavingsRate,
	MetricBudgetAdherence,
	MetricGoalProgress,
	MetricSpendingStability,
	MetricDebtRatio,
}

// MetricWeights are the fixed weights of the sub-metrics. They sum to 1.
var MetricWeights = map[Metric]float64{
	MetricSavingsRate:       0.25,
	MetricBudgetAdherence:   0.20,
	MetricGoalProgress:      0.20,
	MetricSpendingStability: 0.20,
	MetricDebtRatio:         0.15,
}

var metricAdvice = map[Metric]string{
	MetricSavingsRate:       "Increase your savings rate by reducing discretionary spending",
	MetricBudgetAdherence:   "Review and adjust your budgets to be more realistic",
	MetricGoalProgress:      "Consider increasing contributions to your financial goals",
	MetricSpendingStability: "Work on creating more consistent spending patterns",
	MetricDebtRatio:         "Focus on paying down high-interest debt",
}

// NeutralScore is reported when a metric has no data or could not be computed
const NeutralScore = 50.0

const adviceThreshold = 60.0

// HealthLevel is the qualitative band of the overall score
type HealthLevel string

const (
	HealthExcellent HealthLevel = "excellent"
	HealthGood      HealthLevel = "good"
	HealthFair      HealthLevel = "fair"
	HealthPoor      HealthLevel = "poor"
)

// LevelFor maps an unrounded overall score to its health level
func LevelFor(score float64) HealthLevel {
	switch {
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthFair
	default:
		return HealthPoor
	}
}

// HealthTrend compares recent and older savings behaviour
type HealthTrend string

const (
	TrendImproving HealthTrend = "improving"
	TrendDeclining HealthTrend = "declining"
	TrendStable    HealthTrend = "stable"
)

// MetricScore is one line of the health score breakdown
type MetricScore struct {
	Metric       Metric  `json:"metric"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Available    bool    `json:"available"`
	Error        string  `json:"error,omitempty"`
}

// HealthScore is the composite financial health result
type HealthScore struct {
	OverallScore    int           `json:"overallScore"`
	HealthLevel     HealthLevel   `json:"healthLevel"`
	Breakdown       []MetricScore `json:"breakdown"`
	Recommendations []string      `json:"recommendations"`
	Trend           HealthTrend   `json:"trend"`
}

// Metric returns the breakdown entry for m
func (h *HealthScore) Metric(m Metric) (MetricScore, bool) {
	for _, s := range h.Breakdown {
		if s.Metric == m {
			return s, true
		}
	}
	return MetricScore{}, false
}

type healthInput struct {
	transactions []models.Transaction
	budgets      []models.Budget
	goals        []models.Goal
	baseline     decimal.Decimal
}

type metricFunc func(in healthInput) float64

func defaultMetricFuncs() map[Metric]metricFunc {
	return map[Metric]metricFunc{
		MetricSavingsRate: func(in healthInput) float64 {
			return SavingsRate(in.transactions, in.baseline)
		},
		MetricBudgetAdherence: func(in healthInput) float64 {
			return BudgetAdherence(in.transactions, in.budgets)
		},
		MetricGoalProgress: func(in healthInput) float64 {
			return GoalProgressScore(in.goals)
		},
		MetricSpendingStability: func(in healthInput) float64 {
			return SpendingStability(in.transactions)
		},
		MetricDebtRatio: func(in healthInput) float64 {
			return DebtRatioScore(in.transactions, in.baseline)
		},
	}
}

// ComputeHealthScore computes the weighted health score. A sub-metric that
// fails is reported as unavailable with the neutral score; the remaining
// metrics are unaffected.
func (e *Engine) ComputeHealthScore(txs []models.Transaction, budgets []models.Budget, goals []models.Goal, baselineIncome decimal.Decimal) (*HealthScore, error) {
	if err := validateInputs(txs, budgets, goals); err != nil {
		return nil, err
	}
	if err := validateNonNegative("baselineIncome", baselineIncome); err != nil {
		return nil, err
	}

	in := healthInput{transactions: txs, budgets: budgets, goals: goals, baseline: baselineIncome}
	result := &HealthScore{
		Breakdown:       make([]MetricScore, 0, len(Metrics)),
		Recommendations: []string{},
	}

	total := 0.0
	for _, m := range Metrics {
		fn := e.metrics[m]
		score := MetricScore{Metric: m, Weight: MetricWeights[m], Available: true}

		raw, err := guardScore(string(m), func() float64 { return fn(in) })
		if err != nil {
			e.logger.WithError(err).WithField("metric", m).Warn("Health metric unavailable, using neutral score")
			raw = NeutralScore
			score.Available = false
			score.Error = err.Error()
		}

		score.Score = clamp(raw, 0, 100)
		score.Contribution = score.Score * score.Weight
		total += score.Contribution
		result.Breakdown = append(result.Breakdown, score)

		if score.Available && score.Score < adviceThreshold {
			result.Recommendations = append(result.Recommendations, metricAdvice[m])
		}
	}

	result.OverallScore = int(math.Round(total))
	result.HealthLevel = LevelFor(total)
	result.Trend = e.healthTrend(txs)

	e.logger.WithFields(logger.Fields{
		"transactions":  len(txs),
		"budgets":       len(budgets),
		"goals":         len(goals),
		"overall_score": result.OverallScore,
	}).Debug("Computed health score")

	return result, nil
}

// healthTrend compares the savings rate of the last three months with the
// three months before that.
func (e *Engine) healthTrend(txs []models.Transaction) HealthTrend {
	today := e.today()
	threeAgo := today.AddDate(0, -3, 0)
	sixAgo := today.AddDate(0, -6, 0)

	var recent, older []models.Transaction
	for _, tx := range txs {
		switch {
		case !tx.Date.Before(threeAgo):
			recent = append(recent, tx)
		case !tx.Date.Before(sixAgo):
			older = append(older, tx)
		}
	}

	recentRate := SavingsRate(recent, decimal.Zero)
	olderRate := SavingsRate(older, decimal.Zero)

	switch {
	case recentRate > olderRate+5:
		return TrendImproving
	case recentRate < olderRate-5:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// effectiveIncome is the transaction-derived income, or the baseline when
// that sum is zero.
func effectiveIncome(txs []models.Transaction, baseline decimal.Decimal) decimal.Decimal {
	income := sumByType(txs, models.TransactionTypeIncome)
	if income.IsZero() {
		return baseline
	}
	return income
}

// SavingsRate returns (income − expenses) / income × 100, or 0 without
// income. The value is not clamped and may be negative.
func SavingsRate(txs []models.Transaction, baseline decimal.Decimal) float64 {
	income := effectiveIncome(txs, baseline)
	if !income.IsPositive() {
		return 0
	}
	expenses := sumByType(txs, models.TransactionTypeExpense)
	return income.Sub(expenses).Div(income).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// BudgetAdherence averages max(0, 100 − spent/limit×100) over budgets, or
// returns the neutral score when there are none.
func BudgetAdherence(txs []models.Transaction, budgets []models.Budget) float64 {
	if len(budgets) == 0 {
		return NeutralScore
	}

	spent := AggregateByCategory(txs)
	sum := 0.0
	for _, b := range budgets {
		used := spent[b.Category].Div(b.Limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
		sum += math.Max(0, 100-used)
	}
	return sum / float64(len(budgets))
}

// GoalProgressScore averages min(100, current/target×100) over goals, or
// returns the neutral score when there are none.
func GoalProgressScore(goals []models.Goal) float64 {
	if len(goals) == 0 {
		return NeutralScore
	}

	sum := 0.0
	for _, g := range goals {
		sum += math.Min(100, goalPercentage(g))
	}
	return sum / float64(len(goals))
}

// goalPercentage is the uncapped progress of g. A zero target counts as met.
func goalPercentage(g models.Goal) float64 {
	if !g.TargetAmount.IsPositive() {
		return 100
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// SpendingStability scores month-to-month expense variation as
// 100 − coefficient of variation, clamped to [0, 100]. Fewer than two
// months of data yields the neutral score.
func SpendingStability(txs []models.Transaction) float64 {
	monthly := AggregateByMonth(txs)
	if len(monthly) < 2 {
		return NeutralScore
	}

	totals := make([]float64, 0, len(monthly))
	mean := 0.0
	for _, key := range monthly.Months() {
		v := monthly[key].Expense.InexactFloat64()
		totals = append(totals, v)
		mean += v
	}
	mean /= float64(len(totals))

	if mean == 0 {
		return 100
	}

	variance := 0.0
	for _, v := range totals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(totals))

	return clamp(100-(math.Sqrt(variance)/mean*100), 0, 100)
}

// DebtRatioScore scores loan and credit payments relative to income as
// max(0, 100 − debt%). The income denominator is at least 1.
func DebtRatioScore(txs []models.Transaction, baseline decimal.Decimal) float64 {
	debt := decimal.Zero
	for _, tx := range txs {
		if tx.IsExpense() && isDebtCategory(tx.Category) {
			debt = debt.Add(tx.Amount)
		}
	}

	income := decimal.Max(effectiveIncome(txs, baseline), decimal.NewFromInt(1))
	ratio := debt.Div(income).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return math.Max(0, 100-ratio)
}

func isDebtCategory(category string) bool {
	return strings.Contains(category, "Loan") || strings.Contains(category, "Credit")
}
