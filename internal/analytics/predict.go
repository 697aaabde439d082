package analytics

import (
	"math"
	"time"

	"finance-insights/internal/format"
	"finance-insights/internal/models"
	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
)

// seasonalFactors is indexed by time.Month - 1
var seasonalFactors = [12]float64{1.1, 0.9, 1.0, 1.0, 1.1, 1.0, 1.1, 1.1, 1.0, 1.0, 1.2, 1.3}

// SeasonalFactor returns the fixed seasonal factor for a calendar month
func SeasonalFactor(m time.Month) float64 {
	return seasonalFactors[m-1]
}

const (
	trendWindowMonths = 3

	confidenceStart = 0.9
	confidenceStep  = 0.1
	confidenceFloor = 0.4

	// MaxHorizonMonths bounds a single forecast request
	MaxHorizonMonths = 24
)

// PredictionFactors is the provenance list attached to every prediction
var PredictionFactors = []string{"historical_trend", "seasonal_patterns", "spending_behavior"}

// Prediction is the forecast for one future month
type Prediction struct {
	Month             string          `json:"month"`
	MonthStart        time.Time       `json:"monthStart"`
	PredictedExpenses decimal.Decimal `json:"predictedExpenses"`
	Confidence        float64         `json:"confidence"`
	Factors           []string        `json:"factors"`
}

// Forecast is the ordered result of PredictExpenses
type Forecast struct {
	Predictions []Prediction     `json:"predictions"`
	Trend       decimal.Decimal  `json:"trend"`
	Model       SeasonalityModel `json:"model"`
	Methodology string           `json:"methodology"`
	Accuracy    string           `json:"accuracy"`
}

// PredictExpenses forecasts total expenses for the next horizon months.
// A zero horizon uses the configured default.
func (e *Engine) PredictExpenses(txs []models.Transaction, horizon int) (*Forecast, error) {
	if err := validateInputs(txs, nil, nil); err != nil {
		return nil, err
	}
	if horizon == 0 {
		horizon = e.config.DefaultHorizonMonths
	}
	if horizon < 0 || horizon > MaxHorizonMonths {
		return nil, errors.ValidationError(errors.CodeOutOfRange, "horizonMonths", horizon, nil).
			WithSuggestion("use a horizon between 1 and 24 months")
	}

	forecast := &Forecast{
		Predictions: []Prediction{},
		Model:       e.config.SeasonalityModel,
		Methodology: "time_series_analysis",
		Accuracy:    "±15%",
	}

	monthly := AggregateByMonth(txs)
	if len(monthly) == 0 {
		return forecast, nil
	}

	forecast.Trend = expenseTrend(monthly)

	today := e.today()
	base := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= horizon; i++ {
		month := base.AddDate(0, i, 0)
		predicted := e.applySeasonality(forecast.Trend, SeasonalFactor(month.Month()))

		forecast.Predictions = append(forecast.Predictions, Prediction{
			Month:             format.MonthLabel(month),
			MonthStart:        month,
			PredictedExpenses: decimal.Max(decimal.Zero, predicted).Round(2),
			Confidence:        Confidence(i),
			Factors:           append([]string(nil), PredictionFactors...),
		})
	}

	e.logger.WithField("horizon", horizon).WithField("trend", forecast.Trend.String()).Debug("Predicted expenses")
	return forecast, nil
}

// Confidence returns the forecast confidence for horizon index i (1-based):
// max(0.4, 0.9 − 0.1×i), rounded to two places.
func Confidence(i int) float64 {
	c := math.Max(confidenceFloor, confidenceStart-confidenceStep*float64(i))
	return clamp(math.Round(c*100)/100, 0, 1)
}

func (e *Engine) applySeasonality(trend decimal.Decimal, factor float64) decimal.Decimal {
	f := decimal.NewFromFloat(factor)
	if e.config.SeasonalityModel == SeasonalityMultiplicative {
		return trend.Mul(f)
	}
	return trend.Add(f.Mul(decimal.NewFromInt(100)))
}

// expenseTrend averages the expense totals of the most recent months present
// in the aggregate, up to three.
func expenseTrend(monthly MonthlyAggregate) decimal.Decimal {
	months := monthly.Months()
	if len(months) == 0 {
		return decimal.Zero
	}
	if len(months) > trendWindowMonths {
		months = months[len(months)-trendWindowMonths:]
	}

	total := decimal.Zero
	for _, key := range months {
		total = total.Add(monthly[key].Expense)
	}
	return total.Div(decimal.NewFromInt(int64(len(months))))
}
