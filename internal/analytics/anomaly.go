package analytics

import (
	"fmt"
	"time"

	"finance-insights/internal/format"
	"finance-insights/internal/models"

	"github.com/shopspring/decimal"
)

// AnomalyKind identifies the detector that produced an anomaly
type AnomalyKind string

const (
	AnomalyHighAmount     AnomalyKind = "high_amount"
	AnomalyFrequencySpike AnomalyKind = "frequency_spike"
)

// Severity grades an anomaly or insight
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	recentWindowDays = 30

	highAmountFloor        = 100
	frequencyMinHistory    = 10
	frequencyAssumedMonths = 12
)

var (
	highAmountFactor = decimal.NewFromInt(2)
	highSevereFactor = decimal.NewFromInt(3)
)

// Anomaly is a transaction or category pattern far from its own baseline.
// Transaction is set for high-amount anomalies only.
type Anomaly struct {
	Kind        AnomalyKind         `json:"kind"`
	Severity    Severity            `json:"severity"`
	Category    string              `json:"category"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Message     string              `json:"message"`
	Suggestion  string              `json:"suggestion"`
}

// AnomalyReport is the result of DetectAnomalies
type AnomalyReport struct {
	Anomalies      []Anomaly `json:"anomalies"`
	TotalAnomalies int       `json:"totalAnomalies"`
	RiskLevel      Severity  `json:"riskLevel"`
	Unavailable    []string  `json:"unavailable,omitempty"`
}

// RiskLevelFor maps an anomaly count to the summary risk level
func RiskLevelFor(count int) Severity {
	switch {
	case count > 5:
		return SeverityHigh
	case count > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// DetectAnomalies runs the high-amount and frequency-spike detectors and
// concatenates their results. A detector that fails is listed in
// Unavailable and the other detector's results are kept.
func (e *Engine) DetectAnomalies(txs []models.Transaction) (*AnomalyReport, error) {
	if err := validateInputs(txs, nil, nil); err != nil {
		return nil, err
	}

	// The window starts 30 days before now, time of day included, so a
	// record dated exactly 30 days back is inside only at midnight.
	since := e.clock.Now().UTC().AddDate(0, 0, -recentWindowDays)
	report := &AnomalyReport{Anomalies: []Anomaly{}}

	detectors := []struct {
		name string
		run  func() []Anomaly
	}{
		{"high_amount_detector", func() []Anomaly { return detectHighAmounts(txs, since) }},
		{"frequency_detector", func() []Anomaly { return detectFrequencySpikes(txs, since) }},
	}

	for _, d := range detectors {
		found, err := guard(d.name, func() ([]Anomaly, error) { return d.run(), nil })
		if err != nil {
			e.logger.WithError(err).WithField("detector", d.name).Warn("Anomaly detector failed")
			report.Unavailable = append(report.Unavailable, d.name)
			continue
		}
		report.Anomalies = append(report.Anomalies, found...)
	}

	report.TotalAnomalies = len(report.Anomalies)
	report.RiskLevel = RiskLevelFor(report.TotalAnomalies)

	e.logger.WithField("anomalies", report.TotalAnomalies).Debug("Detected anomalies")
	return report, nil
}

// detectHighAmounts flags recent expenses above twice their category's
// per-transaction average and above the absolute floor.
func detectHighAmounts(txs []models.Transaction, since time.Time) []Anomaly {
	averages := CategoryAverage(txs)
	floor := decimal.NewFromInt(highAmountFloor)

	var out []Anomaly
	for i := range txs {
		tx := txs[i]
		if !tx.IsExpense() || tx.Date.Before(since) {
			continue
		}

		avg := averages[tx.Category]
		if !tx.Amount.GreaterThan(avg.Mul(highAmountFactor)) || !tx.Amount.GreaterThan(floor) {
			continue
		}

		severity := SeverityMedium
		if tx.Amount.GreaterThanOrEqual(avg.Mul(highSevereFactor)) {
			severity = SeverityHigh
		}

		flagged := tx
		out = append(out, Anomaly{
			Kind:        AnomalyHighAmount,
			Severity:    severity,
			Category:    tx.Category,
			Transaction: &flagged,
			Message: fmt.Sprintf("Unusually high %s expense: %s vs average %s",
				tx.Category, format.Currency(tx.Amount), format.Currency(avg)),
			Suggestion: "Review this transaction and consider if it fits your budget",
		})
	}
	return out
}

// detectFrequencySpikes flags categories whose transaction count over the
// recent window exceeds twice the historical monthly rate. The historical
// rate assumes a twelve-month history regardless of the actual span.
func detectFrequencySpikes(txs []models.Transaction, since time.Time) []Anomaly {
	total := make(map[string]int)
	recent := make(map[string]int)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		total[tx.Category]++
		if !tx.Date.Before(since) {
			recent[tx.Category]++
		}
	}

	var out []Anomaly
	for _, category := range sortedKeys(total) {
		count := total[category]
		if count <= frequencyMinHistory {
			continue
		}

		avgPerMonth := float64(count) / frequencyAssumedMonths
		if float64(recent[category]) <= 2*avgPerMonth {
			continue
		}

		out = append(out, Anomaly{
			Kind:       AnomalyFrequencySpike,
			Severity:   SeverityMedium,
			Category:   category,
			Message:    fmt.Sprintf("Unusual increase in %s transactions this month", category),
			Suggestion: "Review recent purchases in this category",
		})
	}
	return out
}
