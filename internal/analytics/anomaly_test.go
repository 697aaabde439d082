package analytics

import (
	"testing"
	"time"

	"finance-insights/internal/generator"
	"finance-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomalies_HighAmount(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		name         string
		txs          []models.Transaction
		wantCount    int
		wantSeverity Severity
	}{
		{
			name: "three times the average is high",
			txs: []models.Transaction{
				expense("Food", "150", "2024-06-10"),
				expense("Food", "25", "2024-06-01"),
				expense("Food", "25", "2024-06-02"),
				expense("Food", "25", "2024-06-03"),
				expense("Food", "25", "2024-06-04"),
			},
			wantCount:    1,
			wantSeverity: SeverityHigh,
		},
		{
			name: "between two and three times is medium",
			txs: []models.Transaction{
				expense("Food", "200", "2024-06-10"),
				expense("Food", "50", "2024-06-01"),
				expense("Food", "50", "2024-06-02"),
				expense("Food", "50", "2024-06-03"),
				expense("Food", "50", "2024-06-04"),
				expense("Food", "50", "2024-06-05"),
			},
			wantCount:    1,
			wantSeverity: SeverityMedium,
		},
		{
			name: "below the absolute floor",
			txs: []models.Transaction{
				expense("Food", "90", "2024-06-10"),
				expense("Food", "10", "2024-06-01"),
				expense("Food", "10", "2024-06-02"),
				expense("Food", "10", "2024-06-03"),
				expense("Food", "10", "2024-06-04"),
			},
			wantCount: 0,
		},
		{
			name: "outside the recent window",
			txs: []models.Transaction{
				expense("Food", "500", "2024-04-01"),
				expense("Food", "20", "2024-06-01"),
				expense("Food", "20", "2024-06-02"),
				expense("Food", "20", "2024-06-03"),
				expense("Food", "20", "2024-06-04"),
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := e.DetectAnomalies(tt.txs)
			require.NoError(t, err)
			require.Len(t, report.Anomalies, tt.wantCount)
			if tt.wantCount > 0 {
				a := report.Anomalies[0]
				assert.Equal(t, AnomalyHighAmount, a.Kind)
				assert.Equal(t, tt.wantSeverity, a.Severity)
				require.NotNil(t, a.Transaction)
				assert.True(t, a.Transaction.Amount.Equal(tt.txs[0].Amount))
			}
		})
	}
}

func TestDetectAnomalies_FrequencySpike(t *testing.T) {
	e := newTestEngine(t, nil)

	txs := []models.Transaction{
		expense("Coffee", "5", "2023-10-01"),
		expense("Coffee", "5", "2023-12-01"),
	}
	for day := 1; day <= 10; day++ {
		txs = append(txs, expense("Coffee", "5", time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)))
	}

	report, err := e.DetectAnomalies(txs)
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)

	a := report.Anomalies[0]
	assert.Equal(t, AnomalyFrequencySpike, a.Kind)
	assert.Equal(t, SeverityMedium, a.Severity)
	assert.Equal(t, "Coffee", a.Category)
	assert.Nil(t, a.Transaction)
	assert.Equal(t, "Unusual increase in Coffee transactions this month", a.Message)
	assert.Equal(t, SeverityLow, report.RiskLevel)
}

func TestDetectAnomalies_SpikeScenario(t *testing.T) {
	e := newTestEngine(t, nil)

	report, err := e.DetectAnomalies(generator.SpikeScenario(e.today()))
	require.NoError(t, err)

	require.Equal(t, 1, report.TotalAnomalies)
	a := report.Anomalies[0]
	assert.Equal(t, AnomalyHighAmount, a.Kind)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, "Anniversary dinner", a.Transaction.Description)
	assert.Equal(t, "Unusually high Food & Dining expense: $2,000.00 vs average $99.39", a.Message)
	assert.Empty(t, report.Unavailable)
}

func TestDetectAnomalies_Empty(t *testing.T) {
	e := newTestEngine(t, nil)

	report, err := e.DetectAnomalies(nil)
	require.NoError(t, err)
	assert.NotNil(t, report.Anomalies)
	assert.Zero(t, report.TotalAnomalies)
	assert.Equal(t, SeverityLow, report.RiskLevel)
}

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, SeverityLow, RiskLevelFor(0))
	assert.Equal(t, SeverityLow, RiskLevelFor(2))
	assert.Equal(t, SeverityMedium, RiskLevelFor(3))
	assert.Equal(t, SeverityMedium, RiskLevelFor(5))
	assert.Equal(t, SeverityHigh, RiskLevelFor(6))
}

func TestDetectAnomalies_WindowBoundary(t *testing.T) {
	history := func(spikeDate string) []models.Transaction {
		return []models.Transaction{
			expense("Food", "600", spikeDate),
			expense("Food", "25", "2024-01-01"),
			expense("Food", "25", "2024-02-01"),
			expense("Food", "25", "2024-03-01"),
			expense("Food", "25", "2024-04-01"),
		}
	}

	tests := []struct {
		name      string
		now       time.Time
		spikeDate string
		wantCount int
	}{
		{"exactly thirty days back during the day", testNow, "2024-05-16", 0},
		{"twenty nine days back", testNow, "2024-05-17", 1},
		{"exactly thirty days back at midnight", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), "2024-05-16", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil, WithClock(FixedClock(tt.now)))
			report, err := e.DetectAnomalies(history(tt.spikeDate))
			require.NoError(t, err)

			var high int
			for _, a := range report.Anomalies {
				if a.Kind == AnomalyHighAmount {
					high++
				}
			}
			assert.Equal(t, tt.wantCount, high)
		})
	}
}
