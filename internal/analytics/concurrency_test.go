package analytics

import (
	"testing"

	"finance-insights/internal/generator"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A single engine and a single input snapshot are shared by every
// goroutine. Run with -race.
func TestEngine_ConcurrentCallsShareInputs(t *testing.T) {
	e := newTestEngine(t, nil)

	config := generator.DefaultConfig(e.today())
	config.Pattern = generator.PatternVolatile
	gen, err := generator.New(config)
	require.NoError(t, err)
	ds := gen.Dataset()
	snapshot := ds.Clone()

	wantHealth, err := e.ComputeHealthScore(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
	require.NoError(t, err)
	wantInsights, err := e.GenerateInsights(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
	require.NoError(t, err)
	wantAnomalies, err := e.DetectAnomalies(ds.Transactions)
	require.NoError(t, err)
	wantForecast, err := e.PredictExpenses(ds.Transactions, 6)
	require.NoError(t, err)

	const workers = 32
	var (
		health    [workers]*HealthScore
		insights  [workers]*InsightReport
		anomalies [workers]*AnomalyReport
		forecasts [workers]*Forecast
		errs      [workers][4]error
	)

	var wg conc.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			health[i], errs[i][0] = e.ComputeHealthScore(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
			insights[i], errs[i][1] = e.GenerateInsights(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
			anomalies[i], errs[i][2] = e.DetectAnomalies(ds.Transactions)
			forecasts[i], errs[i][3] = e.PredictExpenses(ds.Transactions, 6)
		})
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		for _, err := range errs[i] {
			require.NoError(t, err, "worker %d", i)
		}
		assert.Equal(t, wantHealth, health[i], "worker %d", i)
		assert.Equal(t, wantInsights, insights[i], "worker %d", i)
		assert.Equal(t, wantAnomalies, anomalies[i], "worker %d", i)
		assert.Equal(t, wantForecast, forecasts[i], "worker %d", i)
	}

	assert.Equal(t, snapshot, ds)
}
