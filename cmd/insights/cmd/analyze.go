package cmd

import (
	"context"

	"finance-insights/internal/service"

	"github.com/spf13/cobra"
)

type analysisFunc func(ctx context.Context, a *app, cmd *cobra.Command, w service.Window) (interface{}, error)

// newAnalysisCmd builds a read-only command over a date window
func newAnalysisCmd(use, short, long string, run analysisFunc) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := window(cmd)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			result, err := run(cmd.Context(), a, cmd, w)
			if err != nil {
				return err
			}
			return a.render(cmd, result)
		},
	}
	addWindowFlags(c)
	return c
}

func newHealthCmd() *cobra.Command {
	return newAnalysisCmd("health", "Score overall financial health",
		`Health combines five sub-metrics into a score from 0 to 100:
savings rate, budget adherence, goal progress, spending stability and debt
ratio. The declared monthly income of the dataset is used as the baseline.`,
		func(ctx context.Context, a *app, _ *cobra.Command, w service.Window) (interface{}, error) {
			return a.service.HealthScore(ctx, w)
		})
}

func newPredictCmd() *cobra.Command {
	c := newAnalysisCmd("predict", "Forecast monthly expenses",
		`Predict forecasts expenses for the coming months from the monthly expense
trend and a fixed per-month seasonality factor.

Examples:
  insights predict
  insights predict --horizon 12 --format csv`,
		func(ctx context.Context, a *app, cmd *cobra.Command, w service.Window) (interface{}, error) {
			horizon, _ := cmd.Flags().GetInt("horizon")
			return a.service.Forecast(ctx, w, horizon)
		})
	c.Flags().Int("horizon", 0, "months to forecast, 1-24 (default: configured horizon)")
	return c
}

func newAnomaliesCmd() *cobra.Command {
	return newAnalysisCmd("anomalies", "Flag unusual transactions",
		`Anomalies flags expenses far above their category average in the last 30 days
and categories whose transaction count this month is well above normal.`,
		func(ctx context.Context, a *app, _ *cobra.Command, w service.Window) (interface{}, error) {
			return a.service.Anomalies(ctx, w)
		})
}

func newBudgetsCmd() *cobra.Command {
	return newAnalysisCmd("budgets", "Recommend budget changes",
		`Budgets recommends creating budgets for unbudgeted categories and raising
budgets that are consistently exceeded.`,
		func(ctx context.Context, a *app, _ *cobra.Command, w service.Window) (interface{}, error) {
			return a.service.BudgetRecommendations(ctx, w)
		})
}

func newPatternsCmd() *cobra.Command {
	return newAnalysisCmd("patterns", "Summarize where the money goes",
		"Patterns lists the largest expense categories with their share of spending.",
		func(ctx context.Context, a *app, _ *cobra.Command, w service.Window) (interface{}, error) {
			return a.service.SpendingPatterns(ctx, w)
		})
}

func newProgressCmd() *cobra.Command {
	return newAnalysisCmd("progress", "Show budget and goal progress",
		"Progress shows spending against each budget and the state of every savings goal.",
		func(ctx context.Context, a *app, _ *cobra.Command, w service.Window) (interface{}, error) {
			return a.service.Progress(ctx, w)
		})
}

func newInsightsCmd() *cobra.Command {
	return newAnalysisCmd("insights", "Generate prioritized insights",
		`Insights runs every analysis and combines the results into a prioritized
list of observations and suggested actions.`,
		func(ctx context.Context, a *app, _ *cobra.Command, w service.Window) (interface{}, error) {
			return a.service.Insights(ctx, w)
		})
}
