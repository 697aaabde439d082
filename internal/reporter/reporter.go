// Package reporter renders analytics results for people and programs.
//
// Supported output formats:
//   - Console: sectioned, optionally coloured text for terminal display
//   - JSON: the result structures as indented JSON
//   - CSV: one row per item for the tabular results (forecast, anomalies,
//     budget recommendations, progress, insights, health breakdown)
//
// Example usage:
//
//	gen, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = gen.GenerateReport(healthScore, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"finance-insights/internal/analytics"
	"finance-insights/internal/format"
	"finance-insights/internal/models"
	"finance-insights/internal/service"
	"finance-insights/pkg/errors"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format"`

	// Console options
	UseColors bool `json:"use_colors" mapstructure:"use_colors"`
	MaxItems  int  `json:"max_items" mapstructure:"max_items"`

	// Sections of the insight report beyond the insight list
	IncludeDetails bool `json:"include_details" mapstructure:"include_details"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter" mapstructure:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers" mapstructure:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatConsole,
		UseColors:      true,
		MaxItems:       20,
		IncludeDetails: true,
		CSVDelimiter:   ',',
		CSVHeaders:     true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxItems < 1 {
		return fmt.Errorf("max items must be positive, got %d", c.MaxItems)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' {
		return fmt.Errorf("invalid CSV delimiter: %q", c.CSVDelimiter)
	}
	return nil
}

type palette struct {
	title, good, warn, bad, muted *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title: color.New(color.Bold, color.FgCyan),
		good:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed, color.Bold),
		muted: color.New(color.Faint),
	}
	if !enabled {
		for _, c := range []*color.Color{p.title, p.good, p.warn, p.bad, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

// ReportGenerator renders analytics results in the configured format
type ReportGenerator struct {
	config  *ReportConfig
	palette palette
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config:  config,
		palette: newPalette(config.UseColors),
	}, nil
}

// GenerateReport writes result to writer. Result is one of the analytics or
// service result types, or an added transaction.
func (rg *ReportGenerator) GenerateReport(result interface{}, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateJSONReport(result interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (rg *ReportGenerator) generateConsoleReport(result interface{}, w io.Writer) error {
	switch r := result.(type) {
	case *analytics.HealthScore:
		rg.printHealth(r, w)
	case *analytics.Forecast:
		rg.printForecast(r, w)
	case *analytics.AnomalyReport:
		rg.printAnomalies(r, w)
	case *analytics.BudgetReport:
		rg.printBudgetRecommendations(r, w)
	case *analytics.Categorization:
		rg.printCategorization(r, w)
	case *analytics.SpendingPatterns:
		rg.printPatterns(r, w)
	case *service.Progress:
		rg.printProgress(r, w)
	case *analytics.InsightReport:
		rg.printInsights(r, w)
	case *service.ImportResult:
		rg.printImport(r, w)
	case *models.Transaction:
		fmt.Fprintf(w, "Added transaction %s: %s %s %s on %s\n",
			r.ID, r.Type, format.Currency(r.Amount), r.Category, r.Date.Format(models.DateLayout))
	default:
		return errors.ValidationError(errors.CodeInvalidType, "result_type", fmt.Sprintf("%T", result), nil).
			WithSuggestion("the console format does not support this result")
	}
	return nil
}

func (rg *ReportGenerator) heading(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n", rg.palette.title.Sprint(title))
}

func (rg *ReportGenerator) section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n=== %s ===\n", title)
}

func (rg *ReportGenerator) severity(s analytics.Severity) string {
	label := "[" + strings.ToUpper(string(s)) + "]"
	switch s {
	case analytics.SeverityHigh:
		return rg.palette.bad.Sprint(label)
	case analytics.SeverityMedium:
		return rg.palette.warn.Sprint(label)
	default:
		return rg.palette.good.Sprint(label)
	}
}

func (rg *ReportGenerator) level(l analytics.HealthLevel) string {
	switch l {
	case analytics.HealthExcellent, analytics.HealthGood:
		return rg.palette.good.Sprint(l)
	case analytics.HealthFair:
		return rg.palette.warn.Sprint(l)
	default:
		return rg.palette.bad.Sprint(l)
	}
}

func (rg *ReportGenerator) printHealth(h *analytics.HealthScore, w io.Writer) {
	rg.heading(w, "FINANCIAL HEALTH REPORT")
	fmt.Fprintf(w, "Overall Score: %d/100 (%s)\n", h.OverallScore, rg.level(h.HealthLevel))
	fmt.Fprintf(w, "Trend:         %s\n", h.Trend)

	rg.section(w, "BREAKDOWN")
	for _, m := range h.Breakdown {
		line := fmt.Sprintf("  %-18s %5.1f  x%.2f = %5.2f", m.Metric, m.Score, m.Weight, m.Contribution)
		if !m.Available {
			line += rg.palette.muted.Sprint("  (unavailable, neutral score used)")
		}
		fmt.Fprintln(w, line)
	}

	if len(h.Recommendations) > 0 {
		rg.section(w, "RECOMMENDATIONS")
		for _, rec := range h.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func (rg *ReportGenerator) printForecast(f *analytics.Forecast, w io.Writer) {
	rg.heading(w, "EXPENSE FORECAST")
	if len(f.Predictions) == 0 {
		fmt.Fprintln(w, "Not enough history to forecast expenses.")
		return
	}

	fmt.Fprintf(w, "Trend: %s per month (%s model, accuracy %s)\n", format.Currency(f.Trend), f.Model, f.Accuracy)
	rg.section(w, "PREDICTIONS")
	for _, p := range f.Predictions {
		fmt.Fprintf(w, "  %-16s %12s  confidence %s\n",
			p.Month, format.Currency(p.PredictedExpenses), format.Percent(p.Confidence*100))
	}
}

func (rg *ReportGenerator) printAnomalies(r *analytics.AnomalyReport, w io.Writer) {
	rg.heading(w, "ANOMALY REPORT")
	fmt.Fprintf(w, "Total Anomalies: %d\n", r.TotalAnomalies)
	fmt.Fprintf(w, "Risk Level:      %s\n", rg.severity(r.RiskLevel))

	groups := make(map[analytics.Severity][]analytics.Anomaly)
	for _, a := range r.Anomalies {
		groups[a.Severity] = append(groups[a.Severity], a)
	}

	printed := 0
severities:
	for _, s := range []analytics.Severity{analytics.SeverityHigh, analytics.SeverityMedium, analytics.SeverityLow} {
		list := groups[s]
		if len(list) == 0 {
			continue
		}
		rg.section(w, fmt.Sprintf("%s SEVERITY (%d)", strings.ToUpper(string(s)), len(list)))
		for _, a := range list {
			if printed >= rg.config.MaxItems {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.Anomalies)-printed)
				break severities
			}
			fmt.Fprintf(w, "  - %s: %s\n", a.Kind, a.Message)
			if a.Transaction != nil {
				fmt.Fprintf(w, "    Transaction %s on %s\n", a.Transaction.ID, a.Transaction.Date.Format(models.DateLayout))
			}
			fmt.Fprintf(w, "    %s\n", rg.palette.muted.Sprint(a.Suggestion))
			printed++
		}
	}

	rg.printUnavailable(r.Unavailable, w)
}

func (rg *ReportGenerator) printBudgetRecommendations(r *analytics.BudgetReport, w io.Writer) {
	rg.heading(w, "BUDGET RECOMMENDATIONS")
	if len(r.Recommendations) == 0 {
		fmt.Fprintln(w, "Your budgets cover your spending.")
	}
	for i, rec := range r.Recommendations {
		fmt.Fprintf(w, "  %d. %s %s %s: %s", i+1, rg.severity(rec.Priority), rec.Action, rec.Category, format.Currency(rec.RecommendedAmount))
		if rec.CurrentAmount != nil {
			fmt.Fprintf(w, " (currently %s)", format.Currency(*rec.CurrentAmount))
		}
		fmt.Fprintf(w, "\n     %s\n", rec.Reason)
	}
	fmt.Fprintf(w, "\nTotal Recommended Budget: %s\n", format.Currency(r.TotalRecommendedBudget))
	fmt.Fprintf(w, "Confidence:               %s\n", format.Percent(r.Confidence*100))
}

func (rg *ReportGenerator) printCategorization(c *analytics.Categorization, w io.Writer) {
	fmt.Fprintf(w, "Category:   %s\n", rg.palette.title.Sprint(c.Category))
	fmt.Fprintf(w, "Confidence: %s\n", format.Percent(c.Confidence*100))
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "Tags:       %s\n", strings.Join(c.Tags, ", "))
	}
	if c.MatchedKeyword != "" {
		fmt.Fprintf(w, "Matched:    %q\n", c.MatchedKeyword)
	}
}

func (rg *ReportGenerator) printPatterns(p *analytics.SpendingPatterns, w io.Writer) {
	rg.heading(w, "SPENDING PATTERNS")
	fmt.Fprintf(w, "Total Spending: %s\n", format.Currency(p.TotalSpending))
	fmt.Fprintf(w, "Risk Score:     %d/100\n", p.RiskScore)

	if len(p.TopCategories) > 0 {
		rg.section(w, "TOP CATEGORIES")
		for i, c := range p.TopCategories {
			fmt.Fprintf(w, "  %d. %-22s %12s  %s\n", i+1, c.Category, format.Currency(c.Amount), format.Percent(c.Percent))
		}
	}
	if len(p.Recommendations) > 0 {
		rg.section(w, "RECOMMENDATIONS")
		for _, rec := range p.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func (rg *ReportGenerator) budgetStatus(s analytics.BudgetStatus) string {
	switch s {
	case analytics.BudgetExceeded:
		return rg.palette.bad.Sprint(s)
	case analytics.BudgetWarning:
		return rg.palette.warn.Sprint(s)
	default:
		return rg.palette.good.Sprint(s)
	}
}

func (rg *ReportGenerator) printProgress(p *service.Progress, w io.Writer) {
	rg.heading(w, "PROGRESS REPORT")

	rg.section(w, "BUDGETS")
	if len(p.Budgets) == 0 {
		fmt.Fprintln(w, "  No budgets defined.")
	}
	for _, b := range p.Budgets {
		fmt.Fprintf(w, "  %-22s %12s of %-12s %7s  %s\n",
			b.Budget.Category, format.Currency(b.Spent), format.Currency(b.Budget.Limit),
			format.Percent(b.PercentUsed), rg.budgetStatus(b.Status))
	}

	rg.section(w, "GOALS")
	if len(p.Goals) == 0 {
		fmt.Fprintln(w, "  No goals defined.")
	}
	for _, g := range p.Goals {
		state := fmt.Sprintf("%d days left", g.DaysLeft)
		switch {
		case g.Completed:
			state = rg.palette.good.Sprint("completed")
		case g.Overdue:
			state = rg.palette.bad.Sprintf("overdue by %d days", -g.DaysLeft)
		}
		fmt.Fprintf(w, "  %-22s %12s of %-12s %7s  %s\n",
			g.Goal.Title, format.Currency(g.Goal.CurrentAmount), format.Currency(g.Goal.TargetAmount),
			format.Percent(g.Percent), state)
	}
}

func (rg *ReportGenerator) printInsights(r *analytics.InsightReport, w io.Writer) {
	rg.heading(w, "FINANCIAL INSIGHTS")
	fmt.Fprintf(w, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Showing %d of %d insights\n", len(r.Insights), r.TotalInsights)

	if len(r.Insights) > 0 {
		rg.section(w, "INSIGHTS")
		for i, in := range r.Insights {
			fmt.Fprintf(w, "  %d. %s %s\n     %s\n", i+1, rg.severity(in.Priority), in.Title, in.Message)
		}
	}

	if rg.config.IncludeDetails {
		rg.section(w, "SUMMARY")
		if r.HealthScore != nil {
			fmt.Fprintf(w, "  Health score:      %d/100 (%s)\n", r.HealthScore.OverallScore, rg.level(r.HealthScore.HealthLevel))
		}
		if r.Anomalies != nil {
			fmt.Fprintf(w, "  Anomalies:         %d (risk %s)\n", r.Anomalies.TotalAnomalies, r.Anomalies.RiskLevel)
		}
		if r.Forecast != nil && len(r.Forecast.Predictions) > 0 {
			next := r.Forecast.Predictions[0]
			fmt.Fprintf(w, "  Next month:        %s expected in %s\n", format.Currency(next.PredictedExpenses), next.Month)
		}
		if r.Patterns != nil && len(r.Patterns.TopCategories) > 0 {
			top := r.Patterns.TopCategories[0]
			fmt.Fprintf(w, "  Largest category:  %s (%s)\n", top.Category, format.Percent(top.Percent))
		}
		if r.Budgets != nil {
			fmt.Fprintf(w, "  Suggested budgets: %s per month\n", format.Currency(r.Budgets.TotalRecommendedBudget))
		}
	}

	rg.printUnavailable(r.Unavailable, w)
}

func (rg *ReportGenerator) printUnavailable(sections []string, w io.Writer) {
	if len(sections) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", rg.palette.warn.Sprint("Unavailable:"), strings.Join(sections, ", "))
}

func (rg *ReportGenerator) printImport(r *service.ImportResult, w io.Writer) {
	rg.heading(w, "IMPORT SUMMARY")
	fmt.Fprintf(w, "Imported:    %d\n", r.Imported)
	fmt.Fprintf(w, "Duplicates:  %d\n", r.Duplicates)
	fmt.Fprintf(w, "Categorized: %d\n", r.Categorized)

	for _, stats := range r.Stats {
		if stats == nil {
			continue
		}
		rg.section(w, stats.Source)
		fmt.Fprintf(w, "%s\n", stats.String())
		if stats.HasErrors() {
			fmt.Fprintln(w, errors.FormatForUser(stats.Err()))
		}
	}
}

func (rg *ReportGenerator) generateCSVReport(result interface{}, writer io.Writer) error {
	var (
		headers []string
		rows    [][]string
	)

	switch r := result.(type) {
	case *analytics.HealthScore:
		headers = []string{"metric", "score", "weight", "contribution", "available"}
		for _, m := range r.Breakdown {
			rows = append(rows, []string{string(m.Metric), floatCell(m.Score), floatCell(m.Weight), floatCell(m.Contribution), strconv.FormatBool(m.Available)})
		}
	case *analytics.Forecast:
		headers = []string{"month", "month_start", "predicted_expenses", "confidence"}
		for _, p := range r.Predictions {
			rows = append(rows, []string{p.Month, p.MonthStart.Format(models.DateLayout), p.PredictedExpenses.StringFixed(2), floatCell(p.Confidence)})
		}
	case *analytics.AnomalyReport:
		headers = []string{"kind", "severity", "category", "transaction_id", "amount", "date", "message"}
		for _, a := range r.Anomalies {
			id, amount, date := "", "", ""
			if a.Transaction != nil {
				id, amount, date = a.Transaction.ID, a.Transaction.Amount.StringFixed(2), a.Transaction.Date.Format(models.DateLayout)
			}
			rows = append(rows, []string{string(a.Kind), string(a.Severity), a.Category, id, amount, date, a.Message})
		}
	case *analytics.BudgetReport:
		headers = []string{"action", "category", "current_amount", "recommended_amount", "average_monthly_spend", "priority", "reason"}
		for _, rec := range r.Recommendations {
			current := ""
			if rec.CurrentAmount != nil {
				current = rec.CurrentAmount.StringFixed(2)
			}
			rows = append(rows, []string{string(rec.Action), rec.Category, current, rec.RecommendedAmount.StringFixed(2), rec.AverageMonthlySpend.StringFixed(2), string(rec.Priority), rec.Reason})
		}
	case *service.Progress:
		headers = []string{"kind", "name", "amount", "target", "percent", "status"}
		for _, b := range r.Budgets {
			rows = append(rows, []string{"budget", b.Budget.Category, b.Spent.StringFixed(2), b.Budget.Limit.StringFixed(2), floatCell(b.PercentUsed), string(b.Status)})
		}
		for _, g := range r.Goals {
			status := strconv.Itoa(g.DaysLeft) + " days left"
			if g.Completed {
				status = "completed"
			}
			rows = append(rows, []string{"goal", g.Goal.Title, g.Goal.CurrentAmount.StringFixed(2), g.Goal.TargetAmount.StringFixed(2), floatCell(g.Percent), status})
		}
	case *analytics.InsightReport:
		headers = []string{"type", "priority", "title", "message", "action", "action_amount"}
		for _, in := range r.Insights {
			action, amount := "", ""
			if in.Action != nil {
				action, amount = string(in.Action.Type), in.Action.Amount.StringFixed(2)
			}
			rows = append(rows, []string{string(in.Type), string(in.Priority), in.Title, in.Message, action, amount})
		}
	default:
		return errors.ValidationError(errors.CodeInvalidFormat, "result_type", fmt.Sprintf("%T", result), nil).
			WithSuggestion("use the console or json format for this result")
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}
	return nil
}

func floatCell(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	rg.palette = newPalette(config.UseColors)
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
