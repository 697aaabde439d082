// Package service is the application layer between the outer surfaces (CLI,
// HTTP) and the analytics engine. It owns the store, applies the optional
// date window to transactions and implements the add and import flows.
package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"finance-insights/internal/analytics"
	"finance-insights/internal/models"
	"finance-insights/internal/parsers"
	"finance-insights/internal/store"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
)

// Window restricts the transactions an operation sees. A nil bound is open.
// Budgets and goals are never filtered.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Validate checks that the window is not inverted
func (w Window) Validate() error {
	if w.From != nil && w.To != nil && w.From.After(*w.To) {
		return errors.ValidationError(errors.CodeOutOfRange, "window",
			w.From.Format(models.DateLayout)+".."+w.To.Format(models.DateLayout), nil).
			WithSuggestion("the start of the window must not be after its end")
	}
	return nil
}

// IsZero reports whether the window is unbounded
func (w Window) IsZero() bool {
	return w.From == nil && w.To == nil
}

// InsightsService runs analytics over the stored dataset
type InsightsService struct {
	store  store.Store
	engine *analytics.Engine
	newID  parsers.IDGenerator
	logger logger.Logger

	// mu serializes load-modify-save cycles so concurrent writers never
	// save over each other's records
	mu sync.Mutex
}

// Option configures an InsightsService
type Option func(*InsightsService)

// WithIDGenerator sets the generator for transactions added without an id
func WithIDGenerator(gen parsers.IDGenerator) Option {
	return func(s *InsightsService) {
		s.newID = gen
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *InsightsService) {
		s.logger = l
	}
}

// NewInsightsService creates a service over st using engine
func NewInsightsService(st store.Store, engine *analytics.Engine, opts ...Option) *InsightsService {
	s := &InsightsService{
		store:  st,
		engine: engine,
		newID:  parsers.NewUUID,
		logger: logger.GetGlobalLogger().WithComponent("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the analytics engine
func (s *InsightsService) Engine() *analytics.Engine {
	return s.engine
}

// Snapshot loads the dataset with its transactions restricted to w
func (s *InsightsService) Snapshot(ctx context.Context, w Window) (*models.Dataset, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		ds = &models.Dataset{}
	}
	if !w.IsZero() {
		ds.Transactions = models.FilterByDateRange(ds.Transactions, w.From, w.To)
	}

	s.logger.WithFields(logger.Fields{
		"transactions": len(ds.Transactions),
		"budgets":      len(ds.Budgets),
		"goals":        len(ds.Goals),
	}).Debug("Loaded snapshot")

	return ds, nil
}

// HealthScore computes the financial health score. The dataset's declared
// income is the baseline used when the window has no income.
func (s *InsightsService) HealthScore(ctx context.Context, w Window) (*analytics.HealthScore, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeHealthScore(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
}

// Forecast predicts expenses for the next horizon months; zero uses the
// engine default.
func (s *InsightsService) Forecast(ctx context.Context, w Window, horizon int) (*analytics.Forecast, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.engine.PredictExpenses(ds.Transactions, horizon)
}

// Anomalies detects unusual transactions
func (s *InsightsService) Anomalies(ctx context.Context, w Window) (*analytics.AnomalyReport, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.engine.DetectAnomalies(ds.Transactions)
}

// BudgetRecommendations recommends new or larger budgets
func (s *InsightsService) BudgetRecommendations(ctx context.Context, w Window) (*analytics.BudgetReport, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.engine.RecommendBudgets(ds.Transactions, ds.Budgets)
}

// SpendingPatterns analyses spending concentration
func (s *InsightsService) SpendingPatterns(ctx context.Context, w Window) (*analytics.SpendingPatterns, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.engine.AnalyzeSpendingPatterns(ds.Transactions)
}

// Progress is the combined budget and goal progress view
type Progress struct {
	Budgets []analytics.BudgetProgress `json:"budgets"`
	Goals   []analytics.GoalProgress   `json:"goals"`
}

// Progress computes budget progress over the window and goal progress
func (s *InsightsService) Progress(ctx context.Context, w Window) (*Progress, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	budgets, err := s.engine.BudgetProgress(ds.Transactions, ds.Budgets)
	if err != nil {
		return nil, err
	}
	goals, err := s.engine.GoalProgress(ds.Goals)
	if err != nil {
		return nil, err
	}
	return &Progress{Budgets: budgets, Goals: goals}, nil
}

// Insights generates the combined insight report
func (s *InsightsService) Insights(ctx context.Context, w Window) (*analytics.InsightReport, error) {
	ds, err := s.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.engine.GenerateInsights(ds.Transactions, ds.Budgets, ds.Goals, ds.DeclaredIncome)
}

// Categorize classifies a description without touching the store
func (s *InsightsService) Categorize(ctx context.Context, description string, amount decimal.Decimal) (*analytics.Categorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeCancelled, "categorize", err)
	}
	return s.engine.CategorizeTransaction(description, amount)
}

// AddTransaction validates tx, assigns an id and a category when they are
// missing, and appends it to the stored dataset. Keyword tags are added
// when tx has none.
func (s *InsightsService) AddTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	tx.Category = strings.TrimSpace(tx.Category)
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if tx.Category == "" {
		c, err := s.engine.CategorizeTransaction(tx.Description, tx.Amount)
		if err != nil {
			return nil, err
		}
		tx.Category = c.Category
		if len(tx.Tags) == 0 && len(c.Tags) > 0 {
			tx.Tags = c.Tags
		}
		s.logger.WithFields(logger.Fields{
			"category":   c.Category,
			"confidence": c.Confidence,
		}).Debug("Auto-categorized transaction")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if tx.ID == "" {
		tx.ID = s.newID()
	} else if hasTransaction(ds, tx.ID) {
		return nil, errors.ValidationError(errors.CodeInvalidData, "id", tx.ID, nil).
			WithSuggestion("transaction ids must be unique; omit the id to have one assigned")
	}

	ds.Transactions = append(ds.Transactions, tx)
	if err := s.store.Save(ctx, ds); err != nil {
		return nil, err
	}

	s.logger.WithField("id", tx.ID).Info("Added transaction")
	return &tx, nil
}

// AddBudget validates b and appends it to the stored dataset
func (s *InsightsService) AddBudget(ctx context.Context, b models.Budget) (*models.Budget, error) {
	if b.Period == "" {
		b.Period = models.PeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if b.ID == "" {
		b.ID = s.newID()
	}
	ds.Budgets = append(ds.Budgets, b)
	if err := s.store.Save(ctx, ds); err != nil {
		return nil, err
	}
	return &b, nil
}

// AddGoal validates g and appends it to the stored dataset
func (s *InsightsService) AddGoal(ctx context.Context, g models.Goal) (*models.Goal, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.ID == "" {
		g.ID = s.newID()
	}
	ds.Goals = append(ds.Goals, g)
	if err := s.store.Save(ctx, ds); err != nil {
		return nil, err
	}
	return &g, nil
}

// ImportResult summarises an import
type ImportResult struct {
	Imported    int                   `json:"imported"`
	Duplicates  int                   `json:"duplicates"`
	Categorized int                   `json:"categorized"`
	Stats       []*parsers.ParseStats `json:"stats"`
}

// ImportCSV parses a CSV export and appends its transactions. Rows whose id
// is already stored are skipped, rows without a category are categorized.
// Rejected rows are reported in the stats and do not fail the import.
func (s *InsightsService) ImportCSV(ctx context.Context, r io.Reader, source string, config *parsers.CSVConfig) (*ImportResult, error) {
	parser, err := parsers.NewCSVParser(config, parsers.WithIDGenerator(s.newID))
	if err != nil {
		return nil, err
	}

	txs, stats, err := parser.Parse(ctx, r, source)
	if err != nil {
		return nil, err
	}
	return s.importTransactions(ctx, txs, []*parsers.ParseStats{stats})
}

// ImportFiles imports several CSV files from fs concurrently. A file that
// cannot be opened or read fails the whole import before anything is saved.
func (s *InsightsService) ImportFiles(ctx context.Context, fs afero.Fs, paths []string, config *parsers.CSVConfig) (*ImportResult, error) {
	results, err := parsers.ParseFiles(ctx, fs, paths, config, 0, parsers.WithIDGenerator(s.newID))
	if err != nil {
		return nil, err
	}

	var (
		txs   []models.Transaction
		stats []*parsers.ParseStats
	)
	collector := errors.NewCollector(0)
	for _, res := range results {
		if res.Err != nil {
			collector.Add(res.Err)
			continue
		}
		txs = append(txs, res.Transactions...)
		stats = append(stats, res.Stats)
	}
	if err := collector.Err(); err != nil {
		return nil, err
	}

	return s.importTransactions(ctx, txs, stats)
}

func (s *InsightsService) importTransactions(ctx context.Context, txs []models.Transaction, stats []*parsers.ParseStats) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Stats: stats}
	seen := make(map[string]bool, len(ds.Transactions)+len(txs))
	for _, tx := range ds.Transactions {
		seen[tx.ID] = true
	}

	for _, tx := range txs {
		if seen[tx.ID] {
			result.Duplicates++
			continue
		}
		seen[tx.ID] = true

		if tx.Category == "" {
			c, err := s.engine.CategorizeTransaction(tx.Description, tx.Amount)
			if err != nil {
				return nil, err
			}
			tx.Category = c.Category
			result.Categorized++
		}

		ds.Transactions = append(ds.Transactions, tx)
		result.Imported++
	}

	if result.Imported > 0 {
		if err := s.store.Save(ctx, ds); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logger.Fields{
		"imported":    result.Imported,
		"duplicates":  result.Duplicates,
		"categorized": result.Categorized,
	}).Info("Import completed")

	return result, nil
}

func hasTransaction(ds *models.Dataset, id string) bool {
	for _, tx := range ds.Transactions {
		if tx.ID == id {
			return true
		}
	}
	return false
}
