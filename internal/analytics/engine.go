// Package analytics implements the heuristic financial analytics engine.
//
// Every operation is a pure computation over a caller-supplied snapshot of
// transactions, budgets and goals. The engine holds no mutable state, caches
// nothing and never modifies its inputs, so a single Engine may be shared by
// concurrent callers without synchronization.
//
// Operations:
//   - ComputeHealthScore: five weighted sub-metrics, level, trend, advice
//   - PredictExpenses: trend plus seasonality forecast per future month
//   - DetectAnomalies: high-amount and frequency-spike detectors
//   - RecommendBudgets: create/increase recommendations from monthly averages
//   - CategorizeTransaction: keyword classifier with amount fallback
//   - AnalyzeSpendingPatterns: category concentration and risk score
//   - BudgetProgress / GoalProgress: per-record progress views
//   - GenerateInsights: capped, ordered insight list combining the above
//
// Relative time ("last 30 days", month labels, days to deadline) is taken
// from the engine's Clock, which tests replace with a fixed one.
package analytics

import (
	"fmt"
	"time"

	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"
)

// SeasonalityModel selects how the seasonal factor is combined with the trend
type SeasonalityModel string

const (
	// SeasonalityAdditive adds factor×100 to the trend
	SeasonalityAdditive SeasonalityModel = "additive"
	// SeasonalityMultiplicative scales the trend by the factor
	SeasonalityMultiplicative SeasonalityModel = "multiplicative"
)

// IsValid checks if the seasonality model is supported
func (m SeasonalityModel) IsValid() bool {
	return m == SeasonalityAdditive || m == SeasonalityMultiplicative
}

// Config holds the tunable parts of the engine. Thresholds and weights of
// the heuristics themselves are fixed.
type Config struct {
	DefaultHorizonMonths int              `json:"default_horizon_months" mapstructure:"default_horizon_months"`
	SeasonalityModel     SeasonalityModel `json:"seasonality_model" mapstructure:"seasonality_model"`
	MaxInsights          int              `json:"max_insights" mapstructure:"max_insights"`
	BudgetInsightLimit   int              `json:"budget_insight_limit" mapstructure:"budget_insight_limit"`
}

// DefaultConfig returns the reference configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultHorizonMonths: 3,
		SeasonalityModel:     SeasonalityAdditive,
		MaxInsights:          10,
		BudgetInsightLimit:   3,
	}
}

// Validate validates the engine configuration
func (c *Config) Validate() error {
	if c.DefaultHorizonMonths < 1 || c.DefaultHorizonMonths > 24 {
		return fmt.Errorf("default horizon must be between 1 and 24 months, got %d", c.DefaultHorizonMonths)
	}
	if !c.SeasonalityModel.IsValid() {
		return fmt.Errorf("invalid seasonality model: %s", c.SeasonalityModel)
	}
	if c.MaxInsights < 1 {
		return fmt.Errorf("max insights must be positive, got %d", c.MaxInsights)
	}
	if c.BudgetInsightLimit < 0 {
		return fmt.Errorf("budget insight limit cannot be negative, got %d", c.BudgetInsightLimit)
	}
	return nil
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Time

// Now returns f()
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns wall-clock time
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// FixedClock always returns t
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Engine computes derived financial metrics
type Engine struct {
	config      *Config
	clock       Clock
	categorizer *Categorizer
	logger      logger.Logger
	metrics     map[Metric]metricFunc
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used for relative dates
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithCategorizer replaces the default keyword categorizer
func WithCategorizer(c *Categorizer) Option {
	return func(e *Engine) {
		e.categorizer = c
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine with the given configuration
func NewEngine(config *Config, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "analytics", config, err)
	}

	e := &Engine{
		config:  config,
		clock:   SystemClock(),
		logger:  logger.GetGlobalLogger().WithComponent("analytics"),
		metrics: defaultMetricFuncs(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.categorizer == nil {
		c, err := NewCategorizer(DefaultCategoryRules())
		if err != nil {
			return nil, err
		}
		e.categorizer = c
	}

	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return *e.config
}

// Categorizer returns the categorizer used by CategorizeTransaction
func (e *Engine) Categorizer() *Categorizer {
	return e.categorizer
}

// today returns the clock's current calendar date at UTC midnight, the
// same representation used for record dates.
func (e *Engine) today() time.Time {
	now := e.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the engine's current calendar date
func (e *Engine) Today() time.Time {
	return e.today()
}
