// Package config assembles the CLI configuration from defaults, an optional
// config file, INSIGHTS_ environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"finance-insights/internal/analytics"
	"finance-insights/internal/models"
	"finance-insights/internal/parsers"
	"finance-insights/internal/reporter"
	"finance-insights/internal/server"
	"finance-insights/internal/service"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables, e.g. INSIGHTS_DATA_FILE
const EnvPrefix = "INSIGHTS"

// DefaultDataFile is the dataset location used when none is configured
const DefaultDataFile = "finance-data.json"

// Config is the complete CLI configuration
type Config struct {
	DataFile  string                `mapstructure:"data_file"`
	RulesFile string                `mapstructure:"rules_file"`
	AsOf      string                `mapstructure:"as_of"`
	Analytics analytics.Config      `mapstructure:"analytics"`
	Report    reporter.ReportConfig `mapstructure:"report"`
	Server    server.Config         `mapstructure:"server"`
	Log       logger.Config         `mapstructure:"log"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		DataFile:  DefaultDataFile,
		Analytics: *analytics.DefaultConfig(),
		Report:    *reporter.DefaultReportConfig(),
		Server:    *server.DefaultConfig(),
		Log:       *logger.DefaultConfig(),
	}
}

// SetDefaults registers every configurable key with v so that environment
// variables and config files can override them
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("data_file", d.DataFile)
	v.SetDefault("rules_file", d.RulesFile)
	v.SetDefault("as_of", d.AsOf)

	v.SetDefault("analytics.default_horizon_months", d.Analytics.DefaultHorizonMonths)
	v.SetDefault("analytics.seasonality_model", string(d.Analytics.SeasonalityModel))
	v.SetDefault("analytics.max_insights", d.Analytics.MaxInsights)
	v.SetDefault("analytics.budget_insight_limit", d.Analytics.BudgetInsightLimit)

	v.SetDefault("report.format", string(d.Report.Format))
	v.SetDefault("report.use_colors", d.Report.UseColors)
	v.SetDefault("report.max_items", d.Report.MaxItems)
	v.SetDefault("report.include_details", d.Report.IncludeDetails)
	v.SetDefault("report.csv_headers", d.Report.CSVHeaders)

	v.SetDefault("server.listen_addr", d.Server.ListenAddr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", string(d.Log.Format))
	v.SetDefault("log.output", string(d.Log.Output))
	v.SetDefault("log.file", d.Log.File)
}

// ConfigureEnv makes v read INSIGHTS_ variables, mapping nested keys with
// underscores (analytics.max_insights -> INSIGHTS_ANALYTICS_MAX_INSIGHTS)
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load builds the configuration from v and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err).
			WithSuggestion("check the types of the values in your config file and environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates every section of the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "data_file", c.DataFile, nil).
			WithSuggestion("set --data or INSIGHTS_DATA_FILE")
	}
	if _, err := c.Clock(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		validate func() error
	}{
		{"analytics", c.Analytics.Validate},
		{"report", c.Report.Validate},
		{"server", c.Server.Validate},
		{"log", c.Log.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, s.name, nil, err)
		}
	}
	return nil
}

// Clock returns a fixed clock when AsOf is set, otherwise the system clock
func (c *Config) Clock() (analytics.Clock, error) {
	if c.AsOf == "" {
		return analytics.SystemClock(), nil
	}
	t, err := models.ParseDate(c.AsOf)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "as_of", c.AsOf, err).
			WithSuggestion("use YYYY-MM-DD")
	}
	return analytics.FixedClock(t.Add(12 * time.Hour)), nil
}

// CreateReportConfig derives the report configuration for one command from
// the configured defaults
func CreateReportConfig(base reporter.ReportConfig, format string, noColor bool) (*reporter.ReportConfig, error) {
	config := base
	if format != "" {
		config.Format = reporter.OutputFormat(strings.ToLower(format))
	}
	if noColor || config.Format != reporter.FormatConsole {
		config.UseColors = false
	}
	if config.CSVDelimiter == 0 {
		config.CSVDelimiter = ','
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "format", format, err).
			WithSuggestion("valid formats: console, json, csv")
	}
	return &config, nil
}

// LoadCategorizer reads keyword rules from path. An empty path selects the
// built-in rules and returns nil.
func LoadCategorizer(fs afero.Fs, path string) (*analytics.Categorizer, error) {
	if path == "" {
		return nil, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		code := errors.CodeFileNotFound
		if exists, _ := afero.Exists(fs, path); exists {
			code = errors.CodeFilePermission
		}
		return nil, errors.FileError(code, path, err)
	}
	defer f.Close()

	rules, err := analytics.LoadCategoryRules(f)
	if err != nil {
		return nil, err
	}
	return analytics.NewCategorizer(rules)
}

// ParseWindow parses optional YYYY-MM-DD bounds into a service window
func ParseWindow(from, to string) (service.Window, error) {
	var w service.Window
	if from != "" {
		t, err := models.ParseDate(from)
		if err != nil {
			return w, errors.ValidationError(errors.CodeInvalidDate, "from", from, err).WithSuggestion("use YYYY-MM-DD")
		}
		w.From = &t
	}
	if to != "" {
		t, err := models.ParseDate(to)
		if err != nil {
			return w, errors.ValidationError(errors.CodeInvalidDate, "to", to, err).WithSuggestion("use YYYY-MM-DD")
		}
		w.To = &t
	}
	return w, w.Validate()
}

// CSVLayout returns a predefined CSV column layout by name
func CSVLayout(name string) (*parsers.CSVConfig, error) {
	if layout := parsers.GetCSVConfig(name); layout != nil {
		return layout, nil
	}

	names := make([]string, 0, 2)
	for _, c := range parsers.ListCSVConfigs() {
		names = append(names, c.Name)
	}
	return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "layout", name, fmt.Errorf("unknown layout")).
		WithSuggestion("use one of: " + strings.Join(names, ", "))
}
