package config

import (
	"strings"
	"testing"
	"time"

	"finance-insights/internal/analytics"
	"finance-insights/internal/reporter"
	"finance-insights/pkg/errors"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataFile != DefaultDataFile {
		t.Errorf("expected data file %s, got %s", DefaultDataFile, cfg.DataFile)
	}
	if cfg.Analytics.DefaultHorizonMonths != 3 {
		t.Errorf("expected default horizon 3, got %d", cfg.Analytics.DefaultHorizonMonths)
	}
	if cfg.Analytics.SeasonalityModel != analytics.SeasonalityAdditive {
		t.Errorf("expected additive seasonality, got %s", cfg.Analytics.SeasonalityModel)
	}
	if cfg.Report.Format != reporter.FormatConsole {
		t.Errorf("expected console format, got %s", cfg.Report.Format)
	}
	if cfg.Report.CSVDelimiter != ',' {
		t.Errorf("expected comma delimiter, got %q", cfg.Report.CSVDelimiter)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s request timeout, got %s", cfg.Server.RequestTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	v := newViper()
	v.Set("data_file", "/tmp/my-data.json")
	v.Set("analytics.seasonality_model", "multiplicative")
	v.Set("analytics.max_insights", 4)
	v.Set("server.request_timeout", "45s")
	v.Set("server.allowed_origins", "http://a.example,http://b.example")
	v.Set("log.level", "debug")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataFile != "/tmp/my-data.json" {
		t.Errorf("data file override not applied: %s", cfg.DataFile)
	}
	if cfg.Analytics.SeasonalityModel != analytics.SeasonalityMultiplicative {
		t.Errorf("seasonality override not applied: %s", cfg.Analytics.SeasonalityModel)
	}
	if cfg.Analytics.MaxInsights != 4 {
		t.Errorf("max insights override not applied: %d", cfg.Analytics.MaxInsights)
	}
	if cfg.Server.RequestTimeout != 45*time.Second {
		t.Errorf("duration override not applied: %s", cfg.Server.RequestTimeout)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level override not applied: %s", cfg.Log.Level)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("INSIGHTS_DATA_FILE", "/var/lib/insights.json")
	t.Setenv("INSIGHTS_ANALYTICS_DEFAULT_HORIZON_MONTHS", "6")

	v := newViper()
	ConfigureEnv(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataFile != "/var/lib/insights.json" {
		t.Errorf("expected data file from env, got %s", cfg.DataFile)
	}
	if cfg.Analytics.DefaultHorizonMonths != 6 {
		t.Errorf("expected horizon 6 from env, got %d", cfg.Analytics.DefaultHorizonMonths)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"empty data file", "data_file", " "},
		{"bad seasonality", "analytics.seasonality_model", "cubic"},
		{"bad report format", "report.format", "xml"},
		{"bad listen address", "server.listen_addr", "nowhere"},
		{"bad log level", "log.level", "loud"},
		{"bad as-of date", "as_of", "tomorrow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			if !errors.IsCategory(err, errors.CategoryConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestClock(t *testing.T) {
	cfg := Default()
	cfg.AsOf = "2024-06-15"

	clock, err := cfg.Clock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := clock.Now()
	if now.Year() != 2024 || now.Month() != time.June || now.Day() != 15 {
		t.Errorf("expected 2024-06-15, got %s", now)
	}
}

func TestCreateReportConfig(t *testing.T) {
	base := *reporter.DefaultReportConfig()

	tests := []struct {
		name          string
		format        string
		noColor       bool
		wantFormat    reporter.OutputFormat
		wantUseColors bool
		wantErr       bool
	}{
		{"default console", "", false, reporter.FormatConsole, true, false},
		{"no color", "console", true, reporter.FormatConsole, false, false},
		{"json never colours", "JSON", false, reporter.FormatJSON, false, false},
		{"csv", "csv", false, reporter.FormatCSV, false, false},
		{"unknown", "pdf", false, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateReportConfig(base, tt.format, tt.noColor)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.wantFormat {
				t.Errorf("format = %s, want %s", config.Format, tt.wantFormat)
			}
			if config.UseColors != tt.wantUseColors {
				t.Errorf("UseColors = %v, want %v", config.UseColors, tt.wantUseColors)
			}
		})
	}

	if base.Format != reporter.FormatConsole || !base.UseColors {
		t.Error("CreateReportConfig must not modify the base configuration")
	}
}

func TestLoadCategorizer(t *testing.T) {
	fs := afero.NewMemMapFs()
	rules := "rules:\n  - category: Groceries\n    keywords: [market]\n    tags: [food]\n"
	if err := afero.WriteFile(fs, "/rules.yaml", []byte(rules), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}

	c, err := LoadCategorizer(fs, "/rules.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Rules(); len(got) != 1 || got[0].Category != "Groceries" {
		t.Errorf("unexpected rules %+v", got)
	}

	if c, err := LoadCategorizer(fs, ""); c != nil || err != nil {
		t.Errorf("empty path should select built-in rules, got %v, %v", c, err)
	}

	if _, err := LoadCategorizer(fs, "/missing.yaml"); !errors.IsCategory(err, errors.CategoryFile) {
		t.Errorf("expected file error, got %v", err)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2024-01-01", "2024-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.From == nil || w.To == nil || w.To.Month() != time.March {
		t.Errorf("unexpected window %+v", w)
	}

	if w, err := ParseWindow("", ""); err != nil || !w.IsZero() {
		t.Errorf("expected open window, got %+v, %v", w, err)
	}

	if _, err := ParseWindow("01/02/2024", ""); !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, err := ParseWindow("2024-03-31", "2024-01-01"); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestCSVLayout(t *testing.T) {
	layout, err := CSVLayout("bank")
	if err != nil || !layout.SignedAmounts {
		t.Errorf("expected bank layout, got %+v, %v", layout, err)
	}

	_, err = CSVLayout("quicken")
	if err == nil {
		t.Fatal("expected error for unknown layout")
	}
	if !strings.Contains(err.Error(), "standard, bank") {
		t.Errorf("expected layout names in error, got %v", err)
	}
}
