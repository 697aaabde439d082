package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{"0", "$0.00"},
		{"45.5", "$45.50"},
		{"1234.567", "$1,234.57"},
		{"-20", "-$20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := Currency(decimal.RequireFromString(tt.amount))
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	got := MonthLabel(time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC))
	if got != "February 2026" {
		t.Errorf("expected February 2026, got %s", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(42.46); got != "42.5%" {
		t.Errorf("expected 42.5%%, got %s", got)
	}
}
