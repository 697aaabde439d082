// Package format renders money and calendar values for human-readable
// messages and reports.
package format

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats an amount as US dollars with grouping, e.g. "$1,234.50"
func Currency(amount decimal.Decimal) string {
	f := amount.Round(2).InexactFloat64()
	if f < 0 {
		return printer.Sprintf("-$%.2f", -f)
	}
	return printer.Sprintf("$%.2f", f)
}

// Percent formats a percentage with one decimal place, e.g. "42.5%"
func Percent(p float64) string {
	return printer.Sprintf("%.1f%%", p)
}

// MonthLabel formats a month as "January 2026"
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}
