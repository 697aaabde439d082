package errors

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Collector accumulates ingestion errors so that every problem in a batch of
// records is reported at once instead of stopping at the first one.
type Collector struct {
	maxErrors int
	err       error
	count     int
}

// NewCollector creates a collector that keeps at most maxErrors errors.
// A non-positive maxErrors keeps everything.
func NewCollector(maxErrors int) *Collector {
	return &Collector{maxErrors: maxErrors}
}

// Add records err. It returns false once the collector is full.
func (c *Collector) Add(err error) bool {
	if err == nil {
		return true
	}
	c.count++
	if c.maxErrors > 0 && c.count > c.maxErrors {
		return false
	}
	c.err = multierr.Append(c.err, err)
	return c.maxErrors <= 0 || c.count < c.maxErrors
}

// HasErrors reports whether any error was added
func (c *Collector) HasErrors() bool {
	return c.count > 0
}

// Count returns the number of errors added, including dropped ones
func (c *Collector) Count() int {
	return c.count
}

// Err returns the combined error, or nil
func (c *Collector) Err() error {
	return c.err
}

// AppErrors returns the collected errors that are AppErrors, wrapping
// anything else as an internal error.
func (c *Collector) AppErrors() []*AppError {
	var out []*AppError
	for _, err := range multierr.Errors(c.err) {
		out = append(out, WrapIfNeeded(err, CategoryInternal, CodeUnexpectedError, err.Error()))
	}
	return out
}

// Summary returns an ErrorSummary over the collected errors
func (c *Collector) Summary() *ErrorSummary {
	return NewErrorSummary(c.AppErrors())
}

// FormatForUser renders collected errors as a numbered list
func FormatForUser(err error) string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d problem(s) found:\n", len(errs))
	for i, e := range errs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, e.Error())
	}
	return b.String()
}
