package analytics

import (
	"fmt"

	"finance-insights/internal/models"
	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
)

// validateInputs rejects malformed records before any computation runs.
// All problems are reported together as validation errors.
func validateInputs(txs []models.Transaction, budgets []models.Budget, goals []models.Goal) error {
	collector := errors.NewCollector(0)

	for i, tx := range txs {
		collector.Add(label(tx.Validate(), "transactions", i))
	}
	for i, b := range budgets {
		collector.Add(label(b.Validate(), "budgets", i))
	}
	for i, g := range goals {
		collector.Add(label(g.Validate(), "goals", i))
	}

	return collector.Err()
}

func validateNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return errors.ValidationError(errors.CodeInvalidAmount, field, v.String(), nil)
	}
	return nil
}

func label(err error, collection string, i int) error {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithContext("record", fmt.Sprintf("%s[%d]", collection, i))
	}
	return err
}
