package generator

import (
	"encoding/csv"
	"io"
	"strings"

	"finance-insights/internal/models"
)

// CSVHeader is the column order written by WriteCSV and accepted by the
// CSV transaction parser.
var CSVHeader = []string{"id", "type", "amount", "category", "description", "date", "tags"}

// WriteCSV writes transactions in CSV import format. Tags are joined with '|'.
func WriteCSV(w io.Writer, transactions []models.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	for _, tx := range transactions {
		record := []string{
			tx.ID,
			tx.Type.String(),
			tx.Amount.StringFixed(2),
			tx.Category,
			tx.Description,
			tx.Date.Format(models.DateLayout),
			strings.Join(tx.Tags, "|"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
