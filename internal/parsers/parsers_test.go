package parsers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"finance-insights/internal/models"
	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
)

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func TestDefaultParseConfig(t *testing.T) {
	config := DefaultParseConfig()

	if !config.HasHeader {
		t.Error("Expected HasHeader to be true")
	}
	if config.Delimiter != ',' {
		t.Errorf("Expected delimiter to be ',', got %q", config.Delimiter)
	}
	if !config.SkipEmptyRows {
		t.Error("Expected SkipEmptyRows to be true")
	}
}

func TestCSVConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *CSVConfig)
		wantError bool
	}{
		{"valid default", func(c *CSVConfig) {}, false},
		{"empty amount column", func(c *CSVConfig) { c.AmountColumn = "" }, true},
		{"empty date column", func(c *CSVConfig) { c.DateColumn = "" }, true},
		{"no type column without signed amounts", func(c *CSVConfig) { c.TypeColumn = "" }, true},
		{"no type column with signed amounts", func(c *CSVConfig) { c.TypeColumn = ""; c.SignedAmounts = true }, false},
		{"no date formats", func(c *CSVConfig) { c.DateFormats = nil }, true},
		{"quote delimiter", func(c *CSVConfig) { c.Delimiter = '"' }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCSVConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestGetCSVConfig(t *testing.T) {
	if GetCSVConfig("bank") == nil || !GetCSVConfig("BANK").SignedAmounts {
		t.Error("expected bank layout with signed amounts")
	}
	if GetCSVConfig("") == nil {
		t.Error("empty name should select the standard layout")
	}
	if GetCSVConfig("unknown") != nil {
		t.Error("unknown layout should return nil")
	}
	if len(ListCSVConfigs()) != 2 {
		t.Errorf("expected 2 layouts, got %d", len(ListCSVConfigs()))
	}
}

func TestNewCSVParserRejectsInvalidConfig(t *testing.T) {
	config := DefaultCSVConfig()
	config.AmountColumn = ""

	_, err := NewCSVParser(config)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if !errors.IsCategory(err, errors.CategoryConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestCSVParser_Parse(t *testing.T) {
	content := `id,type,amount,category,description,date,tags
1,expense,45.50,Food & Dining,Dinner,2025-01-15,dinner|friends
2,INCOME,"$3,000.00",Salary,Paycheck,2025-01-01,
,expense,12,Transportation,Uber,2025-01-20T18:30:00Z,
`
	parser, err := NewCSVParser(nil, WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txs, stats, err := parser.Parse(context.Background(), strings.NewReader(content), "tx.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if stats.RecordsValid != 3 || stats.HasErrors() {
		t.Errorf("unexpected stats: %s", stats)
	}
	if stats.IDsAssigned != 1 || txs[2].ID != "gen-1" {
		t.Errorf("expected generated id for row without one, got %q", txs[2].ID)
	}

	if !txs[1].Amount.Equal(decimal.NewFromInt(3000)) || txs[1].Type != models.TransactionTypeIncome {
		t.Errorf("unexpected income row %s", txs[1])
	}
	if len(txs[0].Tags) != 2 || txs[0].Tags[1] != "friends" {
		t.Errorf("unexpected tags %v", txs[0].Tags)
	}
	if txs[2].Date.Format(models.DateLayout) != "2025-01-20" {
		t.Errorf("expected timestamp truncated to date, got %s", txs[2].Date)
	}

	income, expense := Summarize(txs)
	if !income.Equal(decimal.NewFromInt(3000)) || !expense.Equal(decimal.RequireFromString("57.5")) {
		t.Errorf("unexpected totals income=%s expense=%s", income, expense)
	}
}

func TestCSVParser_HeaderAliases(t *testing.T) {
	content := `transaction_id,type,value,memo,posted
A1,expense,20.00,Netflix,2025-02-01
`
	parser, err := NewCSVParser(DefaultCSVConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txs, _, err := parser.Parse(context.Background(), strings.NewReader(content), "alias.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "A1" || txs[0].Description != "Netflix" {
		t.Errorf("aliases not resolved: %+v", txs)
	}
}

func TestCSVParser_SignedAmounts(t *testing.T) {
	content := `reference,amount,description,posting_date
R1,-45.00,Grocery store,01/15/2025
R2,2500.00,Payroll,01/31/2025
`
	parser, err := NewCSVParser(BankExportConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txs, stats, err := parser.Parse(context.Background(), strings.NewReader(content), "bank.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.HasErrors() {
		t.Fatalf("unexpected errors: %v", stats.Err())
	}

	if txs[0].Type != models.TransactionTypeExpense || !txs[0].Amount.Equal(decimal.NewFromInt(45)) {
		t.Errorf("negative amount should be a positive expense, got %s", txs[0])
	}
	if txs[1].Type != models.TransactionTypeIncome {
		t.Errorf("positive amount should be income, got %s", txs[1].Type)
	}
}

func TestCSVParser_Malformed(t *testing.T) {
	content := `id,type,amount,date
1,expense,abc,2025-01-01
2,debit,10,2025-01-01
3,expense,-5,2025-01-01
4,expense,10,01-01-2025
5,expense,10,2025-01-02
`
	parser, err := NewCSVParser(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txs, stats, err := parser.Parse(context.Background(), strings.NewReader(content), "bad.csv")
	if err != nil {
		t.Fatalf("record errors should not fail the parse: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "5" {
		t.Errorf("expected only the valid row, got %v", txs)
	}
	if stats.ErrorCount() != 4 {
		t.Errorf("expected 4 errors, got %d", stats.ErrorCount())
	}

	summary := stats.Summary()
	if !summary.HasCategory(errors.CategoryParse) {
		t.Errorf("expected parse errors, got %v", summary)
	}
	if summary.Errors[0].Context["line"] != 2 {
		t.Errorf("expected first error on line 2, got %v", summary.Errors[0].Context["line"])
	}
}

func TestCSVParser_MissingColumns(t *testing.T) {
	parser, err := NewCSVParser(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = parser.Parse(context.Background(), strings.NewReader("id,description\n1,x\n"), "cols.csv")
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.CodeMissingColumn {
		t.Fatalf("expected missing column error, got %v", err)
	}
	if !strings.Contains(appErr.Message, "amount, date, type") {
		t.Errorf("expected sorted missing columns in message, got %s", appErr.Message)
	}
}

func TestCSVParser_EmptyInput(t *testing.T) {
	parser, _ := NewCSVParser(nil)

	_, _, err := parser.Parse(context.Background(), strings.NewReader(""), "empty.csv")
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("expected validation error for empty input, got %v", err)
	}
}

func TestCSVParser_InvalidEncoding(t *testing.T) {
	parser, _ := NewCSVParser(nil)

	content := "id,type,amount,date\n1,expense,10,2025-01-01\n\xff\xfe,expense,1,2025-01-01\n"
	_, _, err := parser.Parse(context.Background(), strings.NewReader(content), "latin1.csv")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Context["line"] != 3 {
		t.Errorf("expected encoding error on line 3, got %v", err)
	}
}

func TestCSVParser_Cancelled(t *testing.T) {
	parser, _ := NewCSVParser(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := parser.Parse(ctx, strings.NewReader("id,type,amount,date\n1,expense,1,2025-01-01\n"), "c.csv")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.CodeCancelled {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestParseContext_ColumnIndex(t *testing.T) {
	parseCtx := NewParseContext(context.Background(), "x")
	parseCtx.HeaderMap = map[string]int{"amount": 0, "date": 2}

	tests := []struct {
		candidates []string
		expected   int
	}{
		{[]string{"amount"}, 0},
		{[]string{"AMOUNT"}, 0},
		{[]string{"posted", "date"}, 2},
		{[]string{"missing"}, -1},
	}

	for _, tt := range tests {
		if got := parseCtx.ColumnIndex(tt.candidates...); got != tt.expected {
			t.Errorf("ColumnIndex(%v) = %d, want %d", tt.candidates, got, tt.expected)
		}
	}
}

func TestDecodeDataset(t *testing.T) {
	doc := `{
  "transactions": [
    {"id": 1, "type": "expense", "amount": 45.5, "category": "Food & Dining", "date": "2025-01-15", "tags": ["dinner"]},
    {"type": "Income", "amount": "$3,000", "category": "Salary", "date": "2025-01-01T09:00:00Z", "tags": "salary, monthly"}
  ],
  "budgets": [{"category": "Food & Dining", "amount": 400, "period": "Monthly"}],
  "goals": [{"name": "Emergency Fund", "targetAmount": "10000", "currentAmount": 2500, "deadline": "2025-12-31"}],
  "monthlyIncome": 5000
}`

	ds, err := DecodeDataset(strings.NewReader(doc), "data.json", DecodeOptions{NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ds.Transactions) != 2 || ds.Transactions[0].ID != "1" || ds.Transactions[1].ID != "gen-1" {
		t.Fatalf("unexpected transactions %+v", ds.Transactions)
	}
	if !ds.Transactions[1].Amount.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected coerced amount 3000, got %s", ds.Transactions[1].Amount)
	}
	if len(ds.Transactions[1].Tags) != 2 || ds.Transactions[1].Tags[1] != "monthly" {
		t.Errorf("expected split tags, got %v", ds.Transactions[1].Tags)
	}
	if ds.Budgets[0].Period != models.PeriodMonthly || !ds.Budgets[0].Limit.Equal(decimal.NewFromInt(400)) {
		t.Errorf("unexpected budget %+v", ds.Budgets[0])
	}
	if ds.Goals[0].Title != "Emergency Fund" {
		t.Errorf("expected goal name alias, got %q", ds.Goals[0].Title)
	}
	if !ds.DeclaredIncome.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected declared income 5000, got %s", ds.DeclaredIncome)
	}
}

func TestDecodeDatasetBareArray(t *testing.T) {
	ds, err := DecodeDataset(strings.NewReader(`[{"id":"a","type":"expense","amount":1,"date":"2025-01-01"}]`), "arr.json", DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Transactions) != 1 || len(ds.Budgets) != 0 {
		t.Errorf("unexpected dataset %+v", ds)
	}
}

func TestDecodeDatasetReportsEveryProblem(t *testing.T) {
	doc := `{"transactions": [
    {"type": "expense", "amount": "lots", "date": "2025-01-01"},
    {"type": "refund", "amount": 1, "date": "yesterday"},
    {"type": "expense", "amount": -3, "date": "2025-01-01"}
  ],
  "budgets": [{"category": "Food"}]}`

	_, err := DecodeDataset(strings.NewReader(doc), "bad.json", DecodeOptions{})
	if err == nil {
		t.Fatal("expected errors")
	}

	collector := errors.NewCollector(0)
	collector.Add(err)
	summary := collector.Summary()
	if summary.Total != 3 {
		t.Errorf("expected 3 decode errors, got %d: %v", summary.Total, err)
	}
	if !summary.HasCode(errors.CodeInvalidAmount) || !summary.HasCode(errors.CodeInvalidType) || !summary.HasCode(errors.CodeInvalidDate) {
		t.Errorf("unexpected codes %v", summary.ByCode)
	}
}

func TestDecodeDatasetInvalidJSON(t *testing.T) {
	_, err := DecodeDataset(strings.NewReader(`{"transactions": [`), "broken.json", DecodeOptions{})
	if !errors.IsCategory(err, errors.CategoryParse) {
		t.Errorf("expected parse error, got %v", err)
	}

	_, err = DecodeDataset(strings.NewReader(`"hello"`), "scalar.json", DecodeOptions{})
	if !errors.IsCategory(err, errors.CategoryParse) {
		t.Errorf("expected parse error for scalar document, got %v", err)
	}
}

func TestParseFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	header := "id,type,amount,date\n"
	for i := 1; i <= 5; i++ {
		content := header + fmt.Sprintf("%d,expense,%d,2025-01-0%d\n", i, i*10, i)
		if err := afero.WriteFile(fs, fmt.Sprintf("/in/%d.csv", i), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	paths := []string{"/in/1.csv", "/in/2.csv", "/in/missing.csv", "/in/3.csv", "/in/4.csv", "/in/5.csv"}
	results, err := ParseFiles(context.Background(), fs, paths, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d out of order: %s", i, r.Path)
		}
	}

	missing := results[2]
	appErr, ok := errors.AsAppError(missing.Err)
	if !ok || appErr.Code != errors.CodeFileNotFound {
		t.Errorf("expected file not found for missing file, got %v", missing.Err)
	}
	if len(results[5].Transactions) != 1 || results[5].Transactions[0].ID != "5" {
		t.Errorf("unexpected transactions for last file %+v", results[5].Transactions)
	}
}
