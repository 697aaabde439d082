package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for every record date
const DateLayout = "2006-01-02"

// MonthLayout is the layout of month aggregation keys
const MonthLayout = "2006-01"

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	default:
		return false
	}
}

// BudgetPeriod is informational only; analytics never windows by it
type BudgetPeriod string

const (
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

// IsValid checks if the budget period is valid
func (p BudgetPeriod) IsValid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	default:
		return false
	}
}

// Transaction is an immutable income, expense or transfer record. The sign
// of the money movement is carried by Type; Amount is always a magnitude.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	Tags        []string        `json:"tags,omitempty"`
}

// IsExpense returns true for expense transactions
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsIncome returns true for income transactions
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

// MonthKey returns the YYYY-MM key of the transaction date
func (t Transaction) MonthKey() string {
	return t.Date.Format(MonthLayout)
}

// Validate performs shape validation on the Transaction. The id is not
// required here; ingestion assigns one when it is missing.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return errors.ValidationError(errors.CodeInvalidType, "type", t.Type, nil)
	}
	if t.Amount.IsNegative() {
		return errors.ValidationError(errors.CodeInvalidAmount, "amount", t.Amount.String(), nil)
	}
	if t.Date.IsZero() {
		return errors.ValidationError(errors.CodeInvalidDate, "date", "", nil)
	}
	return nil
}

// String returns a string representation of the Transaction
func (t Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Type: %s, Amount: %s, Category: %s, Date: %s}",
		t.ID, t.Type, t.Amount.String(), t.Category, t.Date.Format(DateLayout))
}

// MarshalJSON writes the amount as a decimal string and the date as YYYY-MM-DD
func (t Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		Alias
	}{
		Amount: t.Amount.String(),
		Date:   t.Date.Format(DateLayout),
		Alias:  Alias(t),
	})
}

// UnmarshalJSON accepts the amount as a JSON number or string
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Amount json.RawMessage `json:"amount"`
		Date   string          `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	amount, err := ParseAmount(aux.Amount)
	if err != nil {
		return err
	}
	t.Amount = amount

	t.Date, err = ParseDate(aux.Date)
	if err != nil {
		return err
	}

	return nil
}

// Budget allocates a spending ceiling to a category
type Budget struct {
	ID       string          `json:"id,omitempty"`
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Period   BudgetPeriod    `json:"period,omitempty"`
}

// Validate performs shape validation on the Budget
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return errors.ValidationError(errors.CodeMissingField, "category", b.Category, nil)
	}
	if !b.Limit.IsPositive() {
		return errors.ValidationError(errors.CodeInvalidAmount, "limit", b.Limit.String(), nil).
			WithSuggestion("budget limits must be greater than zero")
	}
	if b.Period != "" && !b.Period.IsValid() {
		return errors.ValidationError(errors.CodeInvalidType, "period", b.Period, nil)
	}
	return nil
}

// MarshalJSON writes the limit as a decimal string
func (b Budget) MarshalJSON() ([]byte, error) {
	type Alias Budget
	return json.Marshal(&struct {
		Limit string `json:"limit"`
		Alias
	}{
		Limit: b.Limit.String(),
		Alias: Alias(b),
	})
}

// UnmarshalJSON accepts "limit" or its alias "amount"
func (b *Budget) UnmarshalJSON(data []byte) error {
	type Alias Budget
	aux := &struct {
		Limit  json.RawMessage `json:"limit"`
		Amount json.RawMessage `json:"amount"`
		*Alias
	}{
		Alias: (*Alias)(b),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	raw := aux.Limit
	if len(raw) == 0 {
		raw = aux.Amount
	}
	limit, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	b.Limit = limit
	return nil
}

// Goal is a savings target with a deadline. CurrentAmount may exceed
// TargetAmount and the deadline may already have passed.
type Goal struct {
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title"`
	Category      string          `json:"category,omitempty"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      time.Time       `json:"deadline"`
}

// Validate performs shape validation on the Goal
func (g Goal) Validate() error {
	if g.TargetAmount.IsNegative() {
		return errors.ValidationError(errors.CodeInvalidAmount, "targetAmount", g.TargetAmount.String(), nil)
	}
	if g.CurrentAmount.IsNegative() {
		return errors.ValidationError(errors.CodeInvalidAmount, "currentAmount", g.CurrentAmount.String(), nil)
	}
	if g.Deadline.IsZero() {
		return errors.ValidationError(errors.CodeInvalidDate, "deadline", "", nil)
	}
	return nil
}

// MarshalJSON writes amounts as decimal strings and the deadline as YYYY-MM-DD
func (g Goal) MarshalJSON() ([]byte, error) {
	type Alias Goal
	return json.Marshal(&struct {
		TargetAmount  string `json:"targetAmount"`
		CurrentAmount string `json:"currentAmount"`
		Deadline      string `json:"deadline"`
		Alias
	}{
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		Deadline:      g.Deadline.Format(DateLayout),
		Alias:         Alias(g),
	})
}

// UnmarshalJSON parses amounts and the deadline
func (g *Goal) UnmarshalJSON(data []byte) error {
	type Alias Goal
	aux := &struct {
		TargetAmount  json.RawMessage `json:"targetAmount"`
		CurrentAmount json.RawMessage `json:"currentAmount"`
		Deadline      string          `json:"deadline"`
		*Alias
	}{
		Alias: (*Alias)(g),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var err error
	if g.TargetAmount, err = ParseAmount(aux.TargetAmount); err != nil {
		return err
	}
	if g.CurrentAmount, err = ParseAmount(aux.CurrentAmount); err != nil {
		return err
	}
	if g.Deadline, err = ParseDate(aux.Deadline); err != nil {
		return err
	}
	return nil
}

// Dataset is an explicitly owned snapshot of a user's financial records
type Dataset struct {
	Transactions   []Transaction   `json:"transactions"`
	Budgets        []Budget        `json:"budgets"`
	Goals          []Goal          `json:"goals"`
	DeclaredIncome decimal.Decimal `json:"declaredIncome"`
}

// Validate validates every record of the dataset and reports all problems together
func (d *Dataset) Validate() error {
	collector := errors.NewCollector(0)

	for i, tx := range d.Transactions {
		if err := tx.Validate(); err != nil {
			collector.Add(indexed(err, "transactions", i))
		}
	}
	for i, b := range d.Budgets {
		if err := b.Validate(); err != nil {
			collector.Add(indexed(err, "budgets", i))
		}
	}
	for i, g := range d.Goals {
		if err := g.Validate(); err != nil {
			collector.Add(indexed(err, "goals", i))
		}
	}
	if d.DeclaredIncome.IsNegative() {
		collector.Add(errors.ValidationError(errors.CodeInvalidAmount, "declaredIncome", d.DeclaredIncome.String(), nil))
	}

	return collector.Err()
}

func indexed(err error, collection string, i int) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithContext("record", fmt.Sprintf("%s[%d]", collection, i))
	}
	return fmt.Errorf("%s[%d]: %w", collection, i, err)
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return &Dataset{}
	}

	out := &Dataset{
		Transactions:   make([]Transaction, len(d.Transactions)),
		Budgets:        make([]Budget, len(d.Budgets)),
		Goals:          make([]Goal, len(d.Goals)),
		DeclaredIncome: d.DeclaredIncome,
	}
	copy(out.Budgets, d.Budgets)
	copy(out.Goals, d.Goals)
	for i, tx := range d.Transactions {
		if tx.Tags != nil {
			tx.Tags = append([]string(nil), tx.Tags...)
		}
		out.Transactions[i] = tx
	}
	return out
}

// FilterByDateRange returns the transactions dated within [from, to]. A nil
// bound is open. The input slice is not modified.
func FilterByDateRange(transactions []Transaction, from, to *time.Time) []Transaction {
	out := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if from != nil && tx.Date.Before(*from) {
			continue
		}
		if to != nil && tx.Date.After(*to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// ParseAmount parses a JSON number or string into a decimal amount
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	s = strings.Trim(s, `"`)
	return ParseDecimalFromString(s)
}

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.ValidationError(errors.CodeMissingField, "amount", s, nil)
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.ValidationError(errors.CodeInvalidAmount, "amount", s, err)
	}

	return d, nil
}

// ParseDate parses a YYYY-MM-DD date, also accepting RFC 3339 timestamps
// whose calendar date is kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.ValidationError(errors.CodeMissingField, "date", s, nil)
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", s, nil)
}

// ParseTransactionType parses and validates a transaction type from string
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", errors.ValidationError(errors.CodeInvalidType, "type", s, nil).
			WithSuggestion("must be income, expense or transfer")
	}
	return t, nil
}

// MustDate parses a YYYY-MM-DD date and panics on failure. Intended for
// fixtures and tests.
func MustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
