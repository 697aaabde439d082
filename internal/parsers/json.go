package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"finance-insights/internal/models"
	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DecodeOptions controls JSON dataset decoding
type DecodeOptions struct {
	// NewID assigns ids to transactions that have none. Nil leaves them empty.
	NewID IDGenerator
	// MaxErrors bounds the errors reported; non-positive keeps all
	MaxErrors int
}

// DecodeDataset reads a JSON dataset from r. The document is either an
// object with transactions, budgets, goals and declaredIncome keys, or a
// bare array of transactions.
//
// Fields are coerced leniently: amounts may be numbers or strings ("$1,200"),
// ids may be numbers, tags may be a list or a comma separated string. Every
// record that still cannot be interpreted is reported, labelled with its
// position, in a single combined error.
func DecodeDataset(r io.Reader, source string, opts DecodeOptions) (*models.Dataset, error) {
	var raw interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return &models.Dataset{}, nil
		}
		return nil, errors.ParseError(errors.CodeInvalidFormat, source, 0, "document", "", err).
			WithSuggestion("the dataset must be valid JSON")
	}

	d := &datasetDecoder{
		source:    source,
		newID:     opts.NewID,
		collector: errors.NewCollector(opts.MaxErrors),
	}

	ds := &models.Dataset{
		Transactions: []models.Transaction{},
		Budgets:      []models.Budget{},
		Goals:        []models.Goal{},
	}

	switch doc := raw.(type) {
	case []interface{}:
		ds.Transactions = d.transactions(doc)
	case map[string]interface{}:
		ds.Transactions = d.transactions(d.list(doc, "transactions"))
		ds.Budgets = d.budgets(d.list(doc, "budgets"))
		ds.Goals = d.goals(d.list(doc, "goals"))
		if v, ok := lookup(doc, "declaredIncome", "monthlyIncome", "income"); ok {
			ds.DeclaredIncome = d.amount("declaredIncome", v)
		}
	default:
		return nil, errors.ParseError(errors.CodeInvalidFormat, source, 0, "document", fmt.Sprintf("%T", raw), nil).
			WithSuggestion("the dataset must be a JSON object or an array of transactions")
	}

	if err := d.collector.Err(); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

type datasetDecoder struct {
	source    string
	newID     IDGenerator
	collector *errors.Collector
}

func (d *datasetDecoder) fail(field string, value interface{}, err error) {
	d.collector.Add(errors.ValidationError(errors.CodeInvalidData, field, value, err).
		WithContext("source", d.source))
}

func (d *datasetDecoder) list(doc map[string]interface{}, key string) []interface{} {
	v, ok := doc[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		d.fail(key, fmt.Sprintf("%T", v), fmt.Errorf("expected a list"))
		return nil
	}
	return items
}

func (d *datasetDecoder) record(field string, item interface{}) (map[string]interface{}, bool) {
	m, err := cast.ToStringMapE(item)
	if err != nil {
		d.fail(field, fmt.Sprintf("%T", item), err)
		return nil, false
	}
	return m, true
}

func (d *datasetDecoder) transactions(items []interface{}) []models.Transaction {
	out := make([]models.Transaction, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("transactions[%d]", i)
		m, ok := d.record(prefix, item)
		if !ok {
			continue
		}

		before := d.collector.Count()
		tx := models.Transaction{
			ID:          d.str(m, "id"),
			Category:    d.str(m, "category"),
			Description: d.str(m, "description"),
			Tags:        d.tags(prefix+".tags", m["tags"]),
		}
		tx.Type = d.txType(prefix+".type", m["type"])
		tx.Amount = d.amount(prefix+".amount", m["amount"])
		tx.Date = d.date(prefix+".date", m["date"])
		if d.collector.Count() > before {
			continue
		}

		if tx.ID == "" && d.newID != nil {
			tx.ID = d.newID()
		}
		out = append(out, tx)
	}
	return out
}

func (d *datasetDecoder) budgets(items []interface{}) []models.Budget {
	out := make([]models.Budget, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("budgets[%d]", i)
		m, ok := d.record(prefix, item)
		if !ok {
			continue
		}

		limit, _ := lookup(m, "limit", "amount", "allocated")
		b := models.Budget{
			ID:       d.str(m, "id"),
			Category: d.str(m, "category"),
			Limit:    d.amount(prefix+".limit", limit),
			Period:   models.BudgetPeriod(strings.ToLower(d.str(m, "period"))),
		}
		out = append(out, b)
	}
	return out
}

func (d *datasetDecoder) goals(items []interface{}) []models.Goal {
	out := make([]models.Goal, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("goals[%d]", i)
		m, ok := d.record(prefix, item)
		if !ok {
			continue
		}

		title, _ := lookup(m, "title", "name")
		out = append(out, models.Goal{
			ID:            d.str(m, "id"),
			Title:         cast.ToString(title),
			Category:      d.str(m, "category"),
			TargetAmount:  d.amount(prefix+".targetAmount", m["targetAmount"]),
			CurrentAmount: d.amount(prefix+".currentAmount", m["currentAmount"]),
			Deadline:      d.date(prefix+".deadline", m["deadline"]),
		})
	}
	return out
}

func (d *datasetDecoder) str(m map[string]interface{}, key string) string {
	return strings.TrimSpace(cast.ToString(m[key]))
}

func (d *datasetDecoder) amount(field string, v interface{}) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		d.fail(field, fmt.Sprintf("%v", v), err)
		return decimal.Zero
	}
	amount, err := models.ParseDecimalFromString(s)
	if err != nil {
		d.collector.Add(errors.ValidationError(errors.CodeInvalidAmount, field, s, err).WithContext("source", d.source))
		return decimal.Zero
	}
	return amount
}

func (d *datasetDecoder) txType(field string, v interface{}) models.TransactionType {
	t, err := models.ParseTransactionType(cast.ToString(v))
	if err != nil {
		d.collector.Add(errors.ValidationError(errors.CodeInvalidType, field, v, err).WithContext("source", d.source))
		return ""
	}
	return t
}

func (d *datasetDecoder) date(field string, v interface{}) time.Time {
	t, err := models.ParseDate(cast.ToString(v))
	if err != nil {
		d.collector.Add(errors.ValidationError(errors.CodeInvalidDate, field, v, err).WithContext("source", d.source))
		return time.Time{}
	}
	return t
}

func (d *datasetDecoder) tags(field string, v interface{}) []string {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return splitTags(s, ",")
	}
	tags, err := cast.ToStringSliceE(v)
	if err != nil {
		d.fail(field, fmt.Sprintf("%T", v), err)
		return nil
	}
	return tags
}

func lookup(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
