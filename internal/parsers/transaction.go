package parsers

import (
	"context"
	"io"
	"strings"
	"time"

	"finance-insights/internal/models"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxErrors bounds the record errors kept per parse
const DefaultMaxErrors = 100

// IDGenerator returns a new transaction id
type IDGenerator func() string

// NewUUID returns a random UUID string
func NewUUID() string {
	return uuid.NewString()
}

// CSVParser parses transaction CSV exports
type CSVParser struct {
	*BaseParser
	config    *CSVConfig
	newID     IDGenerator
	maxErrors int
	logger    logger.Logger
}

// CSVOption configures a CSVParser
type CSVOption func(*CSVParser)

// WithIDGenerator replaces the UUID generator used for rows without an id
func WithIDGenerator(gen IDGenerator) CSVOption {
	return func(p *CSVParser) {
		p.newID = gen
	}
}

// WithMaxErrors bounds the number of record errors kept
func WithMaxErrors(n int) CSVOption {
	return func(p *CSVParser) {
		p.maxErrors = n
	}
}

// NewCSVParser creates a new CSVParser with the given configuration
func NewCSVParser(config *CSVConfig, opts ...CSVOption) (*CSVParser, error) {
	if config == nil {
		config = DefaultCSVConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv_config", config.Name, err).
			WithSuggestion("check the CSV column configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	p := &CSVParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		newID:      NewUUID,
		maxErrors:  DefaultMaxErrors,
		logger:     logger.GetGlobalLogger().WithComponent("csv_parser"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger.WithFields(logger.Fields{
		"layout":     config.Name,
		"has_header": config.HasHeader,
		"delimiter":  string(config.Delimiter),
	}).Debug("Created CSV parser")

	return p, nil
}

// Parse reads every record from r. Rows that fail to parse or validate are
// skipped and recorded in the returned stats; the error return is reserved
// for problems that stop the whole parse (unreadable input, missing
// columns, cancellation).
func (p *CSVParser) Parse(ctx context.Context, r io.Reader, source string) ([]models.Transaction, *ParseStats, error) {
	p.logger.WithField("source", source).Info("Starting transaction parsing")

	stats := NewParseStats(source, p.maxErrors)

	reader, err := p.NewReader(r, source)
	if err != nil {
		return nil, stats, err
	}

	parseCtx := NewParseContext(ctx, source)
	if err := p.ReadHeaders(reader, parseCtx, p.defaultHeaders(), p.requiredColumns()); err != nil {
		return nil, stats, err
	}

	var transactions []models.Transaction
	for {
		record, err := p.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if errors.IsCategory(err, errors.CategoryInternal) {
				return transactions, stats, err
			}
			stats.AddError(err)
			continue
		}

		stats.RecordsParsed++

		tx, err := p.parseRecord(record, parseCtx)
		if err != nil {
			stats.AddError(err)
			continue
		}

		if tx.ID == "" {
			tx.ID = p.newID()
			stats.IDsAssigned++
		}

		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	p.logger.WithFields(logger.Fields{
		"source":         source,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    stats.ErrorCount(),
	}).Info("Transaction parsing completed")

	return transactions, stats, nil
}

func (p *CSVParser) requiredColumns() map[string][]string {
	required := map[string][]string{
		ColumnAmount: p.config.ColumnCandidates(ColumnAmount),
		ColumnDate:   p.config.ColumnCandidates(ColumnDate),
	}
	if !p.config.SignedAmounts {
		required[ColumnType] = p.config.ColumnCandidates(ColumnType)
	}
	return required
}

func (p *CSVParser) defaultHeaders() []string {
	return []string{
		p.config.IDColumn,
		p.config.TypeColumn,
		p.config.AmountColumn,
		p.config.CategoryColumn,
		p.config.DescriptionColumn,
		p.config.DateColumn,
		p.config.TagsColumn,
	}
}

func (p *CSVParser) field(record []string, parseCtx *ParseContext, column string) string {
	return p.FieldValue(record, parseCtx, p.config.ColumnCandidates(column)...)
}

// parseRecord builds and validates a transaction from one CSV record
func (p *CSVParser) parseRecord(record []string, parseCtx *ParseContext) (models.Transaction, error) {
	line := parseCtx.LineNumber
	source := parseCtx.Source

	amountStr := p.field(record, parseCtx, ColumnAmount)
	typeStr := p.field(record, parseCtx, ColumnType)
	dateStr := p.field(record, parseCtx, ColumnDate)

	amount, err := models.ParseDecimalFromString(amountStr)
	if err != nil {
		return models.Transaction{}, errors.ParseError(errors.CodeInvalidData, source, line, ColumnAmount, amountStr, err).
			WithSuggestion("use decimal numbers like '123.45'")
	}

	var txType models.TransactionType
	switch {
	case typeStr != "":
		txType, err = models.ParseTransactionType(typeStr)
		if err != nil {
			return models.Transaction{}, errors.ParseError(errors.CodeInvalidData, source, line, ColumnType, typeStr, err).
				WithSuggestion("use income, expense or transfer")
		}
		if p.config.SignedAmounts {
			amount = amount.Abs()
		}
	case p.config.SignedAmounts:
		txType = models.TransactionTypeIncome
		if amount.IsNegative() {
			txType = models.TransactionTypeExpense
		}
		amount = amount.Abs()
	default:
		return models.Transaction{}, errors.ParseError(errors.CodeInvalidData, source, line, ColumnType, "", nil).
			WithSuggestion("every row needs a transaction type")
	}

	date, err := p.parseDate(dateStr)
	if err != nil {
		return models.Transaction{}, errors.ParseError(errors.CodeInvalidData, source, line, ColumnDate, dateStr, err).
			WithSuggestion("use one of the date formats: " + strings.Join(p.config.DateFormats, ", "))
	}

	tx := models.Transaction{
		ID:          p.field(record, parseCtx, ColumnID),
		Type:        txType,
		Amount:      amount,
		Category:    p.field(record, parseCtx, ColumnCategory),
		Description: p.field(record, parseCtx, ColumnDescription),
		Date:        date,
		Tags:        splitTags(p.field(record, parseCtx, ColumnTags), p.config.TagSeparator),
	}

	if err := tx.Validate(); err != nil {
		return models.Transaction{}, errors.ParseError(errors.CodeInvalidData, source, line, "transaction", tx.ID, err)
	}

	return tx, nil
}

// parseDate tries each configured layout in order and keeps the calendar date
func (p *CSVParser) parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.ValidationError(errors.CodeMissingField, ColumnDate, s, nil)
	}
	for _, layout := range p.config.DateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, ColumnDate, s, nil)
}

func splitTags(s, sep string) []string {
	if s == "" {
		return nil
	}
	if sep == "" {
		sep = "|"
	}

	var tags []string
	for _, tag := range strings.Split(s, sep) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Summarize returns total income and expense over parsed transactions
func Summarize(txs []models.Transaction) (income, expense decimal.Decimal) {
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}
