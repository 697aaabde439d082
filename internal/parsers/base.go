// Package parsers is the ingestion boundary for financial records.
//
// It turns loosely shaped external input into validated models:
//   - CSVParser: transaction exports with configurable columns, header
//     aliases, several date layouts and optionally signed amounts
//   - DecodeDataset: JSON datasets whose amounts may be numbers or strings,
//     ids may be numbers and tags may be a list or a delimited string
//   - ParseFiles: several CSV files parsed concurrently
//
// Every malformed record is reported with its source and line, and parsing
// continues so that all problems surface in one pass. Transactions without
// an id are given a generated one.
//
// Example usage:
//
//	parser, err := NewCSVParser(DefaultCSVConfig())
//	transactions, stats, err := parser.Parse(ctx, file, "export.csv")
package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"
)

// ParseConfig holds reader-level CSV options
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	MaxFieldSize     int
	ValidateEncoding bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		MaxFieldSize:     64 * 1024,
		ValidateEncoding: true,
	}
}

// BaseParser provides common CSV reading functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	return &BaseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("csv_reader"),
	}
}

// ParseContext holds state during one parsing operation
type ParseContext struct {
	Source     string
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
	ctx        context.Context
}

// NewParseContext creates a new parsing context
func NewParseContext(ctx context.Context, source string) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{
		Source:    source,
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

// Err returns a cancellation error once the context is done
func (pc *ParseContext) Err() error {
	if err := pc.ctx.Err(); err != nil {
		return errors.InternalError(errors.CodeCancelled, "parsing "+pc.Source, err)
	}
	return nil
}

// ColumnIndex returns the index of the first matching candidate header,
// compared case-insensitively, or -1.
func (pc *ParseContext) ColumnIndex(candidates ...string) int {
	for _, name := range candidates {
		if index, ok := pc.HeaderMap[strings.ToLower(name)]; ok {
			return index
		}
	}
	return -1
}

// NewReader validates the input encoding and returns a configured csv.Reader
func (bp *BaseParser) NewReader(r io.Reader, source string) (*csv.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, source, err)
	}

	if bp.config.ValidateEncoding {
		if line := invalidUTF8Line(data); line > 0 {
			return nil, errors.ParseError(errors.CodeInvalidFormat, source, line, "encoding", "",
				fmt.Errorf("invalid UTF-8 encoding detected")).
				WithSuggestion("save the file in UTF-8 encoding and try again")
		}
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = bp.config.Delimiter
	reader.Comment = bp.config.Comment
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	return reader, nil
}

func invalidUTF8Line(data []byte) int {
	for i, line := range bytes.Split(data, []byte("\n")) {
		if !utf8.Valid(line) {
			return i + 1
		}
	}
	return 0
}

// ReadHeaders reads the header row and checks that every required column
// is present under one of its candidate names.
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, defaults []string, required map[string][]string) error {
	if !bp.config.HasHeader {
		parseCtx.Headers = append([]string(nil), defaults...)
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ValidationError(errors.CodeMissingField, "file_content", "empty", nil).
				WithSuggestion("ensure the file contains a header row and data rows")
		}
		return errors.ParseError(errors.CodeInvalidFormat, parseCtx.Source, 1, "headers", "", err).
			WithSuggestion("check the file format and ensure it's a valid CSV")
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	for i, h := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(h)
	}
	bp.buildHeaderMap(parseCtx)

	var missing []string
	for name, candidates := range required {
		if parseCtx.ColumnIndex(candidates...) == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		bp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": parseCtx.Headers,
		}).Error("Required headers are missing")

		return errors.ParseError(errors.CodeMissingColumn, parseCtx.Source, parseCtx.LineNumber,
			strings.Join(missing, ", "), "", nil).
			WithSuggestion(fmt.Sprintf("available headers: %s", strings.Join(parseCtx.Headers, ", ")))
	}

	return nil
}

func (bp *BaseParser) buildHeaderMap(parseCtx *ParseContext) {
	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		key := strings.ToLower(header)
		if _, dup := parseCtx.HeaderMap[key]; !dup {
			parseCtx.HeaderMap[key] = i
		}
	}
}

// ReadRecord returns the next non-empty record, or io.EOF
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		if err := parseCtx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			parseCtx.LineNumber++
			return nil, errors.ParseError(errors.CodeInvalidFormat, parseCtx.Source, parseCtx.LineNumber, "record", "", err)
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		if bp.config.MaxFieldSize > 0 {
			for i, field := range record {
				if len(field) > bp.config.MaxFieldSize {
					return nil, errors.ParseError(errors.CodeInvalidData, parseCtx.Source, parseCtx.LineNumber,
						fmt.Sprintf("field_%d", i), truncate(field, 32), fmt.Errorf("field size limit exceeded")).
						WithSuggestion(fmt.Sprintf("reduce field size to under %d bytes", bp.config.MaxFieldSize))
				}
			}
		}

		return record, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// FieldValue returns the trimmed value of the first candidate column, or
// "" when the column is absent from the header or the record is short.
func (bp *BaseParser) FieldValue(record []string, parseCtx *ParseContext, candidates ...string) string {
	index := parseCtx.ColumnIndex(candidates...)
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	Source        string `json:"source"`
	TotalLines    int    `json:"total_lines"`
	RecordsParsed int    `json:"records_parsed"`
	RecordsValid  int    `json:"records_valid"`
	IDsAssigned   int    `json:"ids_assigned"`
	collector     *errors.Collector
}

// NewParseStats creates a new ParseStats instance keeping at most maxErrors errors
func NewParseStats(source string, maxErrors int) *ParseStats {
	return &ParseStats{
		Source:    source,
		collector: errors.NewCollector(maxErrors),
	}
}

// AddError records a rejected record
func (ps *ParseStats) AddError(err error) {
	ps.collector.Add(err)
}

// ErrorCount returns the number of rejected records
func (ps *ParseStats) ErrorCount() int {
	return ps.collector.Count()
}

// HasErrors returns true if any record was rejected
func (ps *ParseStats) HasErrors() bool {
	return ps.collector.HasErrors()
}

// Err returns the combined record errors, or nil
func (ps *ParseStats) Err() error {
	return ps.collector.Err()
}

// Summary summarises the record errors
func (ps *ParseStats) Summary() *errors.ErrorSummary {
	return ps.collector.Summary()
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount())
}
