package parsers

import (
	"fmt"
	"strings"
)

// CSVConfig describes the column layout of a transaction CSV export
type CSVConfig struct {
	Name              string              `json:"name" yaml:"name"`
	IDColumn          string              `json:"id_column" yaml:"id_column"`
	TypeColumn        string              `json:"type_column" yaml:"type_column"`
	AmountColumn      string              `json:"amount_column" yaml:"amount_column"`
	CategoryColumn    string              `json:"category_column" yaml:"category_column"`
	DescriptionColumn string              `json:"description_column" yaml:"description_column"`
	DateColumn        string              `json:"date_column" yaml:"date_column"`
	TagsColumn        string              `json:"tags_column" yaml:"tags_column"`
	DateFormats       []string            `json:"date_formats" yaml:"date_formats"`
	HasHeader         bool                `json:"has_header" yaml:"has_header"`
	Delimiter         rune                `json:"delimiter" yaml:"delimiter"`
	TagSeparator      string              `json:"tag_separator" yaml:"tag_separator"`
	ColumnAliases     map[string][]string `json:"column_aliases,omitempty" yaml:"column_aliases,omitempty"`

	// SignedAmounts derives the type from the amount's sign when the type
	// column is absent or empty: negative amounts are expenses.
	SignedAmounts bool `json:"signed_amounts" yaml:"signed_amounts"`
}

// Standard column names
const (
	ColumnID          = "id"
	ColumnType        = "type"
	ColumnAmount      = "amount"
	ColumnCategory    = "category"
	ColumnDescription = "description"
	ColumnDate        = "date"
	ColumnTags        = "tags"
)

// Validate checks if the CSV configuration is valid
func (c *CSVConfig) Validate() error {
	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}

	if strings.TrimSpace(c.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}

	if strings.TrimSpace(c.TypeColumn) == "" && !c.SignedAmounts {
		return fmt.Errorf("type column cannot be empty unless amounts are signed")
	}

	if len(c.DateFormats) == 0 {
		return fmt.Errorf("at least one date format is required")
	}

	if c.Delimiter == 0 || c.Delimiter == '\n' || c.Delimiter == '"' {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}

	return nil
}

// ColumnCandidates returns the header names accepted for a standard column:
// the configured name followed by its aliases.
func (c *CSVConfig) ColumnCandidates(standardName string) []string {
	var primary string
	switch standardName {
	case ColumnID:
		primary = c.IDColumn
	case ColumnType:
		primary = c.TypeColumn
	case ColumnAmount:
		primary = c.AmountColumn
	case ColumnCategory:
		primary = c.CategoryColumn
	case ColumnDescription:
		primary = c.DescriptionColumn
	case ColumnDate:
		primary = c.DateColumn
	case ColumnTags:
		primary = c.TagsColumn
	default:
		primary = standardName
	}

	var out []string
	if primary != "" {
		out = append(out, primary)
	}
	return append(out, c.ColumnAliases[standardName]...)
}

// DefaultCSVConfig returns the layout written by the generate command
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Name:              "standard",
		IDColumn:          ColumnID,
		TypeColumn:        ColumnType,
		AmountColumn:      ColumnAmount,
		CategoryColumn:    ColumnCategory,
		DescriptionColumn: ColumnDescription,
		DateColumn:        ColumnDate,
		TagsColumn:        ColumnTags,
		DateFormats:       []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"},
		HasHeader:         true,
		Delimiter:         ',',
		TagSeparator:      "|",
		ColumnAliases: map[string][]string{
			ColumnID:          {"transaction_id", "trxID", "ref"},
			ColumnAmount:      {"value", "sum"},
			ColumnDescription: {"memo", "details", "payee"},
			ColumnDate:        {"transaction_date", "posted", "posting_date"},
		},
	}
}

// BankExportConfig returns a layout for bank exports with signed amounts,
// US dates and no category column.
func BankExportConfig() *CSVConfig {
	return &CSVConfig{
		Name:              "bank",
		IDColumn:          "reference",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
		DateColumn:        "posting_date",
		DateFormats:       []string{"01/02/2006", "2006-01-02"},
		HasHeader:         true,
		Delimiter:         ',',
		TagSeparator:      ";",
		SignedAmounts:     true,
		ColumnAliases: map[string][]string{
			ColumnDescription: {"transaction_description", "details"},
			ColumnDate:        {"date", "value_date"},
		},
	}
}

// GetCSVConfig returns a predefined layout by name
func GetCSVConfig(name string) *CSVConfig {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return DefaultCSVConfig()
	case "bank":
		return BankExportConfig()
	default:
		return nil
	}
}

// ListCSVConfigs returns all predefined layouts
func ListCSVConfigs() []*CSVConfig {
	return []*CSVConfig{DefaultCSVConfig(), BankExportConfig()}
}
