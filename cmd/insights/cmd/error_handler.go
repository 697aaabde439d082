package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// CLIErrorHandler turns command errors into user-facing messages and exit codes
type CLIErrorHandler struct {
	out     io.Writer
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a handler writing to out
func NewCLIErrorHandler(out io.Writer) *CLIErrorHandler {
	if out == nil {
		out = os.Stderr
	}
	return &CLIErrorHandler{
		out:     out,
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints err and returns the process exit code for it
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if errs := multierr.Errors(err); len(errs) > 1 {
		return h.handleMultiple(err, errs)
	}

	if appErr, ok := errors.AsAppError(err); ok {
		return h.handleAppError(appErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleMultiple(err error, errs []error) int {
	fmt.Fprintf(h.out, "Error: %s", errors.FormatForUser(err))

	appErrs := make([]*errors.AppError, 0, len(errs))
	for _, e := range errs {
		appErrs = append(appErrs, errors.WrapIfNeeded(e, errors.CategoryInternal, errors.CodeUnexpectedError, e.Error()))
	}
	summary := errors.NewErrorSummary(appErrs)
	if len(summary.ByCategory) == 1 {
		fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(appErrs[0].Category))
	}
	return summary.GetExitCode()
}

func (h *CLIErrorHandler) handleAppError(err *errors.AppError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case isFileNotFoundError(err):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case isPermissionError(err):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	case isDiskFullError(err):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	// cobra reports unknown flags and bad arguments as plain errors
	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'insights --help' for usage.\n")
	return 1
}

func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check that the file exists and is readable
• Verify the path (--data, --rules or the import arguments)
• Ensure the output directory exists when using --output`

	case errors.CategoryParse:
		return `Parse error help:
• Check the CSV headers match the chosen --layout
• Ensure the file uses UTF-8 encoding
• Use 'insights generate --csv' to see a valid standard export`

	case errors.CategoryValidation:
		return `Validation error help:
• Dates use YYYY-MM-DD
• Amounts are non-negative decimal numbers
• Transaction types are income, expense or transfer
• Budget periods are weekly, monthly, quarterly or yearly`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and INSIGHTS_* environment variables
• Verify configuration file syntax if using --config
• Try running with default settings first`

	case errors.CategoryStorage:
		return `Storage error help:
• The data file may be corrupted; check that it is valid JSON
• Regenerate sample data with 'insights generate --data <path>'`

	case errors.CategoryAnalytics:
		return `Analytics error help:
• Check that the records are consistent (dates, amounts, categories)
• Run with --verbose and report the problem if it persists`

	default:
		return `For more help:
• Use 'insights --help' for general help
• Use 'insights <command> --help' for command-specific help`
	}
}

func isFileNotFoundError(err error) bool {
	return stderrors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
}

func isPermissionError(err error) bool {
	return stderrors.Is(err, os.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func isDiskFullError(err error) bool {
	if stderrors.Is(err, syscall.ENOSPC) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
