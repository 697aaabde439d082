package parsers

import (
	"context"
	"sort"

	"finance-insights/internal/models"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// FileResult is the outcome of parsing one file
type FileResult struct {
	Path         string
	Transactions []models.Transaction
	Stats        *ParseStats
	Err          error
}

// ParseFiles parses several CSV files from fs with at most maxConcurrency
// files in flight. Results are returned in the order of paths; a failure in
// one file does not stop the others.
func ParseFiles(ctx context.Context, fs afero.Fs, paths []string, config *CSVConfig, maxConcurrency int, opts ...CSVOption) ([]FileResult, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	parser, err := NewCSVParser(config, opts...)
	if err != nil {
		return nil, err
	}

	log := logger.GetGlobalLogger().WithComponent("csv_parser")
	log.WithFields(logger.Fields{
		"files":           len(paths),
		"max_concurrency": maxConcurrency,
	}).Debug("Parsing files concurrently")

	type indexed struct {
		index  int
		result FileResult
	}

	p := pool.NewWithResults[indexed]().WithMaxGoroutines(maxConcurrency)
	for i, path := range paths {
		p.Go(func() indexed {
			return indexed{index: i, result: parseFile(ctx, fs, parser, path)}
		})
	}

	collected := p.Wait()
	sort.Slice(collected, func(a, b int) bool { return collected[a].index < collected[b].index })

	results := make([]FileResult, len(collected))
	for i, c := range collected {
		results[i] = c.result
	}
	return results, nil
}

func parseFile(ctx context.Context, fs afero.Fs, parser *CSVParser, path string) FileResult {
	result := FileResult{Path: path}

	if err := ctx.Err(); err != nil {
		result.Err = errors.InternalError(errors.CodeCancelled, "parsing "+path, err)
		return result
	}

	f, err := fs.Open(path)
	if err != nil {
		code := errors.CodeFileNotFound
		if exists, _ := afero.Exists(fs, path); exists {
			code = errors.CodeFilePermission
		}
		result.Err = errors.FileError(code, path, err)
		return result
	}
	defer f.Close()

	result.Transactions, result.Stats, result.Err = parser.Parse(ctx, f, path)
	return result
}
