package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finance-insights/pkg/errors"

	"go.uber.org/multierr"
)

const asOf = "2024-06-15"

// runCLI executes a fresh command tree against dataFile
func runCLI(t *testing.T, dataFile string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data", dataFile, "--as-of", asOf, "--no-color"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateThenAnalyse(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "data.json")

	out, err := runCLI(t, dataFile, "generate", "--months", "6", "--seed", "3")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "Generated ") || !strings.Contains(out, dataFile) {
		t.Errorf("unexpected generate output: %q", out)
	}
	if _, err := os.Stat(dataFile); err != nil {
		t.Fatalf("data file not written: %v", err)
	}

	commands := map[string]string{
		"health":    "Overall Score:",
		"anomalies": "Total Anomalies:",
		"patterns":  "Total Spending:",
		"insights":  "insights",
	}
	for name, want := range commands {
		t.Run(name, func(t *testing.T) {
			out, err := runCLI(t, dataFile, name)
			if err != nil {
				t.Fatalf("%s failed: %v", name, err)
			}
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output, got:\n%s", want, out)
			}
		})
	}

	t.Run("json format", func(t *testing.T) {
		out, err := runCLI(t, dataFile, "--format", "json", "predict", "--horizon", "2")
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
	})
}

func TestGenerateCSVToOutput(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	csvFile := filepath.Join(dir, "tx.csv")

	if _, err := runCLI(t, dataFile, "--output", csvFile, "generate", "--csv", "--months", "2"); err != nil {
		t.Fatalf("generate --csv failed: %v", err)
	}

	data, err := os.ReadFile(csvFile)
	if err != nil {
		t.Fatalf("csv not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,type,amount,category,description,date,tags\n") {
		t.Errorf("unexpected csv header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if _, err := os.Stat(dataFile); !os.IsNotExist(err) {
		t.Errorf("generate --csv must not write the data file")
	}
}

func TestGenerateUnknownScenario(t *testing.T) {
	_, err := runCLI(t, filepath.Join(t.TempDir(), "data.json"), "generate", "--scenario", "nope")
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Category != errors.CategoryValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(appErr.Suggestion, "single-spike") {
		t.Errorf("suggestion should list scenarios, got %q", appErr.Suggestion)
	}
}

func TestAddAndCategorize(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "data.json")

	out, err := runCLI(t, dataFile, "add", "transaction",
		"--amount", "42.10", "--description", "Shell gas station", "--date", "2024-06-10")
	if err != nil {
		t.Fatalf("add transaction failed: %v", err)
	}
	if !strings.Contains(out, "Added transaction") || !strings.Contains(out, "Transportation") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = runCLI(t, dataFile, "add", "budget", "--category", "Transportation", "--limit", "200")
	if err != nil {
		t.Fatalf("add budget failed: %v", err)
	}
	if !strings.Contains(out, "monthly budget") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = runCLI(t, dataFile, "add", "goal", "--title", "Laptop", "--target", "1500", "--deadline", "2024-12-01")
	if err != nil {
		t.Fatalf("add goal failed: %v", err)
	}
	if !strings.Contains(out, `"Laptop"`) {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = runCLI(t, dataFile, "progress")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if !strings.Contains(out, "Transportation") || !strings.Contains(out, "Laptop") {
		t.Errorf("progress should list the budget and goal, got:\n%s", out)
	}

	out, err = runCLI(t, dataFile, "categorize", "STARBUCKS", "#1234")
	if err != nil {
		t.Fatalf("categorize failed: %v", err)
	}
	if !strings.Contains(out, "Food & Dining") {
		t.Errorf("unexpected category output: %q", out)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "data.json")

	tests := []struct {
		name string
		args []string
	}{
		{"bad amount", []string{"--amount", "abc"}},
		{"bad type", []string{"--amount", "1", "--type", "refund"}},
		{"bad date", []string{"--amount", "1", "--date", "15/06/2024"}},
		{"negative amount", []string{"--amount=-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, dataFile, append([]string{"add", "transaction"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := NewCLIErrorHandler(&bytes.Buffer{}).HandleError(err); code != 3 {
				t.Errorf("expected exit code 3, got %d (%v)", code, err)
			}
		})
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	csvFile := filepath.Join(dir, "export.csv")

	content := "id,type,amount,category,description,date,tags\n" +
		"T1,expense,12.50,,Starbucks coffee,2024-06-01,\n" +
		"T2,income,3000,Salary,Paycheck,2024-06-01,\n" +
		"T3,expense,oops,,Broken row,2024-06-02,\n"
	if err := os.WriteFile(csvFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	out, err := runCLI(t, dataFile, "import", csvFile)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	for _, want := range []string{"Imported:    2", "Categorized: 1", "1 errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}

	out, err = runCLI(t, dataFile, "import", csvFile)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if !strings.Contains(out, "Duplicates:  2") {
		t.Errorf("expected duplicates on re-import, got:\n%s", out)
	}

	if _, err := runCLI(t, dataFile, "import", "--layout", "xml", csvFile); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestInvalidWindow(t *testing.T) {
	_, err := runCLI(t, filepath.Join(t.TempDir(), "data.json"), "health", "--from", "2024-06-10", "--to", "2024-06-01")
	if err == nil {
		t.Fatal("expected error for inverted window")
	}
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, filepath.Join(t.TempDir(), "data.json"), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "insights dev") || !strings.Contains(out, "commit:") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestCLIErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  []string
	}{
		{
			name:     "nil",
			err:      nil,
			wantCode: 0,
		},
		{
			name: "validation error with suggestion",
			err: errors.ValidationError(errors.CodeInvalidDate, "from", "bad", nil).
				WithSuggestion("use YYYY-MM-DD"),
			wantCode: 3,
			wantOut:  []string{"Error: ", "Suggestion: use YYYY-MM-DD", "Validation error help:"},
		},
		{
			name:     "storage error",
			err:      errors.StorageError(errors.CodeLoadFailed, "data.json", fmt.Errorf("boom")),
			wantCode: 2,
			wantOut:  []string{"Storage error help:"},
		},
		{
			name:     "configuration error",
			err:      errors.ConfigurationError(errors.CodeInvalidConfig, "server", "x", nil),
			wantCode: 4,
			wantOut:  []string{"Configuration error help:"},
		},
		{
			name:     "missing file",
			err:      fmt.Errorf("open x.csv: %w", os.ErrNotExist),
			wantCode: 2,
			wantOut:  []string{"File not found"},
		},
		{
			name:     "permission",
			err:      fmt.Errorf("open x.csv: %w", os.ErrPermission),
			wantCode: 2,
			wantOut:  []string{"Permission denied"},
		},
		{
			name:     "disk full",
			err:      fmt.Errorf("write: no space left on device"),
			wantCode: 2,
			wantOut:  []string{"Insufficient disk space"},
		},
		{
			name:     "generic",
			err:      fmt.Errorf(`unknown flag: --bogus`),
			wantCode: 1,
			wantOut:  []string{"unknown flag: --bogus", "insights --help"},
		},
		{
			name: "combined errors",
			err: multierr.Combine(
				errors.ValidationError(errors.CodeInvalidAmount, "transactions[0].amount", "x", nil),
				errors.ValidationError(errors.CodeInvalidDate, "transactions[1].date", "y", nil),
			),
			wantCode: 3,
			wantOut:  []string{"2 problem(s) found", "Validation error help:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := NewCLIErrorHandler(&out).HandleError(tt.err)
			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected %q in output, got:\n%s", want, out.String())
				}
			}
		})
	}
}
