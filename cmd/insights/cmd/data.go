package cmd

import (
	"fmt"
	"strings"
	"time"

	"finance-insights/cmd/insights/config"
	"finance-insights/internal/generator"
	"finance-insights/internal/models"
	"finance-insights/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCategorizeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "categorize <description>",
		Short: "Suggest a category for a transaction description",
		Example: `  insights categorize "STARBUCKS #1234"
  insights categorize "ACH payment" --amount 1500`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			result, err := a.service.Categorize(cmd.Context(), strings.Join(args, " "), amount)
			if err != nil {
				return err
			}
			return a.render(cmd, result)
		},
	}
	c.Flags().String("amount", "0", "transaction amount, used when no keyword matches")
	return c
}

func newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import <file.csv>...",
		Short: "Import transactions from CSV exports",
		Long: `Import parses one or more CSV exports concurrently and appends their
transactions to the data file. Transactions whose id is already stored are
skipped, transactions without a category are categorized, and rows that
cannot be parsed are reported without stopping the import.

Layouts:
  standard  id,type,amount,category,description,date,tags (the generate --csv layout)
  bank      reference,amount,description,posting_date with signed amounts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("layout")
			layout, err := config.CSVLayout(name)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			result, err := a.service.ImportFiles(cmd.Context(), a.fs, args, layout)
			if err != nil {
				return err
			}
			return a.render(cmd, result)
		},
	}
	c.Flags().String("layout", "standard", "CSV column layout: standard, bank")
	return c
}

func newAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction, budget or goal",
	}
	c.AddCommand(newAddTransactionCmd(), newAddBudgetCmd(), newAddGoalCmd())
	return c
}

func newAddTransactionCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "transaction",
		Short: "Add a transaction",
		Long: `Add a transaction to the data file. An id is assigned when none is given,
and the category and tags are suggested from the description when no
category is given.`,
		Example: `  insights add transaction --type expense --amount 4.50 --description "Starbucks"
  insights add transaction --type income --amount 5000 --category Salary --date 2024-06-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			typ, _ := flags.GetString("type")
			txType, err := models.ParseTransactionType(typ)
			if err != nil {
				return err
			}
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			date, err := dateFlag(cmd, "date", a.engine.Today())
			if err != nil {
				return err
			}

			id, _ := flags.GetString("id")
			category, _ := flags.GetString("category")
			description, _ := flags.GetString("description")
			tags, _ := flags.GetStringSlice("tags")

			added, err := a.service.AddTransaction(cmd.Context(), models.Transaction{
				ID:          id,
				Type:        txType,
				Amount:      amount,
				Category:    category,
				Description: description,
				Date:        date,
				Tags:        tags,
			})
			if err != nil {
				return err
			}
			return a.render(cmd, added)
		},
	}

	c.Flags().String("id", "", "transaction id (default: generated)")
	c.Flags().String("type", "expense", "transaction type: income, expense, transfer")
	c.Flags().String("amount", "", "amount, a non-negative decimal (required)")
	c.Flags().String("category", "", "category (default: suggested from the description)")
	c.Flags().String("description", "", "description")
	c.Flags().String("date", "", "date (YYYY-MM-DD, default: today)")
	c.Flags().StringSlice("tags", nil, "comma-separated tags")
	c.MarkFlagRequired("amount")
	return c
}

func newAddBudgetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "budget",
		Short: "Add a spending budget for a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := amountFlag(cmd, "limit")
			if err != nil {
				return err
			}
			category, _ := cmd.Flags().GetString("category")
			period, _ := cmd.Flags().GetString("period")

			a, err := newApp()
			if err != nil {
				return err
			}
			added, err := a.service.AddBudget(cmd.Context(), models.Budget{
				Category: category,
				Limit:    limit,
				Period:   models.BudgetPeriod(strings.ToLower(period)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s budget %s for %s: %s\n", added.Period, added.ID, added.Category, added.Limit.StringFixed(2))
			return nil
		},
	}
	c.Flags().String("category", "", "category (required)")
	c.Flags().String("limit", "", "spending limit (required)")
	c.Flags().String("period", "monthly", "period: weekly, monthly, quarterly, yearly")
	c.MarkFlagRequired("category")
	c.MarkFlagRequired("limit")
	return c
}

func newAddGoalCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "goal",
		Short: "Add a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := amountFlag(cmd, "target")
			if err != nil {
				return err
			}
			current, err := amountFlag(cmd, "current")
			if err != nil {
				return err
			}
			deadline, err := dateFlag(cmd, "deadline", time.Time{})
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("title")
			category, _ := cmd.Flags().GetString("category")

			a, err := newApp()
			if err != nil {
				return err
			}
			added, err := a.service.AddGoal(cmd.Context(), models.Goal{
				Title:         title,
				Category:      category,
				TargetAmount:  target,
				CurrentAmount: current,
				Deadline:      deadline,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s %q: %s of %s by %s\n", added.ID, added.Title,
				added.CurrentAmount.StringFixed(2), added.TargetAmount.StringFixed(2), added.Deadline.Format(models.DateLayout))
			return nil
		},
	}
	c.Flags().String("title", "", "goal title (required)")
	c.Flags().String("category", "", "category")
	c.Flags().String("target", "", "target amount (required)")
	c.Flags().String("current", "0", "amount saved so far")
	c.Flags().String("deadline", "", "deadline (YYYY-MM-DD, required)")
	c.MarkFlagRequired("title")
	c.MarkFlagRequired("target")
	c.MarkFlagRequired("deadline")
	return c
}

func newGenerateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset",
		Long: `Generate writes a deterministic synthetic dataset to the data file. The same
seed and options always produce the same records. With --csv the
transactions are written as CSV to stdout or --output instead.

Patterns: steady, volatile, overspend, debt
Scenarios: single-spike, empty, income-only`,
		Example: `  insights generate --months 24 --pattern debt --seed 7
  insights generate --scenario single-spike
  insights generate --csv --output transactions.csv`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	c.Flags().Int64("seed", 1, "random seed")
	c.Flags().Int("months", 12, "months of history")
	c.Flags().String("income", "5000", "monthly income")
	c.Flags().String("pattern", string(generator.PatternSteady), "spending pattern")
	c.Flags().String("scenario", "", "generate a named scenario instead of a pattern")
	c.Flags().Bool("no-budgets", false, "do not generate budgets")
	c.Flags().Bool("no-goals", false, "do not generate goals")
	c.Flags().Bool("csv", false, "write transactions as CSV instead of saving the dataset")
	return c
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	end := a.engine.Today()

	var ds *models.Dataset
	if name, _ := flags.GetString("scenario"); name != "" {
		scenario, ok := generator.FindScenario(end, name)
		if !ok {
			names := make([]string, 0, 3)
			for _, s := range generator.Scenarios(end) {
				names = append(names, s.Name)
			}
			return errors.ValidationError(errors.CodeInvalidData, "scenario", name, nil).
				WithSuggestion("use one of: " + strings.Join(names, ", "))
		}
		ds = scenario.Dataset
	} else {
		income, err := amountFlag(cmd, "income")
		if err != nil {
			return err
		}
		gc := generator.DefaultConfig(end)
		gc.Seed, _ = flags.GetInt64("seed")
		gc.Months, _ = flags.GetInt("months")
		gc.MonthlyIncome = income
		pattern, _ := flags.GetString("pattern")
		gc.Pattern = generator.Pattern(strings.ToLower(pattern))
		noBudgets, _ := flags.GetBool("no-budgets")
		noGoals, _ := flags.GetBool("no-goals")
		gc.WithBudgets = !noBudgets
		gc.WithGoals = !noGoals

		g, err := generator.New(gc)
		if err != nil {
			return errors.ValidationError(errors.CodeInvalidData, "generator", gc.Pattern, err)
		}
		ds = g.Dataset()
	}

	if asCSV, _ := flags.GetBool("csv"); asCSV {
		out, closeOut, err := a.output(cmd)
		if err != nil {
			return err
		}
		defer closeOut()
		return generator.WriteCSV(out, ds.Transactions)
	}

	if err := a.store.Save(cmd.Context(), ds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d transactions, %d budgets and %d goals in %s\n",
		len(ds.Transactions), len(ds.Budgets), len(ds.Goals), a.store.Path())
	return nil
}

func amountFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	amount, err := models.ParseDecimalFromString(raw)
	if err != nil {
		return amount, errors.ValidationError(errors.CodeInvalidAmount, name, raw, err).
			WithSuggestion("use a decimal number like 123.45")
	}
	return amount, nil
}

func dateFlag(cmd *cobra.Command, name string, fallback time.Time) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" && !fallback.IsZero() {
		return fallback, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return t, errors.ValidationError(errors.CodeInvalidDate, name, raw, err).
			WithSuggestion("use YYYY-MM-DD")
	}
	return t, nil
}
