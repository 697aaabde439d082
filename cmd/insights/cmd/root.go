package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finance-insights/cmd/insights/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = newRootCmd()

// newRootCmd builds the command tree and binds its flags to viper
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "insights",
		Short: "Personal finance analytics",
		Long: `Insights analyses personal financial records: it scores financial health,
forecasts expenses, flags anomalies, recommends budgets, categorizes
transactions and combines the results into prioritized insights.

Records are kept in a JSON data file (--data) and can be imported from CSV
exports or added one at a time.

Examples:
  insights generate --months 12 --pattern volatile
  insights health
  insights predict --horizon 6 --format json
  insights anomalies --from 2024-01-01
  insights import bank.csv --layout bank
  insights add transaction --type expense --amount 12.50 --description "Starbucks"
  insights serve --listen 127.0.0.1:8080`,
		Version:       getVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (optional; YAML, JSON or TOML)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("data", config.DefaultDataFile, "path to the JSON data file")
	flags.String("rules", "", "YAML file with categorization keyword rules")
	flags.String("as-of", "", "evaluate relative dates as of this day (YYYY-MM-DD)")
	flags.StringP("format", "f", "console", "output format: console, json, csv")
	flags.StringP("output", "o", "", "output file path (default: stdout)")
	flags.Bool("no-color", false, "disable coloured console output")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")

	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("data_file", flags.Lookup("data"))
	viper.BindPFlag("rules_file", flags.Lookup("rules"))
	viper.BindPFlag("as_of", flags.Lookup("as-of"))
	viper.BindPFlag("report.format", flags.Lookup("format"))
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("no-color", flags.Lookup("no-color"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newHealthCmd(),
		newPredictCmd(),
		newAnomaliesCmd(),
		newBudgetsCmd(),
		newPatternsCmd(),
		newProgressCmd(),
		newInsightsCmd(),
		newCategorizeCmd(),
		newImportCmd(),
		newAddCmd(),
		newGenerateCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return NewCLIErrorHandler(rootCmd.ErrOrStderr()).HandleError(err)
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())
}

// initConfig reads in the .env file, config file and ENV variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env file: %s\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(4)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	config.ConfigureEnv(viper.GetViper())
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
