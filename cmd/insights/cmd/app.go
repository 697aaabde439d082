package cmd

import (
	"io"
	"os"

	"finance-insights/cmd/insights/config"
	"finance-insights/internal/analytics"
	"finance-insights/internal/reporter"
	"finance-insights/internal/service"
	"finance-insights/internal/store"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the components shared by every command
type app struct {
	config  *config.Config
	logger  logger.Logger
	fs      afero.Fs
	store   *store.FileStore
	engine  *analytics.Engine
	service *service.InsightsService
}

// newApp loads the configuration and wires the logger, store, engine and
// service together
func newApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if viper.GetBool("verbose") && cfg.Log.Level != logger.DebugLevel {
		cfg.Log.Level = logger.InfoLevel
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", cfg.Log.Level, err)
	}
	logger.SetGlobalLogger(log)

	fs := afero.NewOsFs()

	clock, err := cfg.Clock()
	if err != nil {
		return nil, err
	}
	opts := []analytics.Option{
		analytics.WithClock(clock),
		analytics.WithLogger(log.WithComponent("analytics")),
	}

	categorizer, err := config.LoadCategorizer(fs, cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	if categorizer != nil {
		opts = append(opts, analytics.WithCategorizer(categorizer))
	}

	engine, err := analytics.NewEngine(&cfg.Analytics, opts...)
	if err != nil {
		return nil, err
	}

	st := store.NewFileStore(fs, cfg.DataFile)

	log.WithFields(logger.Fields{
		"data_file":   cfg.DataFile,
		"rules_file":  cfg.RulesFile,
		"seasonality": cfg.Analytics.SeasonalityModel,
	}).Debug("Initialized application")

	return &app{
		config:  cfg,
		logger:  log.WithComponent("cli"),
		fs:      fs,
		store:   st,
		engine:  engine,
		service: service.NewInsightsService(st, engine, service.WithLogger(log)),
	}, nil
}

// render writes result in the configured format to --output or the
// command's standard output
func (a *app) render(cmd *cobra.Command, result interface{}) error {
	reportConfig, err := config.CreateReportConfig(a.config.Report, "", viper.GetBool("no-color"))
	if err != nil {
		return err
	}

	generator, err := reporter.NewSafeReportGenerator(reportConfig, a.logger)
	if err != nil {
		return err
	}

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	return generator.GenerateReportSafely(result, out)
}

func (a *app) output(cmd *cobra.Command) (io.Writer, func(), error) {
	path := viper.GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		code := errors.CodeFilePermission
		if os.IsNotExist(err) {
			code = errors.CodeFileNotFound
		}
		return nil, nil, errors.FileError(code, path, err).
			WithSuggestion("check that the output directory exists and is writable")
	}
	return f, func() { f.Close() }, nil
}

// window parses the --from and --to flags of cmd
func window(cmd *cobra.Command) (service.Window, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	return config.ParseWindow(from, to)
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "only analyse transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "only analyse transactions on or before this date (YYYY-MM-DD)")
}
