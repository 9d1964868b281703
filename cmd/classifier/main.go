package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/classifier"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/config"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/dataset"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/logging"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/metrics"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/mlengine"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// DependencyProvider allows injection for testability
// (in production, use real implementations)
type DependencyProvider struct {
	Generator  dataset.SampleGenerator
	Trainer    mlengine.Trainer
	RuleEngine classifier.ThreatClassifier
	Repository repository.Repository
	Metrics    *metrics.Recorder
	Clock      func() time.Time
}

// fillDefaults replaces every missing dependency except the repository,
// which is opened lazily from the configured path.
func (p *DependencyProvider) fillDefaults() {
	if p.Generator == nil {
		p.Generator = dataset.NewGenerator()
	}
	if p.Trainer == nil {
		p.Trainer = mlengine.NewCentroidTrainer()
	}
	if p.RuleEngine == nil {
		p.RuleEngine = classifier.NewRuleBasedClassifier()
	}
	if p.Metrics == nil {
		p.Metrics = metrics.NewRecorder()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
}

// app carries state shared by all commands of one invocation.
type app struct {
	provider  *DependencyProvider
	cfg       *config.Config
	logCloser io.Closer

	configPath  string
	logLevel    string
	logFile     string
	metricsFile string
}

// openRepository returns the injected repository or opens the SQLite database at dbPath.
func (a *app) openRepository(dbPath string) (repository.Repository, error) {
	if a.provider.Repository != nil {
		return a.provider.Repository, nil
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	repo, err := repository.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("Using database")
	return repo, nil
}

// closeRepository commits and closes repo.
func closeRepository(repo repository.Repository) error {
	if err := repo.Commit(); err != nil {
		return err
	}
	return repo.Close()
}

// newRootCmd wires up the CLI with the given dependencies
func newRootCmd(provider *DependencyProvider) *cobra.Command {
	a := &app{provider: provider}

	rootCmd := &cobra.Command{
		Use:           "ics-classifier",
		Short:         "ICS threat classifier - rule-based and ML classification of industrial network telemetry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", config.DefaultLogFile, "Log file path; empty logs to the console")
	rootCmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")

	rootCmd.AddCommand(
		newGenerateAndTrainCmd(a),
		newClassifySampleCmd(a),
		newClassifyCmd(a),
		newDatasetCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	a.withTeardown(rootCmd)
	return rootCmd
}

// withTeardown wraps every RunE below cmd so metrics are written and the log
// file is closed on failure too; cobra skips post-run hooks when RunE fails.
func (a *app) withTeardown(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.withTeardown(sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		return errors.Join(err, a.teardown())
	}
}

// setup loads the configuration, applies global flag overrides and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = a.logFile
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = a.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	a.logCloser = closer
	a.cfg = cfg
	a.provider.fillDefaults()
	log.Debug().Str("command", cmd.CommandPath()).Msg("Starting command")
	return nil
}

// teardown writes the metrics textfile when configured and closes the log file.
func (a *app) teardown() error {
	if a.cfg != nil && a.cfg.Metrics.File != "" {
		if err := a.provider.Metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
			return err
		}
		log.Info().Str("path", a.cfg.Metrics.File).Msg("Metrics written")
	}
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}

func main() {
	provider := &DependencyProvider{}
	rootCmd := newRootCmd(provider)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Error executing command")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
