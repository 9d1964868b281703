package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/classifier"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/config"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/dataset"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/mlengine"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newClassifySampleCmd(a *app) *cobra.Command {
	var (
		modelPath string
		dbPath    string
		seed      int32
	)

	cmd := &cobra.Command{
		Use:   "classify-sample",
		Short: "Classify one synthetic sample per threat type with both classifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flags := cmd.Flags()
			if flags.Changed("model-path") {
				a.cfg.Storage.ModelPath = modelPath
			}
			if flags.Changed("db-path") {
				a.cfg.Storage.DBPath = dbPath
			}
			path := a.cfg.Storage.ModelPath

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "%s %s\n", errorStyle.Render("Model file not found:"), path)
				fmt.Fprintln(out, warnStyle.Render("Run the 'generate-and-train' command first."))
				return nil
			}

			fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Loading model from:"), path)
			if err := a.provider.Trainer.Load(path); err != nil {
				return err
			}

			// unseeded runs draw a fresh sample set each time
			options := dataset.GeneratorOptions{SamplesPerCategory: 1, NoiseLevel: a.cfg.Dataset.NoiseLevel}
			if flags.Changed("seed") {
				options = options.WithSeed(seed)
			}
			samples, err := a.provider.Generator.Generate(&options)
			if err != nil {
				return err
			}

			ml := mlengine.NewClassifier(a.provider.Trainer)
			report, err := classifier.Compare(a.provider.RuleEngine, ml, classifier.FirstOfEachCategory(samples))
			if err != nil {
				return err
			}
			for _, row := range report.Rows {
				a.provider.Metrics.RecordClassification(model.EngineRuleBased, row.Rule)
				a.provider.Metrics.RecordClassification(model.EngineML, row.ML)
			}

			fmt.Fprintf(out, "\n%s\n\n", titleStyle.Render("Classification comparison"))
			renderComparison(out, report)

			if len(report.Rows) > 0 {
				pickSeed := int32(a.provider.Clock().UnixNano())
				if flags.Changed("seed") {
					pickSeed = seed
				}
				pick := dataset.NewSubtractiveSource(pickSeed).Next(len(report.Rows))
				renderDetailedSample(out, report.Rows[pick])
			}

			runID, err := a.storeComparison(report)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nRun %s stored in %s\n", runID, a.cfg.Storage.DBPath)
			return nil
		},
	}
	defaults := config.Default()
	cmd.Flags().StringVar(&modelPath, "model-path", defaults.Storage.ModelPath, "Path to the trained model")
	cmd.Flags().StringVar(&dbPath, "db-path", defaults.Storage.DBPath, "Path to the SQLite database file")
	cmd.Flags().Int32Var(&seed, "seed", 0, "Seed for sample generation; random when not set")
	return cmd
}

// storeComparison writes one record per engine and row under a new run id.
func (a *app) storeComparison(report classifier.ComparisonReport) (string, error) {
	runID := uuid.NewString()
	records := make([]*model.ClassificationRecord, 0, 2*len(report.Rows))
	for _, row := range report.Rows {
		records = append(records,
			model.NewClassificationRecord(runID, model.EngineRuleBased, row.Reading, row.Rule).WithExpected(row.Expected),
			model.NewClassificationRecord(runID, model.EngineML, row.Reading, row.ML).WithExpected(row.Expected),
		)
	}

	repo, err := a.openRepository(a.cfg.Storage.DBPath)
	if err != nil {
		return "", err
	}
	if err := repo.AddClassifications(records); err != nil {
		repo.Close()
		return "", err
	}
	log.Info().Str("run_id", runID).Int("records", len(records)).Msg("Comparison run stored")
	return runID, closeRepository(repo)
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		input     string
		format    string
		engine    string
		modelPath string
		dbPath    string
		store     bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify feature vectors read from a JSON file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("model-path") {
				a.cfg.Storage.ModelPath = modelPath
			}
			if flags.Changed("db-path") {
				a.cfg.Storage.DBPath = dbPath
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("unsupported format %q (table, json): %w", format, model.ErrInvalidArgument)
			}

			var (
				threatClassifier classifier.ThreatClassifier
				engineName       model.Engine
			)
			switch engine {
			case "rule":
				threatClassifier, engineName = a.provider.RuleEngine, model.EngineRuleBased
			case "ml":
				if err := a.provider.Trainer.Load(a.cfg.Storage.ModelPath); err != nil {
					return err
				}
				threatClassifier, engineName = mlengine.NewClassifier(a.provider.Trainer), model.EngineML
			default:
				return fmt.Errorf("unsupported engine %q (rule, ml): %w", engine, model.ErrInvalidArgument)
			}

			vectors, err := readFeatureVectors(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			results := make([]model.ClassificationResult, 0, len(vectors))
			records := make([]*model.ClassificationRecord, 0, len(vectors))
			for _, features := range vectors {
				reading := model.NewSensorReading(model.NewSensorID(), features)
				result, err := threatClassifier.Classify(reading)
				if err != nil {
					a.provider.Metrics.RecordClassificationError(engineName)
					return err
				}
				a.provider.Metrics.RecordClassification(engineName, result)
				results = append(results, result)
				records = append(records, model.NewClassificationRecord(runID, engineName, reading, result))
			}

			if store {
				repo, err := a.openRepository(a.cfg.Storage.DBPath)
				if err != nil {
					return err
				}
				if err := repo.AddClassifications(records); err != nil {
					repo.Close()
					return err
				}
				if err := closeRepository(repo); err != nil {
					return err
				}
				log.Info().Str("run_id", runID).Int("records", len(records)).Msg("Classification run stored")
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(results)
			}
			renderResults(out, results)
			return nil
		},
	}
	defaults := config.Default()
	cmd.Flags().StringVar(&input, "input", "-", "JSON file with a feature vector or an array of them; - reads stdin")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json")
	cmd.Flags().StringVar(&engine, "engine", "rule", "Classifier: rule, ml")
	cmd.Flags().StringVar(&modelPath, "model-path", defaults.Storage.ModelPath, "Path to the trained model (ml engine)")
	cmd.Flags().StringVar(&dbPath, "db-path", defaults.Storage.DBPath, "Path to the SQLite database file")
	cmd.Flags().BoolVar(&store, "store", false, "Store the classification records in the database")
	return cmd
}

// readFeatureVectors decodes a single JSON object or an array of objects.
func readFeatureVectors(input string, stdin io.Reader) ([]model.FeatureVector, error) {
	var (
		data []byte
		err  error
	)
	if input == "-" || input == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("input is empty: %w", model.ErrInvalidArgument)
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	if strings.HasPrefix(string(trimmed), "[") {
		var vectors []model.FeatureVector
		if err := decoder.Decode(&vectors); err != nil {
			return nil, fmt.Errorf("decode feature vectors: %w: %w", err, model.ErrInvalidArgument)
		}
		if err := validateFeatureVectors(vectors); err != nil {
			return nil, err
		}
		return vectors, nil
	}
	var vector model.FeatureVector
	if err := decoder.Decode(&vector); err != nil {
		return nil, fmt.Errorf("decode feature vector: %w: %w", err, model.ErrInvalidArgument)
	}
	if err := validateFeatureVectors([]model.FeatureVector{vector}); err != nil {
		return nil, err
	}
	return []model.FeatureVector{vector}, nil
}

func validateFeatureVectors(vectors []model.FeatureVector) error {
	for i, vector := range vectors {
		if err := vector.Validate(); err != nil {
			return fmt.Errorf("feature vector %d: %w: %w", i, err, model.ErrInvalidArgument)
		}
	}
	return nil
}
