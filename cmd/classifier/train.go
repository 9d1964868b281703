package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/config"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/version"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// metadata keys written by generate-and-train
const (
	keyModelPath      = "model_path"
	keyModelTrainedAt = "model_trained_at"
	keyModelDatasetID = "model_dataset_id"
	keyModelAccuracy  = "model_validation_accuracy"
	keyVersion        = "version"
)

func newGenerateAndTrainCmd(a *app) *cobra.Command {
	var (
		samples   int
		seed      int32
		modelPath string
		dbPath    string
		useGPU    bool
		datasetID int64
	)

	cmd := &cobra.Command{
		Use:   "generate-and-train",
		Short: "Generate a synthetic dataset, or load a stored one, and train the ML model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := a.cfg
			flags := cmd.Flags()

			datasetOptions := cfg.Dataset
			if flags.Changed("samples") {
				datasetOptions.SamplesPerCategory = samples
			}
			if flags.Changed("seed") {
				datasetOptions = datasetOptions.WithSeed(seed)
			}
			trainingOptions := cfg.Training
			if flags.Changed("use-gpu") {
				trainingOptions.UseGPU = useGPU
			}
			if flags.Changed("model-path") {
				cfg.Storage.ModelPath = modelPath
			}
			if flags.Changed("db-path") {
				cfg.Storage.DBPath = dbPath
			}

			var (
				info    *model.DatasetInfo
				dataset []model.LabeledSample
				err     error
			)
			if flags.Changed("dataset-id") {
				if flags.Changed("samples") || flags.Changed("seed") {
					return fmt.Errorf("--dataset-id cannot be combined with --samples or --seed: %w", model.ErrInvalidArgument)
				}
				info, dataset, err = a.loadStoredDataset(datasetID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %d (%s)\n", titleStyle.Render("Loaded stored dataset"), info.ID, info.Name)
			} else {
				fmt.Fprintln(out, titleStyle.Render("Generating synthetic dataset..."))
				dataset, err = a.provider.Generator.Generate(&datasetOptions)
				if err != nil {
					return err
				}
				info = &model.DatasetInfo{
					Name:               "training-" + uuid.NewString(),
					SamplesPerCategory: datasetOptions.SamplesPerCategory,
					Seed:               datasetOptions.Seed,
					NoiseLevel:         datasetOptions.NoiseLevel,
				}
				a.provider.Metrics.RecordDataset(dataset)
			}
			renderDatasetStatistics(out, dataset)

			fmt.Fprintf(out, "\n%s\n", titleStyle.Render("Training ML model..."))
			report, err := a.provider.Trainer.Train(dataset, trainingOptions)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}
			a.provider.Metrics.RecordTraining(report.TrainingSamples, report.ValidationAccuracy, report.Duration.Seconds())
			fmt.Fprintln(out, successStyle.Render("Training completed."))
			fmt.Fprintf(out, "Training samples: %d, validation samples: %d, validation accuracy: %s\n",
				report.TrainingSamples, report.ValidationSamples, percent(report.ValidationAccuracy))

			if err := a.provider.Trainer.Save(cfg.Storage.ModelPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", successStyle.Render("Model saved to:"), cfg.Storage.ModelPath)

			storedID, err := a.storeTrainingRun(info, dataset, report.ValidationAccuracy)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dataset stored with id %d in %s\n", storedID, cfg.Storage.DBPath)
			return nil
		},
	}
	defaults := config.Default()
	cmd.Flags().IntVar(&samples, "samples", defaults.Dataset.SamplesPerCategory, "Number of samples per threat type")
	cmd.Flags().Int32Var(&seed, "seed", *defaults.Dataset.Seed, "Seed of the synthetic dataset")
	cmd.Flags().StringVar(&modelPath, "model-path", defaults.Storage.ModelPath, "Path to save the trained model")
	cmd.Flags().StringVar(&dbPath, "db-path", defaults.Storage.DBPath, "Path to the SQLite database file")
	cmd.Flags().BoolVar(&useGPU, "use-gpu", defaults.Training.UseGPU, "Use GPU for training if available")
	cmd.Flags().Int64Var(&datasetID, "dataset-id", 0, "Retrain on a stored dataset instead of generating one")
	return cmd
}

// loadStoredDataset reads a dataset saved by an earlier run.
func (a *app) loadStoredDataset(id int64) (*model.DatasetInfo, []model.LabeledSample, error) {
	if id < 1 {
		return nil, nil, fmt.Errorf("dataset id must be positive, got %d: %w", id, model.ErrInvalidArgument)
	}
	repo, err := a.openRepository(a.cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, err
	}
	info, samples, err := repo.LoadDataset(id)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	log.Info().Int64("dataset_id", id).Int("samples", len(samples)).Msg("Loaded stored dataset")
	return info, samples, closeRepository(repo)
}

// storeTrainingRun persists a newly generated dataset (info.ID == 0) and the model metadata.
func (a *app) storeTrainingRun(info *model.DatasetInfo, samples []model.LabeledSample, accuracy float64) (int64, error) {
	repo, err := a.openRepository(a.cfg.Storage.DBPath)
	if err != nil {
		return 0, err
	}
	now := a.provider.Clock().UTC()
	id := info.ID
	if id == 0 {
		info.CreatedAt = now
		id, err = repo.SaveDataset(info, samples)
		if err != nil {
			repo.Close()
			return 0, err
		}
	}

	modelPath := a.cfg.Storage.ModelPath
	if abs, err := filepath.Abs(modelPath); err == nil {
		modelPath = abs
	}
	metadata := map[string]string{
		keyModelPath:      modelPath,
		keyModelTrainedAt: now.Format(time.RFC3339),
		keyModelDatasetID: strconv.FormatInt(id, 10),
		keyModelAccuracy:  strconv.FormatFloat(accuracy, 'f', 4, 64),
		keyVersion:        version.GetFullVersion(),
	}
	for k, v := range metadata {
		if err := repo.SetKeyValue(k, v); err != nil {
			repo.Close()
			return 0, err
		}
	}
	log.Info().Int64("dataset_id", id).Int("samples", len(samples)).Msg("Training run stored")
	return id, closeRepository(repo)
}
