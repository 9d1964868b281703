package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/config"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDatasetCmd(a *app) *cobra.Command {
	datasetCmd := &cobra.Command{
		Use:   "dataset",
		Short: "Synthetic dataset commands",
	}
	datasetCmd.AddCommand(newDatasetGenerateCmd(a), newDatasetListCmd(a))
	return datasetCmd
}

func newDatasetGenerateCmd(a *app) *cobra.Command {
	var (
		samples int
		seed    int32
		noise   float64
		output  string
		dbPath  string
		store   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a labelled synthetic dataset and export it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			options := a.cfg.Dataset
			if flags.Changed("samples") {
				options.SamplesPerCategory = samples
			}
			if flags.Changed("seed") {
				options = options.WithSeed(seed)
			}
			if flags.Changed("noise") {
				options.NoiseLevel = noise
			}
			if flags.Changed("db-path") {
				a.cfg.Storage.DBPath = dbPath
			}

			dataset, err := a.provider.Generator.Generate(&options)
			if err != nil {
				return err
			}
			a.provider.Metrics.RecordDataset(dataset)

			if err := exportCSV(output, cmd.OutOrStdout(), dataset); err != nil {
				return err
			}
			log.Info().Int("samples", len(dataset)).Str("output", output).Msg("Dataset exported")

			if store {
				repo, err := a.openRepository(a.cfg.Storage.DBPath)
				if err != nil {
					return err
				}
				info := &model.DatasetInfo{
					Name:               "dataset-" + uuid.NewString(),
					SamplesPerCategory: options.SamplesPerCategory,
					Seed:               options.Seed,
					NoiseLevel:         options.NoiseLevel,
					CreatedAt:          a.provider.Clock().UTC(),
				}
				if _, err := repo.SaveDataset(info, dataset); err != nil {
					repo.Close()
					return err
				}
				return closeRepository(repo)
			}
			return nil
		},
	}
	defaults := config.Default()
	cmd.Flags().IntVar(&samples, "samples", defaults.Dataset.SamplesPerCategory, "Number of samples per threat type")
	cmd.Flags().Int32Var(&seed, "seed", *defaults.Dataset.Seed, "Random seed")
	cmd.Flags().Float64Var(&noise, "noise", defaults.Dataset.NoiseLevel, "Noise level multiplying every profile standard deviation")
	cmd.Flags().StringVar(&output, "output", "-", "CSV output file; - writes to stdout")
	cmd.Flags().StringVar(&dbPath, "db-path", defaults.Storage.DBPath, "Path to the SQLite database file")
	cmd.Flags().BoolVar(&store, "store", false, "Also store the dataset in the database")
	return cmd
}

// exportCSV writes one header row of feature names plus label, then one row per sample.
func exportCSV(output string, stdout io.Writer, samples []model.LabeledSample) error {
	w := stdout
	if output != "-" && output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(append(model.FeatureNames(), "Label")); err != nil {
		return err
	}
	record := make([]string, model.FeatureCount+1)
	for _, sample := range samples {
		for i, v := range sample.Features.ToArray() {
			record[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		record[model.FeatureCount] = sample.Label.String()
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func newDatasetListCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("db-path") {
				a.cfg.Storage.DBPath = dbPath
			}
			repo, err := a.openRepository(a.cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			datasets, err := repo.ListDatasets()
			if err != nil {
				repo.Close()
				return err
			}
			renderDatasets(cmd.OutOrStdout(), datasets)
			return closeRepository(repo)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db-path", config.DefaultDBPath, "Path to the SQLite database file")
	return cmd
}
