package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/dataset"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/metrics"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/mlengine"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/repository"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/testutil"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the CLI with logging redirected to a temp file.
func executeCommand(t *testing.T, provider *DependencyProvider, stdin string, args ...string) (string, error) {
	t.Helper()
	logger, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.SetGlobalLevel(level)
	})

	cmd := newRootCmd(provider)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-file", filepath.Join(t.TempDir(), "classifier.log")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func featuresJSON(t *testing.T, features ...model.FeatureVector) string {
	t.Helper()
	var (
		data []byte
		err  error
	)
	if len(features) == 1 {
		data, err = json.Marshal(features[0])
	} else {
		data, err = json.Marshal(features)
	}
	require.NoError(t, err)
	return string(data)
}

var runIDPattern = regexp.MustCompile(`Run ([0-9a-f-]{36}) stored`)

func TestGenerateAndTrainThenClassifySample(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "models", "threat_classifier.model")
	dbPath := filepath.Join(dir, "classifier.sqlite")

	out, err := executeCommand(t, &DependencyProvider{}, "",
		"generate-and-train", "--samples", "20", "--model-path", modelPath, "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "220")
	assert.Contains(t, out, "Training completed.")
	assert.Contains(t, out, "Model saved to:")
	assert.FileExists(t, modelPath)

	repo, err := repository.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	datasets, err := repo.ListDatasets()
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, 220, datasets[0].SampleCount)
	require.NotNil(t, datasets[0].Seed)
	assert.Equal(t, int32(42), *datasets[0].Seed)
	id, ok, err := repo.GetKeyValue(keyModelDatasetID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", id)
	require.NoError(t, repo.Close())

	out, err = executeCommand(t, &DependencyProvider{}, "",
		"classify-sample", "--model-path", modelPath, "--db-path", dbPath, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Loading model from:")
	assert.Contains(t, out, "Classification comparison")
	assert.Contains(t, out, "Agreement:")
	assert.Contains(t, out, "Detailed classification (random sample):")
	assert.Contains(t, out, "ML model classification:")

	match := runIDPattern.FindStringSubmatch(out)
	require.Len(t, match, 2, out)

	repo, err = repository.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	records, err := repo.GetClassifications(match[1])
	require.NoError(t, err)
	assert.Len(t, records, 2*model.ThreatCategoryCount)
	for _, record := range records {
		assert.NotNil(t, record.Expected)
	}
}

func TestGenerateAndTrain_WithMocks(t *testing.T) {
	trainer := new(testutil.MockTrainer)
	trainer.On("Train", mock.Anything, mock.MatchedBy(func(o mlengine.TrainingOptions) bool { return o.UseGPU })).
		Return(mlengine.TrainingReport{TrainingSamples: 9, ValidationSamples: 2, ValidationAccuracy: 1, Classes: 11}, nil)
	trainer.On("Save", "m.model").Return(nil)
	repo := testutil.NewMockRepository()
	recorder := metrics.NewRecorder()
	provider := &DependencyProvider{Trainer: trainer, Repository: repo, Metrics: recorder}

	out, err := executeCommand(t, provider, "", "generate-and-train", "--samples", "1", "--use-gpu", "--model-path", "m.model")
	require.NoError(t, err)

	trainer.AssertExpectations(t)
	assert.Contains(t, out, "validation accuracy: 100%")
	require.Len(t, repo.Datasets, 1)
	assert.Equal(t, 11, repo.Datasets[0].SampleCount)
	assert.Equal(t, "1", repo.KeyValues[keyModelDatasetID])
	assert.True(t, filepath.IsAbs(repo.KeyValues[keyModelPath]))
	assert.Equal(t, "1.0000", repo.KeyValues[keyModelAccuracy])
	assert.NotEmpty(t, repo.KeyValues[keyVersion])
	assert.True(t, repo.CommitCalled)
	assert.True(t, repo.CloseCalled)
	assert.Equal(t, 1.0, prom.ToFloat64(recorder.GeneratedSamplesTotal.WithLabelValues("None")))
	assert.Equal(t, 9.0, prom.ToFloat64(recorder.TrainingSamples))
}

func TestGenerateAndTrain_StoredDataset(t *testing.T) {
	options := dataset.DefaultGeneratorOptions().WithSeed(3)
	options.SamplesPerCategory = 2
	samples, err := dataset.NewGenerator().Generate(&options)
	require.NoError(t, err)

	newRepo := func(t *testing.T) *testutil.MockRepository {
		repo := testutil.NewMockRepository()
		_, err := repo.SaveDataset(&model.DatasetInfo{Name: "stored", SamplesPerCategory: 2, NoiseLevel: 0.15}, samples)
		require.NoError(t, err)
		return repo
	}

	t.Run("retrains without generating", func(t *testing.T) {
		repo := newRepo(t)
		trainer := new(testutil.MockTrainer)
		trainer.On("Train", samples, mock.Anything).
			Return(mlengine.TrainingReport{TrainingSamples: 18, ValidationSamples: 4, ValidationAccuracy: 0.75, Classes: 11}, nil)
		trainer.On("Save", "m.model").Return(nil)
		recorder := metrics.NewRecorder()

		out, err := executeCommand(t, &DependencyProvider{Trainer: trainer, Repository: repo, Metrics: recorder}, "",
			"generate-and-train", "--dataset-id", "1", "--model-path", "m.model")
		require.NoError(t, err)

		trainer.AssertExpectations(t)
		assert.Contains(t, out, "Loaded stored dataset")
		assert.NotContains(t, out, "Generating synthetic dataset")
		assert.Len(t, repo.Datasets, 1)
		assert.Equal(t, "1", repo.KeyValues[keyModelDatasetID])
		assert.Equal(t, "0.7500", repo.KeyValues[keyModelAccuracy])
		assert.Zero(t, prom.ToFloat64(recorder.GeneratedSamplesTotal.WithLabelValues("None")))
	})

	errorTests := []struct {
		name   string
		args   []string
		target error
	}{
		{"unknown dataset", []string{"--dataset-id", "7"}, repository.ErrNotFound},
		{"non-positive id", []string{"--dataset-id", "0"}, model.ErrInvalidArgument},
		{"combined with samples", []string{"--dataset-id", "1", "--samples", "5"}, model.ErrInvalidArgument},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			trainer := new(testutil.MockTrainer)
			_, err := executeCommand(t, &DependencyProvider{Trainer: trainer, Repository: newRepo(t)}, "",
				append([]string{"generate-and-train"}, tt.args...)...)
			assert.ErrorIs(t, err, tt.target)
			trainer.AssertNotCalled(t, "Train", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateAndTrain_TrainError(t *testing.T) {
	trainer := new(testutil.MockTrainer)
	trainer.On("Train", mock.Anything, mock.Anything).Return(mlengine.TrainingReport{}, errors.New("boom"))
	repo := testutil.NewMockRepository()

	_, err := executeCommand(t, &DependencyProvider{Trainer: trainer, Repository: repo}, "", "generate-and-train", "--samples", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "training failed")
	trainer.AssertNotCalled(t, "Save", mock.Anything)
	assert.Empty(t, repo.Datasets)
}

func TestGenerateAndTrain_InvalidSamples(t *testing.T) {
	for _, samples := range []string{"0", "1000001", "9223372036854775807"} {
		_, err := executeCommand(t, &DependencyProvider{Repository: testutil.NewMockRepository()}, "", "generate-and-train", "--samples", samples)
		assert.ErrorIs(t, err, model.ErrInvalidArgument, samples)
	}
}

func TestClassifySample_MissingModel(t *testing.T) {
	trainer := new(testutil.MockTrainer)
	missing := filepath.Join(t.TempDir(), "absent.model")

	out, err := executeCommand(t, &DependencyProvider{Trainer: trainer}, "", "classify-sample", "--model-path", missing)

	require.NoError(t, err)
	assert.Contains(t, out, "Model file not found:")
	assert.Contains(t, out, "generate-and-train")
	trainer.AssertNotCalled(t, "Load", mock.Anything)
}

func TestClassifySample_CorruptModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.model")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o644))

	_, err := executeCommand(t, &DependencyProvider{Repository: testutil.NewMockRepository()}, "", "classify-sample", "--model-path", path)
	assert.Error(t, err)
}

func TestClassify_RuleEngine(t *testing.T) {
	dos := testutil.ReferenceReadings()[4]
	require.Equal(t, model.ThreatDenialOfService, dos.Expected)

	t.Run("json", func(t *testing.T) {
		out, err := executeCommand(t, &DependencyProvider{}, featuresJSON(t, dos.Features), "classify", "--format", "json")
		require.NoError(t, err)

		var results []model.ClassificationResult
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 1)
		assert.Equal(t, model.ThreatDenialOfService, results[0].Category)
		assert.InDelta(t, dos.Score, results[0].Confidence, 1e-6)
	})

	t.Run("table with several vectors", func(t *testing.T) {
		normal := testutil.ReferenceReadings()[0]
		out, err := executeCommand(t, &DependencyProvider{}, featuresJSON(t, dos.Features, normal.Features), "classify")
		require.NoError(t, err)
		assert.Contains(t, out, "DenialOfService")
		assert.Contains(t, out, "None")
		assert.Contains(t, out, "Explanation")
	})

	t.Run("file input and store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reading.json")
		require.NoError(t, os.WriteFile(path, []byte(featuresJSON(t, dos.Features)), 0o644))
		repo := testutil.NewMockRepository()
		recorder := metrics.NewRecorder()

		_, err := executeCommand(t, &DependencyProvider{Repository: repo, Metrics: recorder}, "", "classify", "--input", path, "--store")
		require.NoError(t, err)

		require.Len(t, repo.Classifications, 1)
		assert.Equal(t, model.EngineRuleBased, repo.Classifications[0].Engine)
		assert.Equal(t, model.ThreatDenialOfService, repo.Classifications[0].Result.Category)
		assert.True(t, repo.CloseCalled)
		assert.Equal(t, 1.0, prom.ToFloat64(recorder.ClassificationsTotal.WithLabelValues("rule-based", "DenialOfService")))
	})
}

func TestClassify_Errors(t *testing.T) {
	valid := featuresJSON(t, model.FeatureVector{AveragePacketSize: 200, DistinctProtocolCount: 1})
	missingModel := filepath.Join(t.TempDir(), "absent.model")

	tests := []struct {
		name   string
		stdin  string
		args   []string
		target error
	}{
		{"bad format", valid, []string{"--format", "xml"}, model.ErrInvalidArgument},
		{"bad engine", valid, []string{"--engine", "neural"}, model.ErrInvalidArgument},
		{"empty input", "  ", nil, model.ErrInvalidArgument},
		{"unknown field", `{"packet_size": 1}`, nil, model.ErrInvalidArgument},
		{"malformed", `{"average_packet_size":`, nil, model.ErrInvalidArgument},
		{"ratio out of range", `{"failed_login_rate": 1.5, "distinct_protocol_count": 1}`, nil, model.ErrOutOfRange},
		{"no protocols", `{"average_packet_size": 200}`, nil, model.ErrInvalidArgument},
		{"negative count in array", `[{"distinct_protocol_count": 1}, {"external_connection_count": -1, "distinct_protocol_count": 1}]`, nil, model.ErrInvalidArgument},
		{"ml without model", valid, []string{"--engine", "ml", "--model-path", missingModel}, model.ErrModelNotFound},
		{"missing input file", "", []string{"--input", missingModel}, os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, &DependencyProvider{}, tt.stdin, append([]string{"classify"}, tt.args...)...)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestClassify_FailureStillWritesMetrics(t *testing.T) {
	engine := new(testutil.MockThreatClassifier)
	engine.On("Classify", mock.Anything).Return(model.ClassificationResult{}, errors.New("engine unavailable"))
	path := filepath.Join(t.TempDir(), "classifier.prom")

	_, err := executeCommand(t, &DependencyProvider{RuleEngine: engine}, featuresJSON(t, model.FeatureVector{AveragePacketSize: 200, DistinctProtocolCount: 1}),
		"--metrics-file", path, "classify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine unavailable")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `ics_classification_errors_total{engine="rule-based"} 1`)
	engine.AssertExpectations(t)
}

func TestDatasetGenerate(t *testing.T) {
	t.Run("stdout is deterministic", func(t *testing.T) {
		first, err := executeCommand(t, &DependencyProvider{}, "", "dataset", "generate", "--samples", "2", "--seed", "42")
		require.NoError(t, err)
		second, err := executeCommand(t, &DependencyProvider{}, "", "dataset", "generate", "--samples", "2", "--seed", "42")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		lines := strings.Split(strings.TrimSpace(first), "\n")
		require.Len(t, lines, 1+2*model.ThreatCategoryCount)
		assert.True(t, strings.HasPrefix(lines[0], "AveragePacketSize,SuspiciousCommandCount,"))
		assert.True(t, strings.HasSuffix(lines[0], ",DistinctProtocolCount,Label"))
		assert.Len(t, strings.Split(lines[1], ","), model.FeatureCount+1)
	})

	t.Run("file output and store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dataset.csv")
		repo := testutil.NewMockRepository()

		out, err := executeCommand(t, &DependencyProvider{Repository: repo}, "",
			"dataset", "generate", "--samples", "3", "--noise", "0", "--output", path, "--store")
		require.NoError(t, err)
		assert.Empty(t, out)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(string(content)), "\n"), 1+3*model.ThreatCategoryCount)
		require.Len(t, repo.Datasets, 1)
		assert.Equal(t, 0.0, repo.Datasets[0].NoiseLevel)
		assert.Equal(t, 33, repo.Datasets[0].SampleCount)
	})

	t.Run("negative noise", func(t *testing.T) {
		_, err := executeCommand(t, &DependencyProvider{}, "", "dataset", "generate", "--noise", "-1")
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}

func TestDatasetList(t *testing.T) {
	repo := testutil.NewMockRepository()
	_, err := repo.SaveDataset(&model.DatasetInfo{Name: "training-run", SamplesPerCategory: 5}, make([]model.LabeledSample, 55))
	require.NoError(t, err)

	out, err := executeCommand(t, &DependencyProvider{Repository: repo}, "", "dataset", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "training-run")
	assert.Contains(t, out, "55")
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataset:\n  samples_per_category: 7\n"), 0o644))

	out, err := executeCommand(t, &DependencyProvider{}, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "samples_per_category: 7")
	assert.Contains(t, out, "model_path: model/threat_classifier.model")
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, &DependencyProvider{}, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ics-threat-classifier")

	out, err = executeCommand(t, &DependencyProvider{}, "", "version", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)

	_, err = executeCommand(t, &DependencyProvider{}, "", "version", "--format", "yaml")
	assert.Error(t, err)
}

func TestGlobalFlags(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		_, err := executeCommand(t, &DependencyProvider{}, "", "--log-level", "chatty", "version")
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := executeCommand(t, &DependencyProvider{}, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "version")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("metrics file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "classifier.prom")
		_, err := executeCommand(t, &DependencyProvider{}, "", "--metrics-file", path, "dataset", "generate", "--samples", "1")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `ics_generated_samples_total{category="DenialOfService"} 1`)
	})
}

func TestPercentRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "13%", percent(0.125))
	assert.Equal(t, "88%", percent(0.875))
	assert.Equal(t, "100%", percent(1))
}
