package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 500, cfg.Dataset.SamplesPerCategory)
	assert.Equal(t, 0.15, cfg.Dataset.NoiseLevel)
	require.NotNil(t, cfg.Dataset.Seed)
	assert.Equal(t, int32(42), *cfg.Dataset.Seed)
	assert.Equal(t, 0.2, cfg.Training.ValidationFraction)
	assert.False(t, cfg.Training.UseGPU)
	assert.Equal(t, "model/threat_classifier.model", cfg.Storage.ModelPath)
	assert.Equal(t, "classifier.sqlite", cfg.Storage.DBPath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Metrics.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
dataset:
  samples_per_category: 100
  seed: 7
training:
  use_gpu: true
storage:
  model_path: /tmp/models/ics.model
logging:
  level: debug
metrics:
  file: /tmp/classifier.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Dataset.SamplesPerCategory)
	assert.Equal(t, int32(7), *cfg.Dataset.Seed)
	assert.Equal(t, 0.15, cfg.Dataset.NoiseLevel)
	assert.True(t, cfg.Training.UseGPU)
	assert.Equal(t, 0.2, cfg.Training.ValidationFraction)
	assert.Equal(t, "/tmp/models/ics.model", cfg.Storage.ModelPath)
	assert.Equal(t, "classifier.sqlite", cfg.Storage.DBPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "classifier.log", cfg.Logging.File)
	assert.Equal(t, "/tmp/classifier.prom", cfg.Metrics.File)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		invalidArg  bool
		errContains string
	}{
		{"zero samples", "dataset:\n  samples_per_category: 0\n", true, "SamplesPerCategory: must be at least 1"},
		{"negative noise", "dataset:\n  noise_level: -0.5\n", true, "NoiseLevel: must be at least 0"},
		{"holdout too large", "training:\n  validation_fraction: 0.95\n", true, "ValidationFraction: must not exceed 0.9"},
		{"empty model path", "storage:\n  model_path: \"\"\n", true, "ModelPath: field is required"},
		{"bad level", "logging:\n  level: chatty\n", true, "Level: must be one of"},
		{"unknown field", "datasets:\n  seed: 1\n", false, "field datasets not found"},
		{"malformed", "dataset: [1, 2\n", false, "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			if tt.invalidArg {
				assert.ErrorIs(t, err, model.ErrInvalidArgument)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidArgument)
}

func TestWrite_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Metrics.File = "metrics.prom"

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	assert.Contains(t, buf.String(), "samples_per_category: 500")

	loaded, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
