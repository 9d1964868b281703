// Package config loads the classifier configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/dataset"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/mlengine"
	"github.com/InfraSecConsult/ics-threat-classifier/internal/validation"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSeed      int32 = 42
	DefaultModelPath       = "model/threat_classifier.model"
	DefaultDBPath          = "classifier.sqlite"
	DefaultLogFile         = "classifier.log"
)

// Config is the complete classifier configuration.
type Config struct {
	Dataset  dataset.GeneratorOptions `yaml:"dataset"`
	Training mlengine.TrainingOptions `yaml:"training"`
	Storage  StorageConfig            `yaml:"storage"`
	Logging  LoggingConfig            `yaml:"logging"`
	Metrics  MetricsConfig            `yaml:"metrics"`
}

// StorageConfig locates the model file and the run database.
type StorageConfig struct {
	DBPath    string `yaml:"db_path" validate:"required"`
	ModelPath string `yaml:"model_path" validate:"required"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	// File receives JSON log lines; empty logs to the console.
	File string `yaml:"file"`
}

type MetricsConfig struct {
	// File is a Prometheus textfile written when a command finishes; empty disables it.
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	training := mlengine.DefaultTrainingOptions()
	seed := DefaultSeed
	training.Seed = &seed
	return &Config{
		Dataset:  dataset.DefaultGeneratorOptions().WithSeed(DefaultSeed),
		Training: training,
		Storage: StorageConfig{
			DBPath:    DefaultDBPath,
			ModelPath: DefaultModelPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  DefaultLogFile,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := cfg.decode(f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config must not be nil: %w", model.ErrInvalidArgument)
	}
	return validation.Struct(c)
}

// Write encodes the configuration as YAML.
func (c *Config) Write(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return err
	}
	return encoder.Close()
}
