package mlengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/golang/snappy"
)

const modelFormat = "ics-centroid/v1"

type modelFile struct {
	Format string         `json:"format"`
	Model  *centroidModel `json:"model"`
}

func saveModelFile(path string, m *centroidModel) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("model path must not be empty: %w", model.ErrInvalidArgument)
	}

	payload, err := json.Marshal(modelFile{Format: modelFormat, Model: m})
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, snappy.Encode(nil, payload), 0o644); err != nil {
		return fmt.Errorf("failed to write model file %s: %w", path, err)
	}
	return nil
}

func loadModelFile(path string) (*centroidModel, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("model path must not be empty: %w", model.ErrInvalidArgument)
	}

	compressed, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("model file %s: %w: %w", path, model.ErrModelNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("model file %s is not a compressed model: %w", path, err)
	}
	var file modelFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("failed to decode model file %s: %w", path, err)
	}
	if file.Format != modelFormat || file.Model == nil {
		return nil, fmt.Errorf("unsupported model format %q in %s: %w", file.Format, path, model.ErrInvalidArgument)
	}
	if err := file.Model.validate(); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}
	return file.Model, nil
}
