package mlengine

import (
	"fmt"
	"math"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

const minVariance = 1e-6

// centroidModel is a Gaussian nearest-centroid classifier with a shared
// isotropic variance over min-max normalised features.
type centroidModel struct {
	Min       []float64   `json:"min"`
	Max       []float64   `json:"max"`
	Centroids [][]float64 `json:"centroids"` // by category ordinal; nil when the class was absent
	Variance  float64     `json:"variance"`
}

func fitCentroidModel(samples []model.LabeledSample) (*centroidModel, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot train on an empty dataset: %w", model.ErrInvalidArgument)
	}

	m := &centroidModel{
		Min:       make([]float64, model.FeatureCount),
		Max:       make([]float64, model.FeatureCount),
		Centroids: make([][]float64, model.ThreatCategoryCount),
	}
	for j := range m.Min {
		m.Min[j] = math.Inf(1)
		m.Max[j] = math.Inf(-1)
	}
	for _, s := range samples {
		if !s.Label.IsValid() {
			return nil, fmt.Errorf("sample label %d: %w", int(s.Label), model.ErrOutOfRange)
		}
		for j, v := range s.Features.ToArray() {
			m.Min[j] = math.Min(m.Min[j], float64(v))
			m.Max[j] = math.Max(m.Max[j], float64(v))
		}
	}

	counts := make([]int, model.ThreatCategoryCount)
	normalised := make([][]float64, len(samples))
	for i, s := range samples {
		x := m.normalise(s.Features)
		normalised[i] = x
		c := m.Centroids[s.Label]
		if c == nil {
			c = make([]float64, model.FeatureCount)
			m.Centroids[s.Label] = c
		}
		for j := range x {
			c[j] += x[j]
		}
		counts[s.Label]++
	}
	for label, c := range m.Centroids {
		for j := range c {
			c[j] /= float64(counts[label])
		}
	}

	// pooled per-dimension variance around each sample's own centroid
	sum := 0.0
	for i, s := range samples {
		sum += squaredDistance(normalised[i], m.Centroids[s.Label])
	}
	m.Variance = math.Max(sum/float64(len(samples)*model.FeatureCount), minVariance)
	return m, nil
}

// normalise maps features to [0,1] using the training range; constant features map to 0.
func (m *centroidModel) normalise(features model.FeatureVector) []float64 {
	values := features.ToArray()
	x := make([]float64, len(values))
	for j, v := range values {
		span := m.Max[j] - m.Min[j]
		if span > 0 {
			x[j] = (float64(v) - m.Min[j]) / span
		}
	}
	return x
}

func (m *centroidModel) predict(features model.FeatureVector) Prediction {
	x := m.normalise(features)

	logits := make([]float64, len(m.Centroids))
	best := math.Inf(-1)
	label := model.ThreatNone
	for i, c := range m.Centroids {
		if c == nil {
			logits[i] = math.Inf(-1)
			continue
		}
		logits[i] = -squaredDistance(x, c) / (2 * m.Variance)
		if logits[i] > best {
			best = logits[i]
			label = model.ThreatCategory(i)
		}
	}

	// softmax shifted by the maximum logit
	scores := make([]float32, len(logits))
	total := 0.0
	for _, l := range logits {
		total += math.Exp(l - best)
	}
	for i, l := range logits {
		scores[i] = float32(math.Exp(l-best) / total)
	}
	return Prediction{Label: label, Scores: scores}
}

func (m *centroidModel) validate() error {
	if len(m.Min) != model.FeatureCount || len(m.Max) != model.FeatureCount {
		return fmt.Errorf("model expects %d features: %w", model.FeatureCount, model.ErrInvalidArgument)
	}
	if len(m.Centroids) != model.ThreatCategoryCount {
		return fmt.Errorf("model expects %d classes, has %d: %w", model.ThreatCategoryCount, len(m.Centroids), model.ErrInvalidArgument)
	}
	trained := 0
	for _, c := range m.Centroids {
		if c == nil {
			continue
		}
		if len(c) != model.FeatureCount {
			return fmt.Errorf("centroid has %d dimensions: %w", len(c), model.ErrInvalidArgument)
		}
		trained++
	}
	if trained == 0 || !(m.Variance > 0) {
		return fmt.Errorf("model has no trained classes: %w", model.ErrInvalidArgument)
	}
	return nil
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		d := a[j] - b[j]
		sum += d * d
	}
	return sum
}
