// Package dataset synthesises labelled feature vectors from per-category statistical profiles.
package dataset

import (
	"fmt"
	"math"
	"time"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/validation"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSamplesPerCategory = 500
	MaxSamplesPerCategory     = 1000000
	DefaultNoiseLevel         = 0.15
)

// GeneratorOptions controls synthetic dataset generation.
type GeneratorOptions struct {
	SamplesPerCategory int `yaml:"samples_per_category" validate:"min=1,max=1000000"`
	// Seed makes the output reproducible; nil seeds from the clock.
	Seed *int32 `yaml:"seed,omitempty"`
	// NoiseLevel multiplies every profile standard deviation.
	NoiseLevel float64 `yaml:"noise_level" validate:"gte=0"`
}

// DefaultGeneratorOptions returns 500 samples per category, noise 0.15 and no seed.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		SamplesPerCategory: DefaultSamplesPerCategory,
		NoiseLevel:         DefaultNoiseLevel,
	}
}

// WithSeed returns a copy of o using seed.
func (o GeneratorOptions) WithSeed(seed int32) GeneratorOptions {
	o.Seed = &seed
	return o
}

// Validate checks the option bounds.
func (o *GeneratorOptions) Validate() error {
	if o == nil {
		return fmt.Errorf("generator options must not be nil: %w", model.ErrInvalidArgument)
	}
	return validation.Struct(o)
}

// SampleGenerator produces labelled datasets.
type SampleGenerator interface {
	Generate(options *GeneratorOptions) ([]model.LabeledSample, error)
}

// Generator implements SampleGenerator with one private random source per call,
// so concurrent Generate calls do not interfere.
type Generator struct {
	clock func() time.Time
}

// NewGenerator creates a generator seeding unseeded runs from the wall clock.
func NewGenerator() *Generator {
	return &Generator{clock: time.Now}
}

// Generate draws options.SamplesPerCategory vectors for every category, None
// included, and returns them shuffled.
func (g *Generator) Generate(options *GeneratorOptions) ([]model.LabeledSample, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var seed int32
	if options.Seed != nil {
		seed = *options.Seed
	} else {
		// truncation is fine, only the low bits need to vary between runs
		seed = int32(g.clock().UnixNano())
		log.Debug().Int32("seed", seed).Msg("No seed configured, seeding from clock")
	}

	return GenerateWithSource(options, NewSubtractiveSource(seed))
}

// GenerateWithSource is Generate with an explicit random source. The source is
// consumed in a fixed order: categories in ordinal order, fields in declaration
// order, two uniform draws per field, then the shuffle.
func GenerateWithSource(options *GeneratorOptions, source Source) ([]model.LabeledSample, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("random source must not be nil: %w", model.ErrInvalidArgument)
	}

	samples := make([]model.LabeledSample, 0, options.SamplesPerCategory*model.ThreatCategoryCount)
	for _, category := range model.AllThreatCategories() {
		profile, err := ProfileFor(category)
		if err != nil {
			return nil, err
		}
		for i := 0; i < options.SamplesPerCategory; i++ {
			samples = append(samples, model.LabeledSample{
				Features: sampleFeatureVector(profile, source, options.NoiseLevel),
				Label:    category,
			})
		}
	}

	shuffle(samples, source)

	log.Debug().
		Int("samples", len(samples)).
		Int("samples_per_category", options.SamplesPerCategory).
		Float64("noise_level", options.NoiseLevel).
		Msg("Generated synthetic dataset")
	return samples, nil
}

func sampleFeatureVector(p FeatureProfile, source Source, noise float64) model.FeatureVector {
	// struct literal fields are evaluated in order, which fixes the draw order
	return model.FeatureVector{
		AveragePacketSize:                 sampleGaussian(p.AveragePacketSize, source, noise, 10, 1500),
		SuspiciousCommandCount:            floorCount(sampleGaussian(p.SuspiciousCommandCount, source, noise, 0, 50), 0),
		FailedLoginRate:                   sampleGaussian(p.FailedLoginRate, source, noise, 0, 1),
		TrafficToEngineeringStationsRatio: sampleGaussian(p.TrafficToEngineeringStationsRatio, source, noise, 0, 1),
		PlcConfigChangeRate:               sampleGaussian(p.PlcConfigChangeRate, source, noise, 0, 1),
		HmiScreenChangeRate:               sampleGaussian(p.HmiScreenChangeRate, source, noise, 0, 1),
		EncryptedTrafficRatio:             sampleGaussian(p.EncryptedTrafficRatio, source, noise, 0, 1),
		ExternalConnectionCount:           floorCount(sampleGaussian(p.ExternalConnectionCount, source, noise, 0, 30), 0),
		BroadcastTrafficRatio:             sampleGaussian(p.BroadcastTrafficRatio, source, noise, 0, 1),
		ProtocolViolationScore:            sampleGaussian(p.ProtocolViolationScore, source, noise, 0, 1),
		DataExfiltrationVolume:            sampleGaussian(p.DataExfiltrationVolume, source, noise, 0, 200),
		CpuLoadAnomalyScore:               sampleGaussian(p.CpuLoadAnomalyScore, source, noise, 0, 1),
		ProcessValueAnomalyScore:          sampleGaussian(p.ProcessValueAnomalyScore, source, noise, 0, 1),
		ConnectionRate:                    sampleGaussian(p.ConnectionRate, source, noise, 0, 200),
		DistinctProtocolCount:             floorCount(sampleGaussian(p.DistinctProtocolCount, source, noise, 1, 15), 1),
	}
}

// sampleGaussian draws from dist with its standard deviation scaled by noise,
// using the Box-Muller transform, and clamps to [lo,hi].
func sampleGaussian(dist Distribution, source Source, noise float64, lo, hi float32) float32 {
	// 1-x maps [0,1) to (0,1] so the logarithm stays finite
	u1 := 1.0 - source.NextDouble()
	u2 := 1.0 - source.NextDouble()
	standardNormal := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)

	value := float64(dist.Mean) + standardNormal*(float64(dist.StdDev)*noise)
	return float32(math.Max(float64(lo), math.Min(value, float64(hi))))
}

// floorCount truncates v toward zero after raising it to at least floor.
func floorCount(v float32, floor float32) int {
	return int(max(floor, v))
}

// shuffle is a Fisher-Yates shuffle walking from the end of the slice.
func shuffle(samples []model.LabeledSample, source Source) {
	n := len(samples)
	for n > 1 {
		n--
		k := source.Next(n + 1)
		samples[k], samples[n] = samples[n], samples[k]
	}
}
