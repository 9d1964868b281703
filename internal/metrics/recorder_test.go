package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecorder(t *testing.T) {
	r := NewRecorder()
	assert.NotNil(t, r.ClassificationsTotal)
	assert.NotNil(t, r.ClassificationConfidence)
	assert.NotNil(t, r.GeneratedSamplesTotal)
	assert.NotNil(t, r.Gatherer())

	// independent recorders must not collide on registration
	assert.NotPanics(t, func() { NewRecorder() })
}

func TestRecordClassification(t *testing.T) {
	r := NewRecorder()
	dos := model.ClassificationResult{Category: model.ThreatDenialOfService, Confidence: 0.88}

	r.RecordClassification(model.EngineRuleBased, dos)
	r.RecordClassification(model.EngineRuleBased, dos)
	r.RecordClassification(model.EngineML, model.NoThreat(""))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ClassificationsTotal.WithLabelValues("rule-based", "DenialOfService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ClassificationsTotal.WithLabelValues("ml", "None")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.ClassificationConfidence))

	r.RecordClassificationError(model.EngineML)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ClassificationErrors.WithLabelValues("ml")))
}

func TestRecordDataset(t *testing.T) {
	r := NewRecorder()
	r.RecordDataset([]model.LabeledSample{
		{Label: model.ThreatNone},
		{Label: model.ThreatNone},
		{Label: model.ThreatManInTheMiddle},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.GeneratedSamplesTotal.WithLabelValues("None")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GeneratedSamplesTotal.WithLabelValues("ManInTheMiddle")))
}

func TestRecordTraining(t *testing.T) {
	r := NewRecorder()
	r.RecordTraining(880, 0.97, 1.5)

	assert.Equal(t, 880.0, testutil.ToFloat64(r.TrainingSamples))
	assert.Equal(t, 0.97, testutil.ToFloat64(r.ValidationAccuracy))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.TrainingDuration))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordClassification(model.EngineRuleBased, model.NoThreat(""))

	path := filepath.Join(t.TempDir(), "classifier.prom")
	require.NoError(t, r.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), `ics_classifications_total{category="None",engine="rule-based"} 1`))

	assert.ErrorIs(t, r.WriteTextfile(""), model.ErrInvalidArgument)
	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}

func TestConcurrentRecording(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordClassification(model.EngineML, model.NoThreat(""))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000.0, testutil.ToFloat64(r.ClassificationsTotal.WithLabelValues("ml", "None")))
}
