package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facemark/facemark-api/internal/vision"
)

// constantEmbedding builds a vector where every component holds value.
func constantEmbedding(value float32) vision.Embedding {
	vec := make(vision.Embedding, vision.EmbeddingSize)
	for i := range vec {
		vec[i] = value
	}
	return vec
}

func trainedModel(t *testing.T) *Model {
	t.Helper()
	model := NewModel(3)
	labels := []string{"s001", "s001", "s002", "s002"}
	vectors := []vision.Embedding{
		constantEmbedding(0.10),
		constantEmbedding(0.12),
		constantEmbedding(0.90),
		constantEmbedding(0.88),
	}
	require.NoError(t, model.Fit(labels, vectors))
	return model
}

func TestFitRejectsEmptySet(t *testing.T) {
	model := NewModel(5)
	assert.Error(t, model.Fit(nil, nil))
}

func TestFitRejectsMismatchedLengths(t *testing.T) {
	model := NewModel(5)
	err := model.Fit([]string{"a"}, []vision.Embedding{constantEmbedding(0), constantEmbedding(1)})
	assert.Error(t, err)
}

func TestFitRejectsWrongDimension(t *testing.T) {
	model := NewModel(5)
	err := model.Fit([]string{"a"}, []vision.Embedding{make(vision.Embedding, 10)})
	assert.Error(t, err)
}

func TestPredictNearestClassWins(t *testing.T) {
	model := trainedModel(t)

	pred, err := model.Predict(constantEmbedding(0.11))
	require.NoError(t, err)
	assert.Equal(t, "s001", pred.Label)
	assert.Greater(t, pred.Confidence, 0.5)

	pred, err = model.Predict(constantEmbedding(0.89))
	require.NoError(t, err)
	assert.Equal(t, "s002", pred.Label)
	assert.Greater(t, pred.Confidence, 0.5)
}

func TestPredictExactMatchDominates(t *testing.T) {
	model := trainedModel(t)
	pred, err := model.Predict(constantEmbedding(0.10))
	require.NoError(t, err)
	assert.Equal(t, "s001", pred.Label)
	assert.Greater(t, pred.Confidence, 0.99)
}

func TestPredictUntrainedModel(t *testing.T) {
	model := NewModel(5)
	_, err := model.Predict(constantEmbedding(0.5))
	assert.Error(t, err)
}

func TestPredictWrongDimension(t *testing.T) {
	model := trainedModel(t)
	_, err := model.Predict(make(vision.Embedding, 7))
	assert.Error(t, err)
}

func TestPredictKLargerThanSampleCount(t *testing.T) {
	model := NewModel(50)
	require.NoError(t, model.Fit(
		[]string{"only"},
		[]vision.Embedding{constantEmbedding(0.3)},
	))
	pred, err := model.Predict(constantEmbedding(0.4))
	require.NoError(t, err)
	assert.Equal(t, "only", pred.Label)
	assert.InDelta(t, 1.0, pred.Confidence, 1e-9)
}

func TestClassesDistinctSorted(t *testing.T) {
	model := trainedModel(t)
	assert.Equal(t, []string{"s001", "s002"}, model.Classes())
}
